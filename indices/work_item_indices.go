package indices

import (
	"encoding/json"

	"flowcase/client/es"
	"flowcase/domain"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var WorkItemIndexName = "work_items"

type WorkItemDocument struct {
	domain.WorkItem
}

// IndexWorkItems pushes work item documents into the search index. Indexing is
// best-effort: failures are logged, the database stays the source of truth.
func IndexWorkItems(workItems []domain.WorkItem) {
	if es.ActiveESClient == nil {
		return
	}
	for _, workItem := range workItems {
		doc := WorkItemDocument{WorkItem: workItem}
		if err := es.IndexFunc(WorkItemIndexName, doc.ID, doc); err != nil {
			logrus.Warnf("index work item %s failed: %v", doc.ID.String(), err)
		}
	}
}

// RemoveWorkItemDoc drops a soft-deleted work item from the search index.
func RemoveWorkItemDoc(workItemID types.ID) {
	if es.ActiveESClient == nil {
		return
	}
	if err := es.DeleteDocumentByIdFunc(WorkItemIndexName, workItemID); err != nil {
		logrus.Warnf("remove work item doc %s failed: %v", workItemID.String(), err)
	}
}

// SearchWorkItems is the full-text side door over the index. The query layer's
// contractual substring search stays in the work item store.
func SearchWorkItems(keyword string, typeCode string) ([]domain.WorkItem, error) {
	filters := make([]es.H, 0, 2)
	filters = append(filters, es.H{"term": es.H{"isDeleted": false}})
	if typeCode != "" {
		filters = append(filters, es.H{"term": es.H{"typeCode": typeCode}})
	}

	root := es.H{
		"bool": es.H{
			"filter": filters,
			"must": es.H{"multi_match": es.H{
				"query":  keyword,
				"fields": []string{"title", "content"},
			}},
		},
	}
	result, err := es.SearchFunc(WorkItemIndexName, es.H{"size": 100, "query": root})
	if err != nil {
		return nil, err
	}

	workItems := make([]domain.WorkItem, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		doc := WorkItemDocument{}
		if err := json.Unmarshal([]byte(hit.Source), &doc); err != nil {
			return nil, err
		}
		workItems = append(workItems, doc.WorkItem)
	}
	return workItems, nil
}
