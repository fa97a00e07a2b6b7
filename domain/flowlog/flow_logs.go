package flowlog

import (
	"flowcase/bizerror"
	"flowcase/domain"
	"flowcase/idgen"
	"flowcase/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var logIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

type FlowLogManagerTraits interface {
	AppendLog(tx *gorm.DB, log *domain.FlowLog) error
	LogsForWorkItem(workItemID types.ID, limit int) ([]domain.FlowLog, error)
	BatchLogsForWorkItems(workItemIDs []types.ID, limitPerItem int) (map[types.ID][]domain.FlowLog, error)
}

type FlowLogManager struct {
	dataSource *persistence.DataSourceManager
}

func NewFlowLogManager(ds *persistence.DataSourceManager) *FlowLogManager {
	return &FlowLogManager{dataSource: ds}
}

// AppendLog writes one audit record within the caller's transaction. Flow logs
// are never written outside the unit of work of the mutation they describe.
func (m *FlowLogManager) AppendLog(tx *gorm.DB, log *domain.FlowLog) error {
	if log.ID == 0 {
		log.ID = idgen.NextID(logIdWorker)
	}
	if log.CreateTime.IsZero() {
		log.CreateTime = types.CurrentTimestamp()
	}
	return tx.Create(log).Error
}

func (m *FlowLogManager) LogsForWorkItem(workItemID types.ID, limit int) ([]domain.FlowLog, error) {
	db := m.dataSource.GormDB()

	// logs of soft-deleted items stay readable, only unknown ids fail
	var count int
	if err := db.Model(&domain.WorkItem{}).Where("id = ?", workItemID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, &bizerror.ErrWorkItemNotFound{ID: workItemID}
	}

	logs := []domain.FlowLog{}
	q := db.Where(&domain.FlowLog{WorkItemID: workItemID}).Order("create_time DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// BatchLogsForWorkItems loads up to limitPerItem newest-first logs for each
// given id with a single backing query, grouping in memory. Ids without logs
// are present in the result with an empty list.
func (m *FlowLogManager) BatchLogsForWorkItems(workItemIDs []types.ID, limitPerItem int) (map[types.ID][]domain.FlowLog, error) {
	result := map[types.ID][]domain.FlowLog{}
	if len(workItemIDs) == 0 {
		return result, nil
	}
	for _, id := range workItemIDs {
		result[id] = []domain.FlowLog{}
	}

	var logs []domain.FlowLog
	db := m.dataSource.GormDB()
	if err := db.Where("work_item_id in (?)", workItemIDs).
		Order("create_time DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	for _, log := range logs {
		group, wanted := result[log.WorkItemID]
		if !wanted {
			continue
		}
		if limitPerItem > 0 && len(group) >= limitPerItem {
			continue
		}
		result[log.WorkItemID] = append(group, log)
	}
	return result, nil
}
