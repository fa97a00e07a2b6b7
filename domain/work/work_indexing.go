package work

import (
	"flowcase/domain"

	"github.com/fundwit/go-commons/types"
)

// Indexing hooks are wired to the indices package at bootstrap and invoked
// best-effort after a committed mutation. The database stays the source of
// truth, the index only serves the secondary keyword search.
var (
	IndexWorkItemsFunc func(workItems []domain.WorkItem)
	RemoveIndexDocFunc func(workItemID types.ID)
)
