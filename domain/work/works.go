package work

import (
	"strings"

	"flowcase/bizerror"
	"flowcase/domain"
	"flowcase/idgen"
	"flowcase/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var workItemIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

var sortableColumns = map[string]string{
	"created_at": "create_time",
	"updated_at": "update_time",
	"title":      "title",
}

type WorkItemManagerTraits interface {
	CreateWorkItem(creation *domain.WorkItemCreation) (*domain.WorkItem, error)
	DetailWorkItem(id types.ID) (*domain.WorkItem, error)
	QueryWorkItems(query *domain.WorkItemQuery) ([]domain.WorkItem, error)
	ChildrenOf(parentID types.ID, childType string) ([]domain.WorkItem, error)
	ParentOf(childID types.ID) (*domain.WorkItem, error)
}

type WorkItemManager struct {
	dataSource *persistence.DataSourceManager
}

func NewWorkItemManager(ds *persistence.DataSourceManager) *WorkItemManager {
	return &WorkItemManager{dataSource: ds}
}

func (m *WorkItemManager) CreateWorkItem(creation *domain.WorkItemCreation) (*domain.WorkItem, error) {
	now := types.CurrentTimestamp()
	workItem := &domain.WorkItem{
		ID:       idgen.NextID(workItemIdWorker),
		TypeCode: creation.TypeCode,
		Title:    creation.Title,
		Content:  creation.Content,

		CurrentState:   domain.StateDraft,
		CurrentOwnerID: creation.CreatorID,
		CreatorID:      creation.CreatorID,
		ParentItemID:   creation.ParentItemID,

		CreateTime: now,
		UpdateTime: now,
	}

	db := m.dataSource.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		if creation.ParentItemID != 0 {
			if _, err := findActiveWorkItem(tx, creation.ParentItemID); err != nil {
				return err
			}
		}
		return tx.Create(workItem).Error
	})
	if err != nil {
		return nil, err
	}

	if IndexWorkItemsFunc != nil {
		IndexWorkItemsFunc([]domain.WorkItem{*workItem})
	}
	return workItem, nil
}

func (m *WorkItemManager) DetailWorkItem(id types.ID) (*domain.WorkItem, error) {
	return findActiveWorkItem(m.dataSource.GormDB(), id)
}

// QueryWorkItems lists non-deleted work items. TypeCode and State narrow the
// result, OwnerID and CreatorID together widen it: an item matches when it is
// owned by the one or created by the other, so creators keep seeing items they
// handed off.
func (m *WorkItemManager) QueryWorkItems(query *domain.WorkItemQuery) ([]domain.WorkItem, error) {
	db := m.dataSource.GormDB()

	q := db.Where("is_deleted = ?", false)
	if query.TypeCode != "" {
		q = q.Where("type_code = ?", query.TypeCode)
	}
	if query.State != "" {
		q = q.Where("current_state = ?", query.State)
	}

	if query.OwnerID != 0 && query.CreatorID != 0 {
		q = q.Where("current_owner_id = ? OR creator_id = ?", query.OwnerID, query.CreatorID)
	} else if query.OwnerID != 0 {
		q = q.Where("current_owner_id = ?", query.OwnerID)
	} else if query.CreatorID != 0 {
		q = q.Where("creator_id = ?", query.CreatorID)
	}

	if query.Keyword != "" {
		keyword := "%" + strings.ToLower(query.Keyword) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", keyword, keyword)
	}

	order, err := buildOrderClause(query.Sort, query.Order)
	if err != nil {
		return nil, err
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	workItems := []domain.WorkItem{}
	if err := q.Order(order).Offset(offset).Limit(limit).Find(&workItems).Error; err != nil {
		return nil, err
	}
	return workItems, nil
}

func (m *WorkItemManager) ChildrenOf(parentID types.ID, childType string) ([]domain.WorkItem, error) {
	db := m.dataSource.GormDB()
	if _, err := findActiveWorkItem(db, parentID); err != nil {
		return nil, err
	}

	q := db.Where("parent_item_id = ? AND is_deleted = ?", parentID, false)
	if childType != "" {
		q = q.Where("type_code = ?", childType)
	}
	children := []domain.WorkItem{}
	if err := q.Order("create_time ASC").Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

// ParentOf returns the parent item of a child, nil when the child has no
// parent or the parent has been soft deleted.
func (m *WorkItemManager) ParentOf(childID types.ID) (*domain.WorkItem, error) {
	db := m.dataSource.GormDB()
	child, err := findActiveWorkItem(db, childID)
	if err != nil {
		return nil, err
	}
	if child.ParentItemID == 0 {
		return nil, nil
	}

	parent, err := findActiveWorkItem(db, child.ParentItemID)
	if err != nil {
		if _, notFound := err.(*bizerror.ErrWorkItemNotFound); notFound {
			return nil, nil
		}
		return nil, err
	}
	return parent, nil
}

func buildOrderClause(sort, direction string) (string, error) {
	if sort == "" {
		return "create_time DESC", nil
	}
	column, ok := sortableColumns[sort]
	if !ok {
		return "", &bizerror.ErrBadParam{}
	}
	switch direction {
	case "", "asc":
		return column + " ASC", nil
	case "desc":
		return column + " DESC", nil
	default:
		return "", &bizerror.ErrBadParam{}
	}
}

func findActiveWorkItem(db *gorm.DB, id types.ID) (*domain.WorkItem, error) {
	workItem := domain.WorkItem{}
	err := db.Where("id = ? AND is_deleted = ?", id, false).First(&workItem).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, &bizerror.ErrWorkItemNotFound{ID: id}
		}
		return nil, err
	}
	return &workItem, nil
}
