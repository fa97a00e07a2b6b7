package domain

import (
	"github.com/fundwit/go-commons/types"
)

// StateDraft is the creation state of every work item. All other states are
// opaque vocabulary owned by the seeded workflow config.
const StateDraft = "DRAFT"

const (
	ActionDelete   = "DELETE"
	ActionReassign = "REASSIGN"
)

type WorkItem struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	TypeCode string   `json:"typeCode" gorm:"index:idx_work_items_type"`
	Title    string   `json:"title"`
	Content  string   `json:"content" sql:"type:TEXT"`

	CurrentState   string   `json:"currentState" gorm:"index:idx_work_items_state"`
	CurrentOwnerID types.ID `json:"currentOwnerId" gorm:"index:idx_work_items_owner"`
	CreatorID      types.ID `json:"creatorId" gorm:"index:idx_work_items_creator"`

	IsDeleted    bool     `json:"isDeleted" gorm:"index:idx_work_items_deleted"`
	ParentItemID types.ID `json:"parentItemId" gorm:"index:idx_work_items_parent"`

	// Version is checked and incremented on every mutation to reject lost
	// updates from concurrent callers.
	Version int64 `json:"version"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type WorkItemCreation struct {
	TypeCode     string   `json:"typeCode" binding:"required"`
	Title        string   `json:"title" binding:"required"`
	Content      string   `json:"content"`
	CreatorID    types.ID `json:"creatorId" binding:"required"`
	ParentItemID types.ID `json:"parentItemId"`
}

type WorkItemQuery struct {
	TypeCode  string   `form:"typeCode"`
	State     string   `form:"state"`
	OwnerID   types.ID `form:"ownerId"`
	CreatorID types.ID `form:"creatorId"`
	Keyword   string   `form:"keyword"`

	Sort   string `form:"sort"`
	Order  string `form:"order"`
	Offset int    `form:"offset"`
	Limit  int    `form:"limit"`
}

type WorkItemReassigning struct {
	OperatorID    types.ID `json:"operatorId" binding:"required"`
	TargetOwnerID types.ID `json:"targetOwnerId" binding:"required"`
	Remark        string   `json:"remark"`
}

type WorkItemDeletion struct {
	OperatorID types.ID `json:"operatorId" binding:"required"`
	Remark     string   `json:"remark"`
}
