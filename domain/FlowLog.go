package domain

import (
	"github.com/fundwit/go-commons/types"
)

// FlowLog is one immutable audit record of a state or ownership affecting
// operation. It is written in the same transaction as the work item mutation
// it describes, and survives soft deletion of its parent item.
type FlowLog struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	WorkItemID types.ID `json:"workItemId" gorm:"index:idx_flow_logs_item"`

	FromState string `json:"fromState"`
	ToState   string `json:"toState"`
	Action    string `json:"action"`

	OperatorID types.ID   `json:"operatorId"`
	Payload    PayloadMap `json:"payload" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}
