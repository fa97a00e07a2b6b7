package domain

import (
	"github.com/fundwit/go-commons/types"
)

type OwnerStrategy string

const (
	OwnerKeep           OwnerStrategy = "KEEP"
	OwnerToCreator      OwnerStrategy = "TO_CREATOR"
	OwnerToSpecificUser OwnerStrategy = "TO_SPECIFIC_USER"
)

// FieldTargetOwner is demanded by the TO_SPECIFIC_USER strategy itself, it is
// never listed in TransitionRule.RequiredFields.
const FieldTargetOwner = "target_owner_id"

// FieldRemark is an optional passthrough into the audit payload.
const FieldRemark = "remark"

// TransitionRule is one edge of the state machine of a work item type.
// (TypeCode, FromState, Action) is unique: at most one rule governs an action
// from a given state.
type TransitionRule struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	TypeCode  string `json:"typeCode" gorm:"unique_index:uni_rule_type_state_action"`
	FromState string `json:"fromState" gorm:"unique_index:uni_rule_type_state_action"`
	Action    string `json:"action" gorm:"unique_index:uni_rule_type_state_action"`

	ToState        string        `json:"toState"`
	OwnerStrategy  OwnerStrategy `json:"ownerStrategy" sql:"type:VARCHAR(32) NOT NULL DEFAULT 'KEEP'"`
	RequiredFields FieldList     `json:"requiredFields" sql:"type:TEXT"`
	Properties     PropertyMap   `json:"properties" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type TransitionOption struct {
	Action         string        `json:"action"`
	ToState        string        `json:"toState"`
	OwnerStrategy  OwnerStrategy `json:"ownerStrategy"`
	RequiredFields FieldList     `json:"requiredFields"`
}

type AvailableTransitions struct {
	CurrentState string             `json:"currentState"`
	Transitions  []TransitionOption `json:"transitions"`
}

type TransitionResult struct {
	WorkItemID types.ID `json:"workItemId"`
	FromState  string   `json:"fromState"`
	ToState    string   `json:"toState"`
	Action     string   `json:"action"`
	NewOwnerID types.ID `json:"newOwnerId"`
	WorkItem   WorkItem `json:"workItem"`
}
