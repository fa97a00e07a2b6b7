package work

import (
	"flowcase/bizerror"
	"flowcase/domain"
	"flowcase/domain/flow"
	"flowcase/domain/flowlog"
	"flowcase/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

type TransitionEngineTraits interface {
	HandleTransition(workItemID types.ID, action string, operatorID types.ID, formData map[string]interface{}) (*domain.TransitionResult, error)
	AvailableTransitionsOf(workItemID types.ID) (*domain.AvailableTransitions, error)
	DeleteWorkItem(workItemID, operatorID types.ID, remark string) error
	ReassignWorkItem(workItemID, operatorID, targetOwnerID types.ID, remark string) (*domain.WorkItem, error)
}

// TransitionEngine drives work items through the seeded transition map. Every
// mutation and its flow log commit in one transaction, with a version check
// rejecting concurrent lost updates.
type TransitionEngine struct {
	dataSource *persistence.DataSourceManager
	rules      flow.RuleManagerTraits
	flowLogs   flowlog.FlowLogManagerTraits
}

func NewTransitionEngine(ds *persistence.DataSourceManager, rules flow.RuleManagerTraits,
	flowLogs flowlog.FlowLogManagerTraits) *TransitionEngine {
	return &TransitionEngine{dataSource: ds, rules: rules, flowLogs: flowLogs}
}

func (e *TransitionEngine) HandleTransition(workItemID types.ID, action string, operatorID types.ID,
	formData map[string]interface{}) (*domain.TransitionResult, error) {

	logrus.Infof("handling transition: workItem=%s, action=%s, operator=%s",
		workItemID.String(), action, operatorID.String())

	var result *domain.TransitionResult
	db := e.dataSource.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		workItem, err := findActiveWorkItem(tx, workItemID)
		if err != nil {
			return err
		}

		rule, found, err := e.rules.FindRule(workItem.TypeCode, workItem.CurrentState, action)
		if err != nil {
			return err
		}
		if !found {
			return &bizerror.ErrInvalidTransition{State: workItem.CurrentState, Action: action}
		}

		// the audit payload holds exactly the declared fields, extraneous
		// form fields are dropped
		payload := domain.PayloadMap{}
		for _, field := range rule.RequiredFields {
			value, present := formData[field]
			if !present {
				return &bizerror.ErrMissingRequiredField{Field: field}
			}
			payload[field] = value
		}
		if remark, present := formData[domain.FieldRemark]; present {
			payload[domain.FieldRemark] = remark
		}

		newOwnerID, err := ResolveOwner(workItem, rule, formData)
		if err != nil {
			return err
		}

		fromState := workItem.CurrentState
		now := types.CurrentTimestamp()
		update := tx.Model(&domain.WorkItem{}).
			Where("id = ? AND version = ?", workItem.ID, workItem.Version).
			Updates(map[string]interface{}{
				"current_state":    rule.ToState,
				"current_owner_id": newOwnerID,
				"version":          workItem.Version + 1,
				"update_time":      now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		workItem.CurrentState = rule.ToState
		workItem.CurrentOwnerID = newOwnerID
		workItem.Version++
		workItem.UpdateTime = now

		if err := e.flowLogs.AppendLog(tx, &domain.FlowLog{
			WorkItemID: workItem.ID,
			FromState:  fromState, ToState: rule.ToState, Action: action,
			OperatorID: operatorID, Payload: payload, CreateTime: now,
		}); err != nil {
			return err
		}

		result = &domain.TransitionResult{
			WorkItemID: workItem.ID,
			FromState:  fromState, ToState: rule.ToState, Action: action,
			NewOwnerID: newOwnerID, WorkItem: *workItem,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if IndexWorkItemsFunc != nil {
		IndexWorkItemsFunc([]domain.WorkItem{result.WorkItem})
	}
	logrus.Infof("transition done: workItem=%s, %s -> %s", workItemID.String(), result.FromState, result.ToState)
	return result, nil
}

func (e *TransitionEngine) AvailableTransitionsOf(workItemID types.ID) (*domain.AvailableTransitions, error) {
	workItem, err := findActiveWorkItem(e.dataSource.GormDB(), workItemID)
	if err != nil {
		return nil, err
	}
	options, err := e.rules.AvailableActions(workItem.TypeCode, workItem.CurrentState)
	if err != nil {
		return nil, err
	}
	return &domain.AvailableTransitions{CurrentState: workItem.CurrentState, Transitions: options}, nil
}

// DeleteWorkItem soft deletes: the item disappears from default queries and
// transitions, its flow logs stay. Deleting an already deleted item fails
// not-found rather than succeeding as a no-op.
func (e *TransitionEngine) DeleteWorkItem(workItemID, operatorID types.ID, remark string) error {
	db := e.dataSource.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		workItem, err := findActiveWorkItem(tx, workItemID)
		if err != nil {
			return err
		}

		now := types.CurrentTimestamp()
		update := tx.Model(&domain.WorkItem{}).
			Where("id = ? AND version = ?", workItem.ID, workItem.Version).
			Updates(map[string]interface{}{
				"is_deleted":  true,
				"version":     workItem.Version + 1,
				"update_time": now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		payload := domain.PayloadMap{}
		if remark != "" {
			payload[domain.FieldRemark] = remark
		}
		return e.flowLogs.AppendLog(tx, &domain.FlowLog{
			WorkItemID: workItem.ID,
			FromState:  workItem.CurrentState, ToState: workItem.CurrentState,
			Action:     domain.ActionDelete,
			OperatorID: operatorID, Payload: payload, CreateTime: now,
		})
	})
	if err != nil {
		return err
	}

	if RemoveIndexDocFunc != nil {
		RemoveIndexDocFunc(workItemID)
	}
	return nil
}

// ReassignWorkItem is an owner-only side channel outside the state machine, it
// never consults the transition map.
func (e *TransitionEngine) ReassignWorkItem(workItemID, operatorID, targetOwnerID types.ID,
	remark string) (*domain.WorkItem, error) {

	var reassigned *domain.WorkItem
	db := e.dataSource.GormDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		workItem, err := findActiveWorkItem(tx, workItemID)
		if err != nil {
			return err
		}

		now := types.CurrentTimestamp()
		update := tx.Model(&domain.WorkItem{}).
			Where("id = ? AND version = ?", workItem.ID, workItem.Version).
			Updates(map[string]interface{}{
				"current_owner_id": targetOwnerID,
				"version":          workItem.Version + 1,
				"update_time":      now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		workItem.CurrentOwnerID = targetOwnerID
		workItem.Version++
		workItem.UpdateTime = now
		reassigned = workItem

		payload := domain.PayloadMap{domain.FieldTargetOwner: targetOwnerID}
		if remark != "" {
			payload[domain.FieldRemark] = remark
		}
		return e.flowLogs.AppendLog(tx, &domain.FlowLog{
			WorkItemID: workItem.ID,
			FromState:  workItem.CurrentState, ToState: workItem.CurrentState,
			Action:     domain.ActionReassign,
			OperatorID: operatorID, Payload: payload, CreateTime: now,
		})
	})
	if err != nil {
		return nil, err
	}

	if IndexWorkItemsFunc != nil {
		IndexWorkItemsFunc([]domain.WorkItem{*reassigned})
	}
	return reassigned, nil
}
