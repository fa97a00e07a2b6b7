package bizerror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fundwit/go-commons/types"
)

var (
	// ErrForbidden is reserved for the boundary layer, the engine never raises it.
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("concurrent modification")
)

type BizError interface {
	error
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message}
}

// ErrWorkItemNotFound reports a work item which does not exist or has been soft deleted.
type ErrWorkItemNotFound struct {
	ID types.ID
}

func (e *ErrWorkItemNotFound) Error() string {
	return fmt.Sprintf("work item %s not found", e.ID.String())
}
func (e *ErrWorkItemNotFound) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusNotFound, Code: "workitem.not_found",
		Message: e.Error(), Data: e.ID.String()}
}

// ErrInvalidTransition reports an action which no rule allows from the current state.
type ErrInvalidTransition struct {
	State  string
	Action string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("state '%s' does not support action '%s'", e.State, e.Action)
}
func (e *ErrInvalidTransition) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "workflow.invalid_transition",
		Message: e.Error(), Data: map[string]string{"state": e.State, "action": e.Action}}
}

// ErrMissingRequiredField reports a field the matched rule (or the owner
// strategy) demands but the caller did not supply.
type ErrMissingRequiredField struct {
	Field string
}

func (e *ErrMissingRequiredField) Error() string {
	return fmt.Sprintf("missing required field '%s'", e.Field)
}
func (e *ErrMissingRequiredField) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "workflow.missing_required_field",
		Message: e.Error(), Data: e.Field}
}
