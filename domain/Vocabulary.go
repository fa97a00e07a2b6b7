package domain

// WorkType identifies a category of work items, e.g. REQUIREMENT or TEST_CASE.
// Created and updated only by config seeding, never by the engine.
type WorkType struct {
	Code string `json:"code" gorm:"primary_key" sql:"type:VARCHAR(64)"`
	Name string `json:"name"`
}

// WorkflowState is a named state. IsEnd is advisory metadata for callers, the
// engine does not forbid transitions out of an end state.
type WorkflowState struct {
	Code  string `json:"code" gorm:"primary_key" sql:"type:VARCHAR(64)"`
	Name  string `json:"name"`
	IsEnd bool   `json:"isEnd"`
}
