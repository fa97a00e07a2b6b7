package flow

import (
	"time"

	"flowcase/domain"
	"flowcase/persistence"

	"github.com/patrickmn/go-cache"
)

// RuleManagerTraits is the read side of the seeded workflow config: the
// transition map and the work type/state vocabularies.
type RuleManagerTraits interface {
	FindRule(typeCode, fromState, action string) (*domain.TransitionRule, bool, error)
	RulesForType(typeCode string) ([]domain.TransitionRule, error)
	AvailableActions(typeCode, fromState string) ([]domain.TransitionOption, error)
	ListWorkTypes() ([]domain.WorkType, error)
	ListWorkflowStates() ([]domain.WorkflowState, error)
}

type RuleManager struct {
	dataSource *persistence.DataSourceManager

	// rules are read-mostly at request time, per-type lists are cached until
	// the next seeding flush
	ruleCache *cache.Cache
}

func NewRuleManager(ds *persistence.DataSourceManager) *RuleManager {
	return &RuleManager{
		dataSource: ds,
		ruleCache:  cache.New(1*time.Minute, 5*time.Minute),
	}
}

func (m *RuleManager) RulesForType(typeCode string) ([]domain.TransitionRule, error) {
	if cached, found := m.ruleCache.Get(typeCode); found {
		return cached.([]domain.TransitionRule), nil
	}

	var rules []domain.TransitionRule
	db := m.dataSource.GormDB()
	if err := db.Where(&domain.TransitionRule{TypeCode: typeCode}).Find(&rules).Error; err != nil {
		return nil, err
	}
	m.ruleCache.Set(typeCode, rules, cache.DefaultExpiration)
	return rules, nil
}

// FindRule returns the single rule of (typeCode, fromState, action), relying
// on the unique index kept by the seeding side.
func (m *RuleManager) FindRule(typeCode, fromState, action string) (*domain.TransitionRule, bool, error) {
	rules, err := m.RulesForType(typeCode)
	if err != nil {
		return nil, false, err
	}
	for i := range rules {
		if rules[i].FromState == fromState && rules[i].Action == action {
			return &rules[i], true, nil
		}
	}
	return nil, false, nil
}

func (m *RuleManager) AvailableActions(typeCode, fromState string) ([]domain.TransitionOption, error) {
	rules, err := m.RulesForType(typeCode)
	if err != nil {
		return nil, err
	}
	options := []domain.TransitionOption{}
	for _, rule := range rules {
		if rule.FromState != fromState {
			continue
		}
		options = append(options, domain.TransitionOption{
			Action: rule.Action, ToState: rule.ToState,
			OwnerStrategy: rule.OwnerStrategy, RequiredFields: rule.RequiredFields,
		})
	}
	return options, nil
}

func (m *RuleManager) ListWorkTypes() ([]domain.WorkType, error) {
	var workTypes []domain.WorkType
	if err := m.dataSource.GormDB().Order("code ASC").Find(&workTypes).Error; err != nil {
		return nil, err
	}
	return workTypes, nil
}

func (m *RuleManager) ListWorkflowStates() ([]domain.WorkflowState, error) {
	var states []domain.WorkflowState
	if err := m.dataSource.GormDB().Order("code ASC").Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

// InvalidateCache drops all cached rule lists, called after reseeding.
func (m *RuleManager) InvalidateCache() {
	m.ruleCache.Flush()
}
