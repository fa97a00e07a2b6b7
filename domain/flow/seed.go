package flow

import (
	"fmt"
	"io/ioutil"

	"flowcase/domain"
	"flowcase/idgen"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
	"gopkg.in/yaml.v3"
)

var ruleIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

type workflowConfigFile struct {
	WorkTypes       []workTypeDef `yaml:"workTypes"`
	WorkflowStates  []stateDef    `yaml:"workflowStates"`
	TransitionRules []ruleDef     `yaml:"transitionRules"`
}

type workTypeDef struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type stateDef struct {
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
	IsEnd bool   `yaml:"isEnd"`
}

type ruleDef struct {
	TypeCode       string            `yaml:"typeCode"`
	FromState      string            `yaml:"fromState"`
	Action         string            `yaml:"action"`
	ToState        string            `yaml:"toState"`
	OwnerStrategy  string            `yaml:"ownerStrategy"`
	RequiredFields []string          `yaml:"requiredFields"`
	Properties     map[string]string `yaml:"properties"`
}

// SeedWorkflowConfig loads the declarative workflow config and synchronizes it
// into the database. It is idempotent: declared entries are upserted, entries
// the file no longer declares are removed. Work items referencing removed
// vocabulary keep their recorded state values.
func (m *RuleManager) SeedWorkflowConfig(configFile string) error {
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		return err
	}
	config := workflowConfigFile{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return err
	}
	if err := validateConfig(&config); err != nil {
		return err
	}

	db := m.dataSource.GormDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := seedWorkTypes(tx, config.WorkTypes); err != nil {
			return err
		}
		if err := seedWorkflowStates(tx, config.WorkflowStates); err != nil {
			return err
		}
		return seedTransitionRules(tx, config.TransitionRules)
	})
	if err != nil {
		return err
	}

	m.InvalidateCache()
	logrus.Infof("workflow config seeded from %s: %d types, %d states, %d rules",
		configFile, len(config.WorkTypes), len(config.WorkflowStates), len(config.TransitionRules))
	return nil
}

// validateConfig rejects duplicated (typeCode, fromState, action) triples
// before anything touches the database.
func validateConfig(config *workflowConfigFile) error {
	seen := map[string]bool{}
	for _, rule := range config.TransitionRules {
		key := rule.TypeCode + "/" + rule.FromState + "/" + rule.Action
		if seen[key] {
			return fmt.Errorf("duplicated transition rule (%s, %s, %s)", rule.TypeCode, rule.FromState, rule.Action)
		}
		seen[key] = true

		switch domain.OwnerStrategy(rule.OwnerStrategy) {
		case domain.OwnerKeep, domain.OwnerToCreator, domain.OwnerToSpecificUser, "":
		default:
			return fmt.Errorf("unknown owner strategy '%s' of rule (%s, %s, %s)",
				rule.OwnerStrategy, rule.TypeCode, rule.FromState, rule.Action)
		}
	}
	return nil
}

func seedWorkTypes(tx *gorm.DB, defs []workTypeDef) error {
	declared := map[string]bool{}
	for _, def := range defs {
		declared[def.Code] = true
		existing := domain.WorkType{}
		err := tx.Where(&domain.WorkType{Code: def.Code}).First(&existing).Error
		if err == nil {
			if err := tx.Model(&domain.WorkType{Code: def.Code}).Update("name", def.Name).Error; err != nil {
				return err
			}
			continue
		}
		if !gorm.IsRecordNotFoundError(err) {
			return err
		}
		if err := tx.Create(&domain.WorkType{Code: def.Code, Name: def.Name}).Error; err != nil {
			return err
		}
	}

	var all []domain.WorkType
	if err := tx.Find(&all).Error; err != nil {
		return err
	}
	for _, workType := range all {
		if !declared[workType.Code] {
			if err := tx.Delete(&domain.WorkType{Code: workType.Code}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedWorkflowStates(tx *gorm.DB, defs []stateDef) error {
	declared := map[string]bool{}
	for _, def := range defs {
		declared[def.Code] = true
		existing := domain.WorkflowState{}
		err := tx.Where(&domain.WorkflowState{Code: def.Code}).First(&existing).Error
		if err == nil {
			updates := map[string]interface{}{"name": def.Name, "is_end": def.IsEnd}
			if err := tx.Model(&domain.WorkflowState{Code: def.Code}).Updates(updates).Error; err != nil {
				return err
			}
			continue
		}
		if !gorm.IsRecordNotFoundError(err) {
			return err
		}
		if err := tx.Create(&domain.WorkflowState{Code: def.Code, Name: def.Name, IsEnd: def.IsEnd}).Error; err != nil {
			return err
		}
	}

	var all []domain.WorkflowState
	if err := tx.Find(&all).Error; err != nil {
		return err
	}
	for _, state := range all {
		if !declared[state.Code] {
			if err := tx.Delete(&domain.WorkflowState{Code: state.Code}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedTransitionRules(tx *gorm.DB, defs []ruleDef) error {
	declared := map[types.ID]bool{}
	for _, def := range defs {
		strategy := domain.OwnerStrategy(def.OwnerStrategy)
		if strategy == "" {
			strategy = domain.OwnerKeep
		}

		existing := domain.TransitionRule{}
		err := tx.Where(&domain.TransitionRule{TypeCode: def.TypeCode, FromState: def.FromState, Action: def.Action}).
			First(&existing).Error
		if err == nil {
			existing.ToState = def.ToState
			existing.OwnerStrategy = strategy
			existing.RequiredFields = domain.FieldList(def.RequiredFields)
			existing.Properties = domain.PropertyMap(def.Properties)
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			declared[existing.ID] = true
			continue
		}
		if !gorm.IsRecordNotFoundError(err) {
			return err
		}

		rule := domain.TransitionRule{
			ID:       idgen.NextID(ruleIdWorker),
			TypeCode: def.TypeCode, FromState: def.FromState, Action: def.Action,
			ToState: def.ToState, OwnerStrategy: strategy,
			RequiredFields: domain.FieldList(def.RequiredFields), Properties: domain.PropertyMap(def.Properties),
			CreateTime: types.CurrentTimestamp(),
		}
		if err := tx.Create(&rule).Error; err != nil {
			return err
		}
		declared[rule.ID] = true
	}

	var all []domain.TransitionRule
	if err := tx.Find(&all).Error; err != nil {
		return err
	}
	for _, rule := range all {
		if !declared[rule.ID] {
			if err := tx.Delete(&domain.TransitionRule{}, "id = ?", rule.ID).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
