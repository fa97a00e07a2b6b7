package flow_test

import (
	"io/ioutil"
	"os"
	"testing"

	"flowcase/domain"
	"flowcase/testinfra"

	. "github.com/onsi/gomega"
)

func writeConfigFile(content string) string {
	file, err := ioutil.TempFile("", "workflow-config-*.yaml")
	Expect(err).To(BeNil())
	_, err = file.WriteString(content)
	Expect(err).To(BeNil())
	Expect(file.Close()).To(BeNil())
	return file.Name()
}

func TestSeedWorkflowConfig(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should create the declared vocabulary and rules", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)

		configFile := writeConfigFile(`
workTypes:
  - code: REQUIREMENT
    name: Requirement
workflowStates:
  - code: DRAFT
    name: Draft
  - code: DONE
    name: Done
    isEnd: true
transitionRules:
  - typeCode: REQUIREMENT
    fromState: DRAFT
    action: FINISH
    toState: DONE
    ownerStrategy: TO_CREATOR
    requiredFields:
      - remark
    properties:
      color: green
  - typeCode: REQUIREMENT
    fromState: DONE
    action: REOPEN
    toState: DRAFT
`)
		defer os.Remove(configFile)

		Expect(manager.SeedWorkflowConfig(configFile)).To(BeNil())

		workTypes, err := manager.ListWorkTypes()
		Expect(err).To(BeNil())
		Expect(len(workTypes)).To(Equal(1))
		Expect(workTypes[0]).To(Equal(domain.WorkType{Code: "REQUIREMENT", Name: "Requirement"}))

		states, err := manager.ListWorkflowStates()
		Expect(err).To(BeNil())
		Expect(len(states)).To(Equal(2))
		Expect(states[0].IsEnd).To(BeTrue())

		rule, found, err := manager.FindRule("REQUIREMENT", "DRAFT", "FINISH")
		Expect(err).To(BeNil())
		Expect(found).To(BeTrue())
		Expect(rule.ToState).To(Equal("DONE"))
		Expect(rule.OwnerStrategy).To(Equal(domain.OwnerToCreator))
		Expect(rule.RequiredFields).To(Equal(domain.FieldList{"remark"}))
		Expect(rule.Properties).To(Equal(domain.PropertyMap{"color": "green"}))

		// omitted strategy defaults to KEEP
		rule, found, err = manager.FindRule("REQUIREMENT", "DONE", "REOPEN")
		Expect(err).To(BeNil())
		Expect(found).To(BeTrue())
		Expect(rule.OwnerStrategy).To(Equal(domain.OwnerKeep))
	})

	t.Run("should upsert changed entries and remove undeclared ones", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)

		first := writeConfigFile(`
workTypes:
  - code: REQUIREMENT
    name: Requirement
  - code: TEST_CASE
    name: Test Case
workflowStates:
  - code: DRAFT
    name: Draft
transitionRules:
  - typeCode: REQUIREMENT
    fromState: DRAFT
    action: SUBMIT
    toState: PENDING_REVIEW
  - typeCode: TEST_CASE
    fromState: DRAFT
    action: SUBMIT
    toState: PENDING_REVIEW
`)
		defer os.Remove(first)
		Expect(manager.SeedWorkflowConfig(first)).To(BeNil())
		ruleBefore, found, err := manager.FindRule("REQUIREMENT", "DRAFT", "SUBMIT")
		Expect(err).To(BeNil())
		Expect(found).To(BeTrue())

		second := writeConfigFile(`
workTypes:
  - code: REQUIREMENT
    name: Renamed Requirement
workflowStates:
  - code: DRAFT
    name: Draft
transitionRules:
  - typeCode: REQUIREMENT
    fromState: DRAFT
    action: SUBMIT
    toState: IN_REVIEW
    ownerStrategy: TO_CREATOR
`)
		defer os.Remove(second)
		Expect(manager.SeedWorkflowConfig(second)).To(BeNil())

		workTypes, err := manager.ListWorkTypes()
		Expect(err).To(BeNil())
		Expect(len(workTypes)).To(Equal(1))
		Expect(workTypes[0].Name).To(Equal("Renamed Requirement"))

		// same triple keeps its identity while its outcome changes
		ruleAfter, found, err := manager.FindRule("REQUIREMENT", "DRAFT", "SUBMIT")
		Expect(err).To(BeNil())
		Expect(found).To(BeTrue())
		Expect(ruleAfter.ID).To(Equal(ruleBefore.ID))
		Expect(ruleAfter.ToState).To(Equal("IN_REVIEW"))
		Expect(ruleAfter.OwnerStrategy).To(Equal(domain.OwnerToCreator))

		_, found, err = manager.FindRule("TEST_CASE", "DRAFT", "SUBMIT")
		Expect(err).To(BeNil())
		Expect(found).To(BeFalse())
	})

	t.Run("should reject duplicated rule triples before touching the database", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)

		configFile := writeConfigFile(`
transitionRules:
  - typeCode: REQUIREMENT
    fromState: DRAFT
    action: SUBMIT
    toState: PENDING_REVIEW
  - typeCode: REQUIREMENT
    fromState: DRAFT
    action: SUBMIT
    toState: DONE
`)
		defer os.Remove(configFile)

		err := manager.SeedWorkflowConfig(configFile)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(Equal("duplicated transition rule (REQUIREMENT, DRAFT, SUBMIT)"))

		rules, err := manager.RulesForType("REQUIREMENT")
		Expect(err).To(BeNil())
		Expect(rules).To(BeEmpty())
	})

	t.Run("should reject unknown owner strategies", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)

		configFile := writeConfigFile(`
transitionRules:
  - typeCode: REQUIREMENT
    fromState: DRAFT
    action: SUBMIT
    toState: PENDING_REVIEW
    ownerStrategy: ROUND_ROBIN
`)
		defer os.Remove(configFile)

		err := manager.SeedWorkflowConfig(configFile)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(Equal("unknown owner strategy 'ROUND_ROBIN' of rule (REQUIREMENT, DRAFT, SUBMIT)"))
	})

	t.Run("should fail on an unreadable config file", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)

		Expect(manager.SeedWorkflowConfig("/not/here.yaml")).ToNot(BeNil())
	})
}
