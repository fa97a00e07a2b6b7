package flowlog_test

import (
	"testing"
	"time"

	"flowcase/bizerror"
	"flowcase/domain"
	"flowcase/domain/flowlog"
	"flowcase/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) flowlog.FlowLogManagerTraits {
	db := testinfra.StartMysqlTestDatabase("flowcase")
	*testDatabase = db
	Expect(db.DS.GormDB().AutoMigrate(&domain.WorkItem{}, &domain.FlowLog{}).Error).To(BeNil())
	return flowlog.NewFlowLogManager(db.DS)
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func buildItemRow(db *gorm.DB, id types.ID, deleted bool) {
	Expect(db.Create(&domain.WorkItem{ID: id, TypeCode: "REQUIREMENT", Title: "item",
		CurrentState: domain.StateDraft, CurrentOwnerID: 100, CreatorID: 100, IsDeleted: deleted,
		CreateTime: types.CurrentTimestamp(), UpdateTime: types.CurrentTimestamp()}).Error).To(BeNil())
}

func appendLogAt(m flowlog.FlowLogManagerTraits, db *gorm.DB, workItemID types.ID,
	action string, at types.Timestamp) *domain.FlowLog {
	log := &domain.FlowLog{WorkItemID: workItemID, FromState: "A", ToState: "B",
		Action: action, OperatorID: 7, CreateTime: at}
	Expect(m.AppendLog(db, log)).To(BeNil())
	return log
}

func TestAppendLog(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should assign id and timestamp when absent", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)
		db := testDatabase.DS.GormDB()
		buildItemRow(db, 10, false)

		log := &domain.FlowLog{WorkItemID: 10, FromState: "DRAFT", ToState: "PENDING_REVIEW",
			Action: "SUBMIT", OperatorID: 7, Payload: domain.PayloadMap{"remark": "hi"}}
		Expect(manager.AppendLog(db, log)).To(BeNil())
		Expect(log.ID).ToNot(BeZero())
		Expect(time.Until(log.CreateTime.Time()) < time.Minute).To(BeTrue())

		logs, err := manager.LogsForWorkItem(10, 0)
		Expect(err).To(BeNil())
		Expect(len(logs)).To(Equal(1))
		Expect(logs[0].ID).To(Equal(log.ID))
		Expect(logs[0].Payload).To(Equal(domain.PayloadMap{"remark": "hi"}))
	})
}

func TestLogsForWorkItem(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should fail on unknown work items", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)

		logs, err := manager.LogsForWorkItem(404, 0)
		Expect(logs).To(BeNil())
		Expect(err).To(Equal(&bizerror.ErrWorkItemNotFound{ID: types.ID(404)}))
	})

	t.Run("should list logs newest first and honor the limit", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)
		db := testDatabase.DS.GormDB()
		buildItemRow(db, 10, false)

		loc := time.Now().Location()
		appendLogAt(manager, db, 10, "SUBMIT", types.TimestampOfDate(2021, 1, 1, 1, 0, 0, 0, loc))
		appendLogAt(manager, db, 10, "APPROVE", types.TimestampOfDate(2021, 1, 2, 1, 0, 0, 0, loc))
		appendLogAt(manager, db, 10, "REASSIGN", types.TimestampOfDate(2021, 1, 3, 1, 0, 0, 0, loc))

		logs, err := manager.LogsForWorkItem(10, 0)
		Expect(err).To(BeNil())
		Expect(len(logs)).To(Equal(3))
		Expect(logs[0].Action).To(Equal("REASSIGN"))
		Expect(logs[1].Action).To(Equal("APPROVE"))
		Expect(logs[2].Action).To(Equal("SUBMIT"))

		logs, err = manager.LogsForWorkItem(10, 2)
		Expect(err).To(BeNil())
		Expect(len(logs)).To(Equal(2))
		Expect(logs[0].Action).To(Equal("REASSIGN"))
	})

	t.Run("should keep logs of soft deleted items readable", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)
		db := testDatabase.DS.GormDB()
		buildItemRow(db, 10, true)
		appendLogAt(manager, db, 10, "DELETE", types.CurrentTimestamp())

		logs, err := manager.LogsForWorkItem(10, 0)
		Expect(err).To(BeNil())
		Expect(len(logs)).To(Equal(1))
		Expect(logs[0].Action).To(Equal("DELETE"))
	})
}

func TestBatchLogsForWorkItems(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should group logs per id and pre-fill empty lists", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)
		db := testDatabase.DS.GormDB()
		buildItemRow(db, 10, false)
		buildItemRow(db, 20, false)

		loc := time.Now().Location()
		appendLogAt(manager, db, 10, "SUBMIT", types.TimestampOfDate(2021, 1, 1, 1, 0, 0, 0, loc))
		appendLogAt(manager, db, 10, "APPROVE", types.TimestampOfDate(2021, 1, 2, 1, 0, 0, 0, loc))
		appendLogAt(manager, db, 10, "REASSIGN", types.TimestampOfDate(2021, 1, 3, 1, 0, 0, 0, loc))
		appendLogAt(manager, db, 20, "SUBMIT", types.TimestampOfDate(2021, 1, 1, 1, 0, 0, 0, loc))

		grouped, err := manager.BatchLogsForWorkItems([]types.ID{10, 20, 404}, 2)
		Expect(err).To(BeNil())
		Expect(len(grouped)).To(Equal(3))
		Expect(len(grouped[10])).To(Equal(2))
		Expect(grouped[10][0].Action).To(Equal("REASSIGN"))
		Expect(grouped[10][1].Action).To(Equal("APPROVE"))
		Expect(len(grouped[20])).To(Equal(1))
		Expect(grouped[404]).To(Equal([]domain.FlowLog{}))
	})

	t.Run("should return an empty map for no ids", func(t *testing.T) {
		defer teardown(t, testDatabase)
		manager := setup(t, &testDatabase)

		grouped, err := manager.BatchLogsForWorkItems(nil, 10)
		Expect(err).To(BeNil())
		Expect(grouped).To(BeEmpty())
	})
}
