package testinfra

import (
	"net/http"
	"net/http/httptest"

	"flowcase/domain"
	"flowcase/domain/work"
	"flowcase/idgen"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
	"github.com/sony/sonyflake"
)

var testIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

// ExecuteRequest dispatch the request to the router and collect the response
func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code, w.Body.String(), w
}

// BuildWorkItem create a work item through the manager and assert it landed in DRAFT
func BuildWorkItem(m work.WorkItemManagerTraits, typeCode, title string, creatorId types.ID) *domain.WorkItem {
	creation := &domain.WorkItemCreation{TypeCode: typeCode, Title: title, CreatorID: creatorId}
	workItem, err := m.CreateWorkItem(creation)
	Expect(err).To(BeNil())
	Expect(workItem).ToNot(BeNil())
	Expect(workItem.CurrentState).To(Equal(domain.StateDraft))
	return workItem
}

// SeedRule persist a transition rule directly, bypassing the config file loader
func SeedRule(db *gorm.DB, typeCode, fromState, action, toState string,
	ownerStrategy domain.OwnerStrategy, requiredFields ...string) *domain.TransitionRule {
	rule := &domain.TransitionRule{
		ID:             idgen.NextID(testIdWorker),
		TypeCode:       typeCode,
		FromState:      fromState,
		Action:         action,
		ToState:        toState,
		OwnerStrategy:  ownerStrategy,
		RequiredFields: domain.FieldList(requiredFields),
	}
	Expect(db.Create(rule).Error).To(BeNil())
	return rule
}
