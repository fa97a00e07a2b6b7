package servehttp

import (
	"net/http"

	"flowcase/domain/flow"
	"flowcase/misc"

	"github.com/gin-gonic/gin"
)

func RegisterWorkflowConfigHandler(r *gin.Engine, m flow.RuleManagerTraits, middleWares ...gin.HandlerFunc) {
	handler := &workflowConfigHandler{ruleManager: m}

	g := r.Group("/v1", middleWares...)
	g.GET("work-types", handler.handleListWorkTypes)
	g.GET("workflow-states", handler.handleListWorkflowStates)
	g.GET("workflow-rules", handler.handleListRules)
}

type workflowConfigHandler struct {
	ruleManager flow.RuleManagerTraits
}

func (h *workflowConfigHandler) handleListWorkTypes(c *gin.Context) {
	workTypes, err := h.ruleManager.ListWorkTypes()
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, workTypes)
}

func (h *workflowConfigHandler) handleListWorkflowStates(c *gin.Context) {
	states, err := h.ruleManager.ListWorkflowStates()
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, states)
}

func (h *workflowConfigHandler) handleListRules(c *gin.Context) {
	typeCode := c.Query("typeCode")
	if typeCode == "" {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "typeCode is required"})
		return
	}

	rules, err := h.ruleManager.RulesForType(typeCode)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, rules)
}
