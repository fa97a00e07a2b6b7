package servehttp

import (
	"net/http"
	"strconv"

	"flowcase/bizerror"
	"flowcase/domain"
	"flowcase/domain/flowlog"
	"flowcase/domain/work"
	"flowcase/indices"
	"flowcase/misc"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var SearchIndexedWorkItemsFunc = indices.SearchWorkItems

type TransitionCreation struct {
	Action     string                 `json:"action" binding:"required"`
	OperatorID types.ID               `json:"operatorId" binding:"required"`
	FormData   map[string]interface{} `json:"formData"`
}

type BatchLogsQuery struct {
	WorkItemIDs  []types.ID `json:"workItemIds" binding:"required"`
	LimitPerItem int        `json:"limitPerItem"`
}

func RegisterWorkItemHandler(r *gin.Engine, workItems work.WorkItemManagerTraits,
	engine work.TransitionEngineTraits, flowLogs flowlog.FlowLogManagerTraits, middleWares ...gin.HandlerFunc) {

	g := r.Group("/v1/work-items", middleWares...)
	handler := &workItemHandler{workItems: workItems, engine: engine, flowLogs: flowLogs, validator: validator.New()}

	g.POST("", handler.handleCreate)
	g.GET("", handler.handleQuery)
	g.GET(":id", handler.handleDetail)
	g.DELETE(":id", handler.handleDelete)

	g.GET(":id/children", handler.handleChildren)
	g.GET(":id/parent", handler.handleParent)

	g.POST(":id/transitions", handler.handleTransition)
	g.GET(":id/transitions", handler.handleAvailableTransitions)
	g.PUT(":id/owner", handler.handleReassign)

	g.GET(":id/logs", handler.handleLogs)
	g.POST("batch-logs", handler.handleBatchLogs)

	r.GET("/v1/work-item-search", handler.handleIndexedSearch)
}

type workItemHandler struct {
	workItems work.WorkItemManagerTraits
	engine    work.TransitionEngineTraits
	flowLogs  flowlog.FlowLogManagerTraits
	validator *validator.Validate
}

func (h *workItemHandler) handleCreate(c *gin.Context) {
	creation := domain.WorkItemCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	workItem, err := h.workItems.CreateWorkItem(&creation)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, workItem)
}

func (h *workItemHandler) handleQuery(c *gin.Context) {
	query := domain.WorkItemQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	workItems, err := h.workItems.QueryWorkItems(&query)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, workItems)
}

func (h *workItemHandler) handleDetail(c *gin.Context) {
	id, badId := parseIdParam(c)
	if badId {
		return
	}

	workItem, err := h.workItems.DetailWorkItem(id)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, workItem)
}

func (h *workItemHandler) handleDelete(c *gin.Context) {
	id, badId := parseIdParam(c)
	if badId {
		return
	}
	operatorId, err := types.ParseID(c.Query("operatorId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param",
			Message: "invalid operatorId '" + c.Query("operatorId") + "'"})
		return
	}

	if err := h.engine.DeleteWorkItem(id, operatorId, c.Query("remark")); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *workItemHandler) handleChildren(c *gin.Context) {
	id, badId := parseIdParam(c)
	if badId {
		return
	}

	children, err := h.workItems.ChildrenOf(id, c.Query("typeCode"))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, children)
}

func (h *workItemHandler) handleParent(c *gin.Context) {
	id, badId := parseIdParam(c)
	if badId {
		return
	}

	parent, err := h.workItems.ParentOf(id)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	if parent == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, parent)
}

func (h *workItemHandler) handleTransition(c *gin.Context) {
	id, badId := parseIdParam(c)
	if badId {
		return
	}

	creation := TransitionCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	result, err := h.engine.HandleTransition(id, creation.Action, creation.OperatorID, creation.FormData)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *workItemHandler) handleAvailableTransitions(c *gin.Context) {
	id, badId := parseIdParam(c)
	if badId {
		return
	}

	available, err := h.engine.AvailableTransitionsOf(id)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, available)
}

func (h *workItemHandler) handleReassign(c *gin.Context) {
	id, badId := parseIdParam(c)
	if badId {
		return
	}

	reassigning := domain.WorkItemReassigning{}
	err := c.ShouldBindBodyWith(&reassigning, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(reassigning); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	workItem, err := h.engine.ReassignWorkItem(id, reassigning.OperatorID, reassigning.TargetOwnerID, reassigning.Remark)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, workItem)
}

func (h *workItemHandler) handleLogs(c *gin.Context) {
	id, badId := parseIdParam(c)
	if badId {
		return
	}
	limit := 50
	if c.Query("limit") != "" {
		parsed, err := strconv.Atoi(c.Query("limit"))
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param",
				Message: "invalid limit '" + c.Query("limit") + "'"})
			return
		}
		limit = parsed
	}

	logs, err := h.flowLogs.LogsForWorkItem(id, limit)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *workItemHandler) handleBatchLogs(c *gin.Context) {
	query := BatchLogsQuery{}
	err := c.ShouldBindBodyWith(&query, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if query.LimitPerItem <= 0 {
		query.LimitPerItem = 20
	}

	grouped, err := h.flowLogs.BatchLogsForWorkItems(query.WorkItemIDs, query.LimitPerItem)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}

	response := map[string][]domain.FlowLog{}
	for id, logs := range grouped {
		response[id.String()] = logs
	}
	c.JSON(http.StatusOK, response)
}

func (h *workItemHandler) handleIndexedSearch(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "keyword is required"})
		return
	}

	workItems, err := SearchIndexedWorkItemsFunc(keyword, c.Query("typeCode"))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, workItems)
}

func parseIdParam(c *gin.Context) (types.ID, bool) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param",
			Message: "invalid id '" + c.Param("id") + "'"})
		return 0, true
	}
	return id, false
}
