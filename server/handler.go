package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BDNK1/botflow/runtime"
)

// Handler exposes the flow runtime over REST. It is a thin shell: all
// semantics live in the runtime package.
type Handler struct {
	app *runtime.App
	l   *slog.Logger
}

func NewHandler(app *runtime.App, l *slog.Logger, g *gin.Engine) *Handler {
	h := &Handler{app: app, l: l}

	g.POST("/flows/validate", h.validateFlow)
	g.POST("/flows/:id/executions", h.executeFlow)
	g.GET("/executions/:id", h.getExecution)
	g.POST("/executions/:id/resume", h.resumeExecution)
	g.POST("/executions/:id/cancel", h.cancelExecution)
	g.DELETE("/executions/:id", h.deleteExecution)

	return h
}

func (h *Handler) validateFlow(c *gin.Context) {
	var flow runtime.Flow
	if err := c.ShouldBindJSON(&flow); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Wrong request body format"})
		return
	}
	c.JSON(http.StatusOK, runtime.ValidateFlow(&flow))
}

func (h *Handler) executeFlow(c *gin.Context) {
	flow := h.app.Flow(c.Param("id"))
	if flow == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Flow not found"})
		return
	}

	var callerContext map[string]any
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&callerContext); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Wrong request body format"})
			return
		}
	}

	result := h.app.Engine.ExecuteFlow(c.Request.Context(), flow, callerContext)
	if !result.Success && result.ExecutionID == "" {
		// Validation failures never create execution state.
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getExecution(c *gin.Context) {
	state := h.app.Engine.GetExecutionState(c.Param("id"))
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Execution not found"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) resumeExecution(c *gin.Context) {
	var input map[string]any
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Wrong request body format"})
			return
		}
	}

	result := h.app.Engine.ResumeFlow(c.Request.Context(), c.Param("id"), input)
	if !result.Success && result.Error == "Execution not found" {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) cancelExecution(c *gin.Context) {
	if !h.app.Engine.CancelExecution(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Execution not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// deleteExecution drops an execution outright, waiting or not. Meant for
// administrative cleanup ahead of the retention reaper.
func (h *Handler) deleteExecution(c *gin.Context) {
	if !h.app.Engine.DeleteExecution(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Execution not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
