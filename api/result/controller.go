// Package result - 成绩 API 控制器
package result

import (
	"net/http"

	"edusync/api/ctxutil"
	"edusync/api/response"
	"edusync/application/lifecycle"
	resultapp "edusync/application/result"

	"github.com/gin-gonic/gin"
)

// Controller 成绩控制器
type Controller struct {
	resultService *resultapp.ApplicationService
}

// NewController 创建成绩控制器
func NewController(resultService *resultapp.ApplicationService) *Controller {
	return &Controller{resultService: resultService}
}

// RegisterRoutes 注册成绩路由
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	resultGroup := router.Group("/results")
	{
		resultGroup.GET("", c.ListResults)
		resultGroup.GET("/:id", c.GetResult)
		resultGroup.POST("", c.SubmitResult)
		resultGroup.PUT("/:id", c.UpdateResult)
		resultGroup.DELETE("/:id", c.DeleteResult)
	}
}

// ListResults GET /api/v1/results
func (c *Controller) ListResults(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	results, err := c.resultService.ListResults(ctxutil.WithRequestID(ctx), caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleList(ctx, results, len(results), "results retrieved successfully")
}

// GetResult GET /api/v1/results/:id
func (c *Controller) GetResult(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	res, err := c.resultService.GetResult(ctxutil.WithRequestID(ctx), ctx.Param("id"), caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, res, "result retrieved successfully")
}

// SubmitResult POST /api/v1/results
//
// 提交已落库后事件发送失败仍返回 201，并通过响应头提示。
func (c *Controller) SubmitResult(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	var req resultapp.SubmitResultRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	outcome, err := c.resultService.SubmitResult(ctxutil.WithRequestID(ctx), req, caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.MarkSideEffectPending(ctx, summarize(outcome.SideEffect))
	response.HandleCreated(ctx, outcome.Result, "result submitted successfully")
}

// UpdateResult PUT /api/v1/results/:id
func (c *Controller) UpdateResult(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	var req resultapp.UpdateResultRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	outcome, err := c.resultService.UpdateResult(ctxutil.WithRequestID(ctx), ctx.Param("id"), req, caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.MarkSideEffectPending(ctx, summarize(outcome.SideEffect))
	response.HandleNoContent(ctx)
}

// DeleteResult DELETE /api/v1/results/:id
func (c *Controller) DeleteResult(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	outcome, err := c.resultService.DeleteResult(ctxutil.WithRequestID(ctx), ctx.Param("id"), caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.MarkSideEffectPending(ctx, summarize(outcome.SideEffect))
	response.HandleNoContent(ctx)
}

// summarize renders a header-safe value; error text stays in the logs.
func summarize(report *lifecycle.SideEffectReport) string {
	if report == nil {
		return ""
	}
	s := string(report.Kind) + ":" + report.Target
	if report.Deferred {
		s += ";deferred"
	}
	return s
}
