/*
Package course - 课程与测验 API 控制器

课程删除交给生命周期协调器：级联删除测验和成绩，媒体文件尽力清理。
其余操作只做参数绑定和响应整形。
*/
package course

import (
	"net/http"

	"edusync/api/ctxutil"
	"edusync/api/response"
	courseapp "edusync/application/course"
	"edusync/application/lifecycle"

	"github.com/gin-gonic/gin"
)

// Controller 课程控制器
type Controller struct {
	courseService *courseapp.ApplicationService
	coordinator   *lifecycle.Coordinator
}

// NewController 创建课程控制器
func NewController(courseService *courseapp.ApplicationService, coordinator *lifecycle.Coordinator) *Controller {
	return &Controller{
		courseService: courseService,
		coordinator:   coordinator,
	}
}

// RegisterRoutes 注册课程与测验路由
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	courseGroup := router.Group("/courses")
	{
		courseGroup.GET("", c.ListCourses)
		courseGroup.GET("/:id", c.GetCourse)
		courseGroup.POST("", c.CreateCourse)
		courseGroup.PUT("/:id", c.UpdateCourse)
		courseGroup.DELETE("/:id", c.DeleteCourse)
	}

	assessmentGroup := router.Group("/assessments")
	{
		assessmentGroup.POST("", c.CreateAssessment)
		assessmentGroup.GET("/:id", c.GetAssessment)
	}
}

// ListCourses GET /api/v1/courses
func (c *Controller) ListCourses(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	courses, err := c.courseService.ListCourses(ctxutil.WithRequestID(ctx), caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleList(ctx, courses, len(courses), "courses retrieved successfully")
}

// GetCourse GET /api/v1/courses/:id
func (c *Controller) GetCourse(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	course, err := c.courseService.GetCourse(ctxutil.WithRequestID(ctx), ctx.Param("id"), caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, course, "course retrieved successfully")
}

// CreateCourse POST /api/v1/courses
func (c *Controller) CreateCourse(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	var req courseapp.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	course, err := c.courseService.CreateCourse(ctxutil.WithRequestID(ctx), req, caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, course, "course created successfully")
}

// UpdateCourse PUT /api/v1/courses/:id
func (c *Controller) UpdateCourse(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	var req courseapp.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	if err := c.courseService.UpdateCourse(ctxutil.WithRequestID(ctx), ctx.Param("id"), req, caller); err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleNoContent(ctx)
}

// DeleteCourse DELETE /api/v1/courses/:id
//
// 两个并发删除只有一个返回 204，另一个拿到 404。
func (c *Controller) DeleteCourse(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	if err := c.coordinator.DeleteCourse(ctxutil.WithRequestID(ctx), ctx.Param("id"), caller); err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleNoContent(ctx)
}

// CreateAssessment POST /api/v1/assessments
func (c *Controller) CreateAssessment(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	var req courseapp.CreateAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	assessment, err := c.courseService.CreateAssessment(ctxutil.WithRequestID(ctx), req, caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, assessment, "assessment created successfully")
}

// GetAssessment GET /api/v1/assessments/:id
func (c *Controller) GetAssessment(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	assessment, err := c.courseService.GetAssessment(ctxutil.WithRequestID(ctx), ctx.Param("id"), caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, assessment, "assessment retrieved successfully")
}
