// Package media - 课程媒体上传控制器
package media

import (
	"errors"
	"net/http"

	"edusync/api/ctxutil"
	"edusync/api/response"
	mediaapp "edusync/application/media"
	apperrors "edusync/pkg/errors"

	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadBytes used when the server config leaves the limit unset.
const DefaultMaxUploadBytes = 100 << 20

// Controller 媒体控制器
type Controller struct {
	mediaService   *mediaapp.ApplicationService
	maxUploadBytes int64
}

// NewController 创建媒体控制器
func NewController(mediaService *mediaapp.ApplicationService, maxUploadBytes int64) *Controller {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Controller{
		mediaService:   mediaService,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes 注册上传路由
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/files/upload", c.Upload)
}

// Upload POST /api/v1/files/upload (multipart field "file")
func (c *Controller) Upload(ctx *gin.Context) {
	caller, ok := ctxutil.MustIdentity(ctx)
	if !ok {
		return
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes)
	header, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.HandleAppError(ctx, apperrors.PayloadTooLarge("file exceeds upload limit"))
			return
		}
		response.HandleError(ctx, err, "no file uploaded", http.StatusBadRequest)
		return
	}

	file, err := header.Open()
	if err != nil {
		response.HandleError(ctx, err, "cannot read uploaded file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	uploaded, err := c.mediaService.Upload(ctxutil.WithRequestID(ctx), header.Filename,
		header.Header.Get("Content-Type"), header.Size, file, caller)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, uploaded, "file uploaded successfully")
}
