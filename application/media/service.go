// Package media uploads course media through the blob gateway.
package media

import (
	"context"
	"io"
	"path"
	"strings"

	"edusync/domain/identity"
	"edusync/domain/shared"
	"edusync/pkg/logger"

	"go.uber.org/zap"
)

// UploadResponse 上传结果
type UploadResponse struct {
	FileURL string `json:"file_url"`
}

// ApplicationService media application service
type ApplicationService struct {
	blobs shared.BlobStore
}

func NewApplicationService(blobs shared.BlobStore) *ApplicationService {
	return &ApplicationService{blobs: blobs}
}

// Upload stores the file under its base name, overwriting an earlier upload
// with the same name. The returned URL is what courses keep as media_url.
func (s *ApplicationService) Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader, caller identity.Identity) (*UploadResponse, error) {
	if err := caller.Require(identity.RoleInstructor, identity.RoleStudent); err != nil {
		return nil, err
	}
	if r == nil || size == 0 {
		return nil, shared.NewValidationError("file", "file", "no file uploaded")
	}
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return nil, shared.NewValidationError("file", "filename", "invalid file name: "+filename)
	}

	url, err := s.blobs.Upload(ctx, name, contentType, r)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Media uploaded",
		zap.String("blob", name),
		zap.Int64("size", size),
		zap.String("uploader_id", caller.UserID))
	return &UploadResponse{FileURL: url}, nil
}
