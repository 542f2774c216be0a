package course

import (
	"edusync/domain/shared"
)

const (
	entityName           = "course"
	assessmentEntityName = "assessment"
)

// NewCourseNotFoundError 课程未找到
func NewCourseNotFoundError(courseID string) error {
	return shared.NewNotFoundError(entityName, courseID)
}

// NewAssessmentNotFoundError 测评未找到
func NewAssessmentNotFoundError(assessmentID string) error {
	return shared.NewNotFoundError(assessmentEntityName, assessmentID)
}

// NewNotOwnerError 调用方不是课程讲师；携带双方 ID 便于排查
func NewNotOwnerError(c *Course, callerID string) error {
	return shared.NewForbiddenError(entityName, "only the course instructor can modify this course", map[string]string{
		"course_instructor_id": c.InstructorID(),
		"caller_id":            callerID,
		"course_title":         c.Title(),
	})
}

// NewConcurrentModificationError 乐观锁冲突
func NewConcurrentModificationError(courseID string) error {
	return shared.NewConflictError(entityName, "course "+courseID+" was modified by another transaction")
}

func NewInvalidTitleError() error {
	return shared.NewValidationError(entityName, "title", "course title cannot be empty")
}

func NewMissingInstructorError() error {
	return shared.NewValidationError(entityName, "instructor_id", "instructor id is required")
}

func NewInvalidAssessmentError(field, reason string) error {
	return shared.NewValidationError(assessmentEntityName, field, reason)
}

// NewInvalidMediaURLError 媒体地址无法解析出文件名
func NewInvalidMediaURLError(mediaURL, reason string) error {
	return shared.NewValidationError(entityName, "media_url", "invalid media url "+mediaURL+": "+reason)
}
