package result

import (
	"edusync/domain/shared"
)

const entityName = "result"

// NewResultNotFoundError 结果未找到
func NewResultNotFoundError(resultID string) error {
	return shared.NewNotFoundError(entityName, resultID)
}

// NewConcurrentModificationError 乐观锁冲突：行仍存在但版本已变化
func NewConcurrentModificationError(resultID string) error {
	return shared.NewConflictError(entityName, "result "+resultID+" was modified by another transaction")
}

// NewInvalidAssessmentError 引用的测评不存在
func NewInvalidAssessmentError(assessmentID string) error {
	return shared.NewValidationError(entityName, "assessment_id", "invalid assessment id: "+assessmentID)
}

// NewNotSelfSubmissionError 学生只能提交自己的结果
func NewNotSelfSubmissionError() error {
	return shared.NewValidationError(entityName, "user_id", "students can only submit their own results")
}

// NewUnknownSubmitterError 提交者不存在
func NewUnknownSubmitterError(userID string) error {
	return shared.NewValidationError(entityName, "user_id", "user not found: "+userID)
}

// NewInvalidScoreError 分数不合法
func NewInvalidScoreError(reason string) error {
	return shared.NewValidationError(entityName, "score", reason)
}
