/*
Package result Application Layer - assessment results

Mutations go through the lifecycle coordinator, which owns the transaction
and the post-commit change event. This layer shapes requests and responses
and reads results for display.
*/
package result

import (
	"context"
	"errors"
	"time"

	"edusync/application/lifecycle"
	"edusync/domain/course"
	"edusync/domain/identity"
	"edusync/domain/result"
	"edusync/domain/shared"
	"edusync/domain/user"
)

// SubmitResultRequest 学生提交成绩
type SubmitResultRequest struct {
	AssessmentID string    `json:"assessment_id" binding:"required"`
	UserID       string    `json:"user_id" binding:"required"`
	Score        *int      `json:"score" binding:"required"`
	AttemptDate  time.Time `json:"attempt_date"`
}

// UpdateResultRequest 讲师修订成绩
type UpdateResultRequest struct {
	Score       *int      `json:"score" binding:"required"`
	AttemptDate time.Time `json:"attempt_date"`
}

// ResultResponse 成绩返回模型
type ResultResponse struct {
	ID              string    `json:"id"`
	Score           int       `json:"score"`
	AttemptDate     time.Time `json:"attempt_date"`
	AssessmentID    string    `json:"assessment_id"`
	AssessmentTitle string    `json:"assessment_title,omitempty"`
	MaxScore        int       `json:"max_score,omitempty"`
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name,omitempty"`
}

// Outcome a committed mutation and the side effect that did not happen, if any.
type Outcome struct {
	Result     *ResultResponse
	SideEffect *lifecycle.SideEffectReport
}

// ApplicationService result application service
type ApplicationService struct {
	coordinator *lifecycle.Coordinator
	results     result.Repository
	assessments course.AssessmentRepository
	users       user.Directory
	clock       func() time.Time
}

func NewApplicationService(
	coordinator *lifecycle.Coordinator,
	results result.Repository,
	assessments course.AssessmentRepository,
	users user.Directory,
) *ApplicationService {
	return &ApplicationService{
		coordinator: coordinator,
		results:     results,
		assessments: assessments,
		users:       users,
		clock:       time.Now,
	}
}

// GetResult Instructors see every result, students only their own.
func (s *ApplicationService) GetResult(ctx context.Context, id string, caller identity.Identity) (*ResultResponse, error) {
	if err := caller.Require(identity.RoleInstructor, identity.RoleStudent); err != nil {
		return nil, err
	}
	r, err := s.results.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Is(identity.RoleStudent) && r.UserID() != caller.UserID {
		return nil, shared.NewForbiddenError("result", "students can only view their own results", map[string]string{
			"result_user_id": r.UserID(),
			"caller_id":      caller.UserID,
		})
	}
	return s.toResponse(ctx, r)
}

// ListResults every result with its assessment title, max score and
// submitter name. Instructor only.
func (s *ApplicationService) ListResults(ctx context.Context, caller identity.Identity) ([]*ResultResponse, error) {
	if err := caller.Require(identity.RoleInstructor); err != nil {
		return nil, err
	}
	results, err := s.results.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*ResultResponse, 0, len(results))
	for _, r := range results {
		resp, err := s.toResponse(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// SubmitResult a missing attempt date defaults to now, as in UpdateResult.
func (s *ApplicationService) SubmitResult(ctx context.Context, req SubmitResultRequest, caller identity.Identity) (*Outcome, error) {
	if req.Score == nil {
		return nil, shared.NewValidationError("result", "score", "score is required")
	}
	attempt := req.AttemptDate
	if attempt.IsZero() {
		attempt = s.clock()
	}
	r, report, err := s.coordinator.MutateResult(ctx, lifecycle.MutationCreate, lifecycle.ResultPayload{
		AssessmentID: req.AssessmentID,
		UserID:       req.UserID,
		Score:        *req.Score,
		AttemptDate:  attempt,
	}, caller)
	if err != nil {
		return nil, err
	}
	return s.outcome(ctx, r, report)
}

func (s *ApplicationService) UpdateResult(ctx context.Context, id string, req UpdateResultRequest, caller identity.Identity) (*Outcome, error) {
	if req.Score == nil {
		return nil, shared.NewValidationError("result", "score", "score is required")
	}
	attempt := req.AttemptDate
	if attempt.IsZero() {
		attempt = s.clock()
	}
	r, report, err := s.coordinator.MutateResult(ctx, lifecycle.MutationUpdate, lifecycle.ResultPayload{
		ResultID:    id,
		Score:       *req.Score,
		AttemptDate: attempt,
	}, caller)
	if err != nil {
		return nil, err
	}
	return s.outcome(ctx, r, report)
}

func (s *ApplicationService) DeleteResult(ctx context.Context, id string, caller identity.Identity) (*Outcome, error) {
	_, report, err := s.coordinator.MutateResult(ctx, lifecycle.MutationDelete, lifecycle.ResultPayload{ResultID: id}, caller)
	if err != nil {
		return nil, err
	}
	return &Outcome{SideEffect: report}, nil
}

// ============================================================================
// mapping
// ============================================================================

func (s *ApplicationService) outcome(ctx context.Context, r *result.Result, report *lifecycle.SideEffectReport) (*Outcome, error) {
	resp, err := s.toResponse(ctx, r)
	if err != nil {
		// 变更已提交；展示字段缺失不影响结果
		resp = baseResponse(r)
	}
	return &Outcome{Result: resp, SideEffect: report}, nil
}

func (s *ApplicationService) toResponse(ctx context.Context, r *result.Result) (*ResultResponse, error) {
	resp := baseResponse(r)

	a, err := s.assessments.FindByID(ctx, r.AssessmentID())
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if a != nil {
		resp.AssessmentTitle = a.Title()
		resp.MaxScore = a.MaxScore()
	}

	u, err := s.users.FindByID(ctx, r.UserID())
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if u != nil {
		resp.UserName = u.Name
	}
	return resp, nil
}

func baseResponse(r *result.Result) *ResultResponse {
	return &ResultResponse{
		ID:           r.ID(),
		Score:        r.Score(),
		AttemptDate:  r.AttemptDate(),
		AssessmentID: r.AssessmentID(),
		UserID:       r.UserID(),
	}
}
