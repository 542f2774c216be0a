/*
Package result Assessment result subdomain.

A Result references exactly one Assessment and one submitting user. Both are
non-owning references; the Assessment is owned by its Course.
*/
package result

import (
	"fmt"
	"time"

	"edusync/domain/shared"

	"github.com/google/uuid"
)

// Result assessment result entity
type Result struct {
	id           string
	assessmentID string
	userID       string
	score        int
	attemptDate  time.Time
	version      int // Optimistic lock version number
}

// NewResult creates a result submitted by userID for assessmentID.
func NewResult(assessmentID, userID string, score int, attemptDate time.Time) (*Result, error) {
	if assessmentID == "" {
		return nil, NewInvalidAssessmentError(assessmentID)
	}
	if userID == "" {
		return nil, NewUnknownSubmitterError(userID)
	}
	if score < 0 {
		return nil, NewInvalidScoreError("score cannot be negative")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate result ID: %w", err)
	}

	return &Result{
		id:           id.String(),
		assessmentID: assessmentID,
		userID:       userID,
		score:        score,
		attemptDate:  attemptDate.UTC(),
	}, nil
}

// ReconstructionDTO is for repository use only.
type ReconstructionDTO struct {
	ID           string
	AssessmentID string
	UserID       string
	Score        int
	AttemptDate  time.Time
	Version      int
}

// RebuildFromDTO reconstructs a Result loaded from storage.
func RebuildFromDTO(dto ReconstructionDTO) *Result {
	return &Result{
		id:           dto.ID,
		assessmentID: dto.AssessmentID,
		userID:       dto.UserID,
		score:        dto.Score,
		attemptDate:  dto.AttemptDate,
		version:      dto.Version,
	}
}

// Revise replaces the score and attempt timestamp.
// Version is not touched here; the repository bumps it after a guarded write.
func (r *Result) Revise(score int, attemptDate time.Time) error {
	if score < 0 {
		return NewInvalidScoreError("score cannot be negative")
	}
	r.score = score
	r.attemptDate = attemptDate.UTC()
	return nil
}

// CheckMaxScore enforces score <= maxScore.
func (r *Result) CheckMaxScore(maxScore int) error {
	if r.score > maxScore {
		return NewInvalidScoreError(fmt.Sprintf("score %d exceeds max score %d", r.score, maxScore))
	}
	return nil
}

// IncrementVersionForSave is called by the repository after a successful update.
func (r *Result) IncrementVersionForSave() { r.version++ }

func (r *Result) ID() string             { return r.id }
func (r *Result) AssessmentID() string   { return r.assessmentID }
func (r *Result) UserID() string         { return r.userID }
func (r *Result) Score() int             { return r.score }
func (r *Result) AttemptDate() time.Time { return r.attemptDate }
func (r *Result) Version() int           { return r.version }

var _ shared.Versioned = (*Result)(nil)
