package result

import (
	"encoding/json"
	"time"

	"edusync/domain/shared"
)

// EventType change event kind
type EventType string

const (
	EventResultCreated EventType = "ResultCreated"
	EventResultUpdated EventType = "ResultUpdated"
	EventResultDeleted EventType = "ResultDeleted"
)

// ChangeEvent is the flat record published once per committed Result mutation.
// Timestamp is set at publish time, in UTC.
type ChangeEvent struct {
	EventType       EventType  `json:"event_type"`
	ResultID        string     `json:"result_id"`
	AssessmentID    string     `json:"assessment_id,omitempty"`
	AssessmentTitle string     `json:"assessment_title,omitempty"`
	UserID          string     `json:"user_id,omitempty"`
	UserEmail       string     `json:"user_email,omitempty"`
	Score           *int       `json:"score,omitempty"`
	AttemptDate     *time.Time `json:"attempt_date,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
}

// NewCreatedEvent builds ResultCreated for a freshly committed result.
func NewCreatedEvent(r *Result, assessmentTitle, userEmail string, at time.Time) *ChangeEvent {
	score := r.Score()
	attempt := r.AttemptDate()
	return &ChangeEvent{
		EventType:       EventResultCreated,
		ResultID:        r.ID(),
		AssessmentID:    r.AssessmentID(),
		AssessmentTitle: assessmentTitle,
		UserID:          r.UserID(),
		UserEmail:       userEmail,
		Score:           &score,
		AttemptDate:     &attempt,
		Timestamp:       at.UTC(),
	}
}

// NewUpdatedEvent builds ResultUpdated with the revised score and attempt date.
func NewUpdatedEvent(r *Result, at time.Time) *ChangeEvent {
	score := r.Score()
	attempt := r.AttemptDate()
	return &ChangeEvent{
		EventType:   EventResultUpdated,
		ResultID:    r.ID(),
		Score:       &score,
		AttemptDate: &attempt,
		Timestamp:   at.UTC(),
	}
}

// NewDeletedEvent builds ResultDeleted carrying only the deleted id.
func NewDeletedEvent(resultID string, at time.Time) *ChangeEvent {
	return &ChangeEvent{
		EventType: EventResultDeleted,
		ResultID:  resultID,
		Timestamp: at.UTC(),
	}
}

// Marshal serializes the wire format.
func (e *ChangeEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func (e *ChangeEvent) EventName() string      { return string(e.EventType) }
func (e *ChangeEvent) OccurredOn() time.Time  { return e.Timestamp }
func (e *ChangeEvent) GetAggregateID() string { return e.ResultID }

var _ shared.DomainEvent = (*ChangeEvent)(nil)
