package course

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Assessment entity owned by a Course
type Assessment struct {
	id       string
	courseID string
	title    string
	maxScore int
}

// AssessmentDTO is for repository use only.
type AssessmentDTO struct {
	ID       string
	CourseID string
	Title    string
	MaxScore int
}

// NewAssessment creates an assessment under courseID.
func NewAssessment(courseID, title string, maxScore int) (*Assessment, error) {
	if courseID == "" {
		return nil, NewInvalidAssessmentError("course_id", "course id is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewInvalidAssessmentError("title", "assessment title cannot be empty")
	}
	if maxScore <= 0 {
		return nil, NewInvalidAssessmentError("max_score", "max score must be positive")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate assessment ID: %w", err)
	}
	return &Assessment{id: id.String(), courseID: courseID, title: title, maxScore: maxScore}, nil
}

func RebuildAssessment(dto AssessmentDTO) *Assessment {
	return &Assessment{id: dto.ID, courseID: dto.CourseID, title: dto.Title, maxScore: dto.MaxScore}
}

func (a *Assessment) ID() string       { return a.id }
func (a *Assessment) CourseID() string { return a.courseID }
func (a *Assessment) Title() string    { return a.title }
func (a *Assessment) MaxScore() int    { return a.maxScore }
