/*
Package course Course subdomain.

Course is the aggregate root of the course catalogue. It owns its Assessments;
Results reference Assessments but are stored and mutated through the result
package. No foreign key cascades on delete, so removal order is decided by the
caller that holds the cascade set.
*/
package course

import (
	"fmt"
	"strings"
	"time"

	"edusync/domain/shared"

	"github.com/google/uuid"
)

// Course aggregate root
type Course struct {
	id           string
	title        string
	description  string
	instructorID string
	mediaURL     string
	version      int // Optimistic lock version number
	createdAt    time.Time
	updatedAt    time.Time

	assessments []*Assessment
}

// PostOptions create course options
type PostOptions struct {
	Title        string
	Description  string
	InstructorID string
	MediaURL     string
}

// NewCourse creates a course owned by opts.InstructorID.
func NewCourse(opts PostOptions) (*Course, error) {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		return nil, NewInvalidTitleError()
	}
	if opts.InstructorID == "" {
		return nil, NewMissingInstructorError()
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate course ID: %w", err)
	}

	now := time.Now().UTC()
	return &Course{
		id:           id.String(),
		title:        title,
		description:  opts.Description,
		instructorID: opts.InstructorID,
		mediaURL:     opts.MediaURL,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructionDTO is for repository use only.
type ReconstructionDTO struct {
	ID           string
	Title        string
	Description  string
	InstructorID string
	MediaURL     string
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Assessments  []AssessmentDTO
}

// RebuildFromDTO reconstructs the aggregate loaded from storage.
func RebuildFromDTO(dto ReconstructionDTO) *Course {
	c := &Course{
		id:           dto.ID,
		title:        dto.Title,
		description:  dto.Description,
		instructorID: dto.InstructorID,
		mediaURL:     dto.MediaURL,
		version:      dto.Version,
		createdAt:    dto.CreatedAt,
		updatedAt:    dto.UpdatedAt,
	}
	for _, a := range dto.Assessments {
		c.assessments = append(c.assessments, RebuildAssessment(a))
	}
	return c
}

// UpdateOptions editable course fields
type UpdateOptions struct {
	Title       string
	Description string
	MediaURL    string
}

// Update replaces the editable fields. The instructor never changes.
func (c *Course) Update(opts UpdateOptions) error {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		return NewInvalidTitleError()
	}
	c.title = title
	c.description = opts.Description
	c.mediaURL = opts.MediaURL
	c.updatedAt = time.Now().UTC()
	return nil
}

// AssertOwnedBy fails with Forbidden unless callerID is the course instructor.
func (c *Course) AssertOwnedBy(callerID string) error {
	if c.instructorID != callerID {
		return NewNotOwnerError(c, callerID)
	}
	return nil
}

// IncrementVersionForSave is called by the repository after a successful update.
func (c *Course) IncrementVersionForSave() { c.version++ }

func (c *Course) ID() string           { return c.id }
func (c *Course) Title() string        { return c.title }
func (c *Course) Description() string  { return c.description }
func (c *Course) InstructorID() string { return c.instructorID }
func (c *Course) MediaURL() string     { return c.mediaURL }
func (c *Course) Version() int         { return c.version }
func (c *Course) CreatedAt() time.Time { return c.createdAt }
func (c *Course) UpdatedAt() time.Time { return c.updatedAt }

// Assessments returns a copy of the loaded assessments.
func (c *Course) Assessments() []*Assessment {
	out := make([]*Assessment, len(c.assessments))
	copy(out, c.assessments)
	return out
}

var _ shared.Versioned = (*Course)(nil)
