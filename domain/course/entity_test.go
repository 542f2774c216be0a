package course

import (
	"errors"
	"testing"

	"edusync/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCourse(t *testing.T) {
	c, err := NewCourse(PostOptions{Title: "  Go 101 ", InstructorID: "inst-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID())
	assert.Equal(t, "Go 101", c.Title())
	assert.Equal(t, 0, c.Version())

	_, err = NewCourse(PostOptions{Title: " ", InstructorID: "inst-1"})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = NewCourse(PostOptions{Title: "x"})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestAssertOwnedBy(t *testing.T) {
	c := RebuildFromDTO(ReconstructionDTO{ID: "c1", Title: "Algorithms", InstructorID: "inst-1"})

	require.NoError(t, c.AssertOwnedBy("inst-1"))

	err := c.AssertOwnedBy("inst-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	assert.Equal(t, map[string]string{
		"course_instructor_id": "inst-1",
		"caller_id":            "inst-2",
		"course_title":         "Algorithms",
	}, shared.DetailsOf(err))
}

func TestUpdateKeepsInstructor(t *testing.T) {
	c := RebuildFromDTO(ReconstructionDTO{ID: "c1", Title: "Old", InstructorID: "inst-1", Version: 3})
	require.NoError(t, c.Update(UpdateOptions{Title: "New", MediaURL: "https://x/y.mp4"}))
	assert.Equal(t, "New", c.Title())
	assert.Equal(t, "inst-1", c.InstructorID())
	assert.Equal(t, 3, c.Version())

	assert.Error(t, c.Update(UpdateOptions{Title: ""}))
}

func TestNewAssessment(t *testing.T) {
	a, err := NewAssessment("c1", "Quiz", 10)
	require.NoError(t, err)
	assert.Equal(t, "c1", a.CourseID())
	assert.Equal(t, 10, a.MaxScore())

	_, err = NewAssessment("c1", "Quiz", 0)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	_, err = NewAssessment("", "Quiz", 5)
	assert.Error(t, err)
}

func TestCascadeIDs(t *testing.T) {
	c := RebuildFromDTO(ReconstructionDTO{
		ID: "c1",
		Assessments: []AssessmentDTO{
			{ID: "a1", CourseID: "c1"},
			{ID: "a2", CourseID: "c1"},
		},
	})
	cs := &Cascade{Course: c}
	assert.Equal(t, []string{"a1", "a2"}, cs.AssessmentIDs())
	assert.Empty(t, cs.ResultIDs())
}
