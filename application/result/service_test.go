package result

import (
	"context"
	"errors"
	"testing"
	"time"

	"edusync/application/lifecycle"
	"edusync/domain/course"
	"edusync/domain/identity"
	"edusync/domain/result"
	"edusync/domain/shared"
	"edusync/domain/user"
	"edusync/infrastructure/persistence/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	instructorID = "0190c7a0-0000-7000-8000-000000000001"
	studentID    = "0190c7a0-0000-7000-8000-000000000003"
	otherID      = "0190c7a0-0000-7000-8000-000000000004"
)

var (
	instructor = identity.Identity{UserID: instructorID, Role: identity.RoleInstructor}
	student    = identity.Identity{UserID: studentID, Role: identity.RoleStudent}
	other      = identity.Identity{UserID: otherID, Role: identity.RoleStudent}
	fixedNow   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func intPtr(v int) *int { return &v }

func newService(t *testing.T) (*ApplicationService, *mocks.Store, *mocks.RecordingPublisher) {
	t.Helper()
	store := mocks.NewStore()
	store.AddUser(&user.User{ID: studentID, Name: "Sam", Email: "sam@example.com", Role: "Student"})
	store.AddUser(&user.User{ID: otherID, Name: "Kim", Email: "kim@example.com", Role: "Student"})
	store.Seed(course.RebuildFromDTO(course.ReconstructionDTO{
		ID: "c1", Title: "Algorithms", InstructorID: instructorID,
		Assessments: []course.AssessmentDTO{{ID: "a1", CourseID: "c1", Title: "Quiz 1", MaxScore: 10}},
	}), result.RebuildFromDTO(result.ReconstructionDTO{ID: "r1", AssessmentID: "a1", UserID: studentID, Score: 6, AttemptDate: fixedNow}))

	events := mocks.NewRecordingPublisher()
	coord, err := lifecycle.NewCoordinator(lifecycle.Dependencies{
		UnitOfWork:  mocks.NewUnitOfWork(store),
		Courses:     store.Courses(),
		Assessments: store.Assessments(),
		Results:     store.Results(),
		Users:       store.Users(),
		Blobs:       mocks.NewRecordingBlobStore(),
		Events:      events,
	}, lifecycle.Options{})
	require.NoError(t, err)

	svc := NewApplicationService(coord, store.Results(), store.Assessments(), store.Users())
	svc.clock = func() time.Time { return fixedNow }
	return svc, store, events
}

func TestGetResultVisibility(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	got, err := svc.GetResult(ctx, "r1", student)
	require.NoError(t, err)
	assert.Equal(t, "Quiz 1", got.AssessmentTitle)
	assert.Equal(t, 10, got.MaxScore)
	assert.Equal(t, "Sam", got.UserName)

	_, err = svc.GetResult(ctx, "r1", instructor)
	assert.NoError(t, err)

	_, err = svc.GetResult(ctx, "r1", other)
	assert.True(t, errors.Is(err, shared.ErrForbidden))

	_, err = svc.GetResult(ctx, "missing", instructor)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestListResultsIsInstructorOnly(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	got, err := svc.ListResults(ctx, instructor)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "Quiz 1", got[0].AssessmentTitle)
	assert.Equal(t, 10, got[0].MaxScore)
	assert.Equal(t, "Sam", got[0].UserName)

	_, err = svc.ListResults(ctx, student)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
}

func TestSubmitResultDefaultsAttemptDate(t *testing.T) {
	svc, _, events := newService(t)

	out, err := svc.SubmitResult(context.Background(), SubmitResultRequest{
		AssessmentID: "a1", UserID: studentID, Score: intPtr(0),
	}, student)
	require.NoError(t, err)
	assert.Nil(t, out.SideEffect)
	assert.Equal(t, 0, out.Result.Score)
	assert.True(t, out.Result.AttemptDate.Equal(fixedNow))
	assert.Equal(t, "Sam", out.Result.UserName)
	assert.Len(t, events.Events(), 1)
}

func TestSubmitResultRequiresScore(t *testing.T) {
	svc, store, _ := newService(t)

	_, err := svc.SubmitResult(context.Background(), SubmitResultRequest{AssessmentID: "a1", UserID: studentID}, student)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	assert.Zero(t, store.Writes())
}

func TestUpdateAndDeleteReportSideEffects(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()
	events.Err = errors.New("hub down")

	out, err := svc.UpdateResult(ctx, "r1", UpdateResultRequest{Score: intPtr(8)}, instructor)
	require.NoError(t, err)
	assert.Equal(t, 8, out.Result.Score)
	require.NotNil(t, out.SideEffect)
	assert.False(t, out.SideEffect.Deferred, "no ledger configured")

	out, err = svc.DeleteResult(ctx, "r1", instructor)
	require.NoError(t, err)
	assert.Nil(t, out.Result)
	require.NotNil(t, out.SideEffect)
	assert.Equal(t, "ResultDeleted", out.SideEffect.Target)
}
