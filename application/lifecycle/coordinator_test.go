package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"edusync/domain/course"
	"edusync/domain/identity"
	"edusync/domain/result"
	"edusync/domain/shared"
	"edusync/domain/user"
	"edusync/infrastructure/persistence/mocks"
	"edusync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

const (
	instructorID = "0190c7a0-0000-7000-8000-000000000001"
	otherInstID  = "0190c7a0-0000-7000-8000-000000000002"
	studentID    = "0190c7a0-0000-7000-8000-000000000003"
	student2ID   = "0190c7a0-0000-7000-8000-000000000004"
)

var (
	instructor      = identity.Identity{UserID: instructorID, Role: identity.RoleInstructor}
	otherInstructor = identity.Identity{UserID: otherInstID, Role: identity.RoleInstructor}
	student         = identity.Identity{UserID: studentID, Role: identity.RoleStudent}

	fixedNow = time.Date(2024, 5, 6, 9, 30, 0, 0, time.FixedZone("UTC+8", 8*3600))
)

type fixture struct {
	store  *mocks.Store
	blobs  *mocks.RecordingBlobStore
	events *mocks.RecordingPublisher
	outbox *mocks.MemoryOutbox
	coord  *Coordinator
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T, configure ...func(*Dependencies, *Options)) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.Get()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })

	f := &fixture{
		store:  mocks.NewStore(),
		blobs:  mocks.NewRecordingBlobStore(),
		events: mocks.NewRecordingPublisher(),
		outbox: mocks.NewMemoryOutbox(),
		logs:   logs,
	}
	deps := Dependencies{
		UnitOfWork:  mocks.NewUnitOfWork(f.store),
		Courses:     f.store.Courses(),
		Assessments: f.store.Assessments(),
		Results:     f.store.Results(),
		Users:       f.store.Users(),
		Blobs:       f.blobs,
		Events:      f.events,
		Undelivered: f.outbox,
	}
	opts := Options{Clock: func() time.Time { return fixedNow }}
	for _, fn := range configure {
		fn(&deps, &opts)
	}

	coord, err := NewCoordinator(deps, opts)
	require.NoError(t, err)
	f.coord = coord

	f.store.AddUser(&user.User{ID: studentID, Name: "Sam", Email: "sam@example.com", Role: "Student"})
	f.store.AddUser(&user.User{ID: student2ID, Name: "Kim", Email: "kim@example.com", Role: "Student"})
	f.store.AddUser(&user.User{ID: instructorID, Name: "Ina", Email: "ina@example.com", Role: "Instructor"})
	return f
}

// seedCourse creates course c1 with assessments a1 (max 10) and a2 (max 20)
// and three results.
func (f *fixture) seedCourse(mediaURL string) {
	c := course.RebuildFromDTO(course.ReconstructionDTO{
		ID:           "c1",
		Title:        "Algorithms",
		InstructorID: instructorID,
		MediaURL:     mediaURL,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
		Assessments: []course.AssessmentDTO{
			{ID: "a1", CourseID: "c1", Title: "Quiz 1", MaxScore: 10},
			{ID: "a2", CourseID: "c1", Title: "Final", MaxScore: 20},
		},
	})
	attempt := fixedNow.Add(-time.Hour)
	f.store.Seed(c,
		result.RebuildFromDTO(result.ReconstructionDTO{ID: "r1", AssessmentID: "a1", UserID: studentID, Score: 7, AttemptDate: attempt}),
		result.RebuildFromDTO(result.ReconstructionDTO{ID: "r2", AssessmentID: "a1", UserID: student2ID, Score: 9, AttemptDate: attempt}),
		result.RebuildFromDTO(result.ReconstructionDTO{ID: "r3", AssessmentID: "a2", UserID: studentID, Score: 15, AttemptDate: attempt}),
	)
}

func (f *fixture) warnings() []observer.LoggedEntry {
	return f.logs.FilterLevelExact(zapcore.WarnLevel).All()
}

func decode(t *testing.T, payload []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(payload, &m))
	return m
}

// ============================================================================
// DeleteCourse
// ============================================================================

func TestDeleteCourseRemovesCascadeAndMedia(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("https://acct.blob.core.windows.net/course-media/intro%20video.mp4")

	err := f.coord.DeleteCourse(context.Background(), "c1", instructor)
	require.NoError(t, err)

	courses, assessments, results := f.store.Counts()
	assert.Zero(t, courses)
	assert.Zero(t, assessments)
	assert.Zero(t, results)
	assert.Equal(t, []string{"intro video.mp4"}, f.blobs.Deleted())
	assert.Equal(t, 1, f.store.Commits())
	assert.Empty(t, f.events.Events(), "course deletion publishes no result events")
}

func TestDeleteCourseWithoutMediaSkipsBlob(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")

	require.NoError(t, f.coord.DeleteCourse(context.Background(), "c1", instructor))
	assert.Empty(t, f.blobs.Deleted())
}

func TestDeleteCourseForbiddenForOtherInstructor(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("https://acct.blob.core.windows.net/course-media/intro.mp4")

	err := f.coord.DeleteCourse(context.Background(), "c1", otherInstructor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	assert.Equal(t, map[string]string{
		"course_instructor_id": instructorID,
		"caller_id":            otherInstID,
		"course_title":         "Algorithms",
	}, shared.DetailsOf(err))

	assert.Zero(t, f.store.Writes(), "no storage mutation on forbidden")
	assert.Empty(t, f.blobs.Deleted(), "no blob call on forbidden")
	courses, assessments, results := f.store.Counts()
	assert.Equal(t, []int{1, 2, 3}, []int{courses, assessments, results})
}

func TestDeleteCourseRequiresInstructorRole(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("https://acct.blob.core.windows.net/course-media/intro.mp4")

	err := f.coord.DeleteCourse(context.Background(), "c1", student)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	assert.Zero(t, f.store.Writes())
	assert.Empty(t, f.blobs.Deleted())
}

func TestDeleteCourseNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.coord.DeleteCourse(context.Background(), "missing", instructor)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.Empty(t, f.blobs.Deleted())
}

func TestDeleteCourseSucceedsWhenBlobDeleteFails(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("https://acct.blob.core.windows.net/course-media/intro.mp4")
	f.blobs.DeleteErr = errors.New("connection reset by peer")

	require.NoError(t, f.coord.DeleteCourse(context.Background(), "c1", instructor))

	courses, _, _ := f.store.Counts()
	assert.Zero(t, courses)
	assert.Equal(t, []string{"intro.mp4"}, f.blobs.Deleted())
	require.Len(t, f.warnings(), 1)
	assert.Equal(t, "intro.mp4", f.warnings()[0].ContextMap()["artifact"])
}

func TestDeleteCourseSucceedsWhenMediaURLUnparsable(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("not a url")

	require.NoError(t, f.coord.DeleteCourse(context.Background(), "c1", instructor))
	assert.Empty(t, f.blobs.Deleted())
	assert.Len(t, f.warnings(), 1)
}

func TestDeleteCourseRollsBackOnStorageFailure(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")
	f.store.FailOn("assessments.RemoveMany", mocks.ErrInjected)

	err := f.coord.DeleteCourse(context.Background(), "c1", instructor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrTransaction))
	assert.True(t, errors.Is(err, mocks.ErrInjected))

	courses, assessments, results := f.store.Counts()
	assert.Equal(t, []int{1, 2, 3}, []int{courses, assessments, results}, "results removed before the failure are restored")
	assert.Equal(t, 1, f.store.Rollbacks())
}

func TestDeleteCourseCommitFailureIsTransactionFailure(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")
	f.store.FailOn("uow.Commit", errors.New("disk I/O error"))

	err := f.coord.DeleteCourse(context.Background(), "c1", instructor)
	assert.True(t, errors.Is(err, shared.ErrTransaction))
	courses, _, _ := f.store.Counts()
	assert.Equal(t, 1, courses)
}

func TestConcurrentDeletesExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("https://acct.blob.core.windows.net/course-media/intro.mp4")

	const callers = 8
	var wins, notFound atomic.Int32
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			err := f.coord.DeleteCourse(context.Background(), "c1", instructor)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, shared.ErrNotFound):
				notFound.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(callers-1), notFound.Load())
	assert.Equal(t, 1, f.store.Commits())
}

// ============================================================================
// MutateResult: Create
// ============================================================================

func TestCreateResultPublishesAfterCommit(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")

	var commitsAtPublish int
	f.events.OnPublish = func(context.Context, string) { commitsAtPublish = f.store.Commits() }

	attempt := time.Date(2024, 5, 6, 1, 0, 0, 0, time.UTC)
	r, report, err := f.coord.MutateResult(context.Background(), MutationCreate, ResultPayload{
		AssessmentID: "a2",
		UserID:       studentID,
		Score:        18,
		AttemptDate:  attempt,
	}, student)
	require.NoError(t, err)
	assert.Nil(t, report)
	require.NotNil(t, r)

	assert.Equal(t, 1, commitsAtPublish, "publish happens after commit")
	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "ResultCreated", events[0].EventType)

	got := decode(t, events[0].Payload)
	assert.Equal(t, r.ID(), got["result_id"])
	assert.Equal(t, "a2", got["assessment_id"])
	assert.Equal(t, "Final", got["assessment_title"])
	assert.Equal(t, studentID, got["user_id"])
	assert.Equal(t, "sam@example.com", got["user_email"])
	assert.Equal(t, float64(18), got["score"])
	assert.Equal(t, "2024-05-06T01:00:00Z", got["attempt_date"])
	assert.Equal(t, "2024-05-06T01:30:00Z", got["timestamp"], "timestamp is the publish time in UTC")

	_, _, results := f.store.Counts()
	assert.Equal(t, 4, results)
}

func TestCreateResultRejectsSubmissionForAnotherStudent(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")

	_, _, err := f.coord.CreateResult(context.Background(), ResultPayload{
		AssessmentID: "a1", UserID: student2ID, Score: 5, AttemptDate: fixedNow,
	}, student)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	assert.Zero(t, f.store.Writes())
	assert.Empty(t, f.events.Events())
}

func TestCreateResultValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload ResultPayload
		caller  identity.Identity
		want    error
	}{
		{"unknown assessment", ResultPayload{AssessmentID: "nope", UserID: studentID, Score: 1}, student, shared.ErrInvalidInput},
		{"score above max", ResultPayload{AssessmentID: "a1", UserID: studentID, Score: 11}, student, shared.ErrInvalidInput},
		{"negative score", ResultPayload{AssessmentID: "a1", UserID: studentID, Score: -1}, student, shared.ErrInvalidInput},
		{"instructor cannot submit", ResultPayload{AssessmentID: "a1", UserID: instructorID, Score: 1}, instructor, shared.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seedCourse("")
			tt.payload.AttemptDate = fixedNow

			_, _, err := f.coord.CreateResult(context.Background(), tt.payload, tt.caller)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, f.events.Events())
			_, _, results := f.store.Counts()
			assert.Equal(t, 3, results)
		})
	}
}

func TestCreateResultUnknownSubmitter(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")
	ghost := identity.Identity{UserID: "0190c7a0-0000-7000-8000-0000000000ff", Role: identity.RoleStudent}

	_, _, err := f.coord.CreateResult(context.Background(), ResultPayload{
		AssessmentID: "a1", UserID: ghost.UserID, Score: 3, AttemptDate: fixedNow,
	}, ghost)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	assert.Empty(t, f.events.Events())
}

func TestCreateResultPublishFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")
	f.events.Err = errors.New("event hub unavailable")

	r, report, err := f.coord.CreateResult(context.Background(), ResultPayload{
		AssessmentID: "a1", UserID: studentID, Score: 4, AttemptDate: fixedNow,
	}, student)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.NotNil(t, report)
	assert.Equal(t, SideEffectEventPublish, report.Kind)
	assert.Equal(t, "ResultCreated", report.Target)
	assert.True(t, report.Deferred)

	saved := f.outbox.Events()
	require.Len(t, saved, 1)
	assert.Equal(t, r.ID(), saved[0].GetAggregateID())

	_, _, results := f.store.Counts()
	assert.Equal(t, 4, results, "the mutation stays committed")
	assert.Len(t, f.warnings(), 1)
}

func TestLedgerWriteOutlivesRequestButHasDeadline(t *testing.T) {
	f := newFixture(t, func(_ *Dependencies, o *Options) { o.LedgerTimeout = time.Minute })
	f.seedCourse("")

	ctx, cancel := context.WithCancel(context.Background())
	f.events.OnPublish = func(context.Context, string) { cancel() }
	f.events.Err = context.Canceled

	var ledgerErr error
	var deadline time.Time
	var hasDeadline bool
	f.outbox.OnSave = func(lctx context.Context) {
		ledgerErr = lctx.Err()
		deadline, hasDeadline = lctx.Deadline()
	}

	_, report, err := f.coord.DeleteResult(ctx, "r1", instructor)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, report.Deferred)
	assert.NoError(t, ledgerErr, "request cancellation must not reach the ledger write")
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
	assert.Len(t, f.outbox.Events(), 1)
}

func TestPublishFailureWithoutLedgerIsNotDeferred(t *testing.T) {
	f := newFixture(t, func(d *Dependencies, _ *Options) { d.Undelivered = nil })
	f.seedCourse("")
	f.events.Err = errors.New("timeout")

	_, report, err := f.coord.DeleteResult(context.Background(), "r1", instructor)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.False(t, report.Deferred)
}

func TestFailedTransactionPublishesNothing(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")
	f.store.FailOn("results.Add", mocks.ErrInjected)

	_, _, err := f.coord.CreateResult(context.Background(), ResultPayload{
		AssessmentID: "a1", UserID: studentID, Score: 4, AttemptDate: fixedNow,
	}, student)
	assert.True(t, errors.Is(err, shared.ErrTransaction))
	assert.Empty(t, f.events.Events())
}

// ============================================================================
// MutateResult: Update / Delete
// ============================================================================

func TestUpdateResultPublishesRevisedScore(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")

	attempt := time.Date(2024, 5, 5, 8, 0, 0, 0, time.UTC)
	r, report, err := f.coord.MutateResult(context.Background(), MutationUpdate, ResultPayload{
		ResultID: "r3", Score: 19, AttemptDate: attempt,
	}, instructor)
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Equal(t, 19, r.Score())
	assert.Equal(t, 1, r.Version())

	events := f.events.Events()
	require.Len(t, events, 1)
	got := decode(t, events[0].Payload)
	assert.Equal(t, "ResultUpdated", got["event_type"])
	assert.Equal(t, "r3", got["result_id"])
	assert.Equal(t, float64(19), got["score"])
	assert.Equal(t, "2024-05-05T08:00:00Z", got["attempt_date"])
	assert.NotContains(t, got, "user_email")
}

func TestUpdateResultNotFound(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")

	_, _, err := f.coord.UpdateResult(context.Background(), "missing", 1, fixedNow, instructor)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.Empty(t, f.events.Events())
}

func TestUpdateResultConflictIsFatal(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")
	f.store.FailOn("results.Update", result.NewConcurrentModificationError("r1"))

	_, _, err := f.coord.UpdateResult(context.Background(), "r1", 5, fixedNow, instructor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))
	assert.Empty(t, f.events.Events())
}

func TestUpdateResultRejectsStudent(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")

	_, _, err := f.coord.UpdateResult(context.Background(), "r1", 5, fixedNow, student)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	assert.Zero(t, f.store.Writes())
}

func TestDeleteResultPublishesDeleted(t *testing.T) {
	f := newFixture(t)
	f.seedCourse("")

	r, report, err := f.coord.MutateResult(context.Background(), MutationDelete, ResultPayload{ResultID: "r2"}, instructor)
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Equal(t, "r2", r.ID())

	events := f.events.Events()
	require.Len(t, events, 1)
	got := decode(t, events[0].Payload)
	assert.Equal(t, map[string]any{
		"event_type": "ResultDeleted",
		"result_id":  "r2",
		"timestamp":  "2024-05-06T01:30:00Z",
	}, got)

	_, _, results := f.store.Counts()
	assert.Equal(t, 2, results)
}

func TestDeleteResultNotFound(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.coord.DeleteResult(context.Background(), "missing", instructor)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.Empty(t, f.events.Events())
}

func TestScopeResultsToCourseOwner(t *testing.T) {
	f := newFixture(t, func(_ *Dependencies, o *Options) { o.ScopeResultsToCourseOwner = true })
	f.seedCourse("")

	_, _, err := f.coord.UpdateResult(context.Background(), "r1", 5, fixedNow, otherInstructor)
	assert.True(t, errors.Is(err, shared.ErrForbidden))

	_, _, err = f.coord.DeleteResult(context.Background(), "r1", otherInstructor)
	assert.True(t, errors.Is(err, shared.ErrForbidden))

	_, _, err = f.coord.UpdateResult(context.Background(), "r1", 5, fixedNow, instructor)
	assert.NoError(t, err)
	assert.Len(t, f.events.Events(), 1)
}

func TestMutateResultUnknownKind(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.coord.MutateResult(context.Background(), MutationKind("Upsert"), ResultPayload{}, instructor)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestNewCoordinatorRequiresGateways(t *testing.T) {
	_, err := NewCoordinator(Dependencies{}, Options{})
	assert.Error(t, err)
}
