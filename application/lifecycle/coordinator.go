/*
Package lifecycle Entity lifecycle coordinator.

Responsibilities:
 1. Delete a course together with its assessments and results in one transaction,
    cleaning up the course media blob on a best-effort basis
 2. Create, update and delete results, publishing exactly one change event
    per committed mutation, strictly after commit

Side effects (blob delete, event publish) never decide the outcome of an
operation. Their failures are logged, counted, and reported to the caller as a
SideEffectReport instead of an error.
*/
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edusync/domain/course"
	"edusync/domain/result"
	"edusync/domain/shared"
	"edusync/domain/user"
	"edusync/pkg/logger"

	"go.uber.org/zap"
)

// Default per-call timeouts for the external gateways.
const (
	DefaultBlobTimeout    = 10 * time.Second
	DefaultPublishTimeout = 5 * time.Second
	DefaultLedgerTimeout  = 5 * time.Second
)

// Dependencies storage and side-effect gateways used by the coordinator.
// Undelivered and Observer are optional.
type Dependencies struct {
	UnitOfWork  shared.UnitOfWork
	Courses     course.Repository
	Assessments course.AssessmentRepository
	Results     result.Repository
	Users       user.Directory
	Blobs       shared.BlobStore
	Events      shared.EventPublisher

	// Undelivered receives events whose publish failed after commit.
	Undelivered shared.OutboxRepository
	Observer    Observer
}

// Options tuning knobs
type Options struct {
	BlobTimeout    time.Duration
	PublishTimeout time.Duration
	// LedgerTimeout bounds the undelivered-event write after a failed publish.
	LedgerTimeout time.Duration

	// ScopeResultsToCourseOwner restricts result update/delete to the
	// instructor owning the result's course.
	ScopeResultsToCourseOwner bool

	// Clock supplies event timestamps; defaults to time.Now.
	Clock func() time.Time
}

// Coordinator Entity lifecycle coordinator
// Holds no mutable state; safe for concurrent use.
type Coordinator struct {
	uow         shared.UnitOfWork
	courses     course.Repository
	assessments course.AssessmentRepository
	results     result.Repository
	users       user.Directory
	blobs       shared.BlobStore
	events      shared.EventPublisher
	undelivered shared.OutboxRepository
	observer    Observer
	opts        Options
}

// NewCoordinator validates deps and applies option defaults.
func NewCoordinator(deps Dependencies, opts Options) (*Coordinator, error) {
	switch {
	case deps.UnitOfWork == nil:
		return nil, fmt.Errorf("unit of work is required")
	case deps.Courses == nil || deps.Assessments == nil || deps.Results == nil:
		return nil, fmt.Errorf("course, assessment and result repositories are required")
	case deps.Users == nil:
		return nil, fmt.Errorf("user directory is required")
	case deps.Blobs == nil:
		return nil, fmt.Errorf("blob store is required")
	case deps.Events == nil:
		return nil, fmt.Errorf("event publisher is required")
	}

	if opts.BlobTimeout <= 0 {
		opts.BlobTimeout = DefaultBlobTimeout
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	if opts.LedgerTimeout <= 0 {
		opts.LedgerTimeout = DefaultLedgerTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	observer := deps.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	return &Coordinator{
		uow:         deps.UnitOfWork,
		courses:     deps.Courses,
		assessments: deps.Assessments,
		results:     deps.Results,
		users:       deps.Users,
		blobs:       deps.Blobs,
		events:      deps.Events,
		undelivered: deps.Undelivered,
		observer:    observer,
		opts:        opts,
	}, nil
}

// ============================================================================
// Side effect reporting
// ============================================================================

// SideEffectKind names an external call made outside the transaction.
type SideEffectKind string

const (
	SideEffectBlobCleanup  SideEffectKind = "blob_cleanup"
	SideEffectEventPublish SideEffectKind = "event_publish"
)

// SideEffectReport describes a failed side effect of a successful operation.
type SideEffectReport struct {
	Kind   SideEffectKind
	Target string // artifact name or event type
	Err    error

	// Deferred is true when the event was recorded for later redelivery.
	Deferred bool
}

func (r *SideEffectReport) String() string {
	if r == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s %s failed: %v (deferred=%t)", r.Kind, r.Target, r.Err, r.Deferred)
}

// ============================================================================
// helpers
// ============================================================================

// surface keeps the class of domain errors raised inside a transaction and
// wraps everything else as a transaction failure.
func surface(entity string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		shared.ErrNotFound,
		shared.ErrForbidden,
		shared.ErrInvalidInput,
		shared.ErrConflict,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return shared.NewTransactionError(entity, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func transition(log *zap.Logger, state string, fields ...zap.Field) {
	log.Debug("lifecycle transition", append([]zap.Field{zap.String("state", state)}, fields...)...)
}

func opLogger(ctx context.Context, op string, fields ...zap.Field) *zap.Logger {
	return logger.FromContext(ctx).With(append([]zap.Field{zap.String("op", op)}, fields...)...)
}
