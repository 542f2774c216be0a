package lifecycle

import (
	"context"
	"errors"
	"time"

	"edusync/domain/course"
	"edusync/domain/identity"
	"edusync/domain/result"
	"edusync/domain/shared"

	"go.uber.org/zap"
)

// MutationKind result mutation kind
type MutationKind string

const (
	MutationCreate MutationKind = "Create"
	MutationUpdate MutationKind = "Update"
	MutationDelete MutationKind = "Delete"
)

// ResultPayload carries the fields each kind needs:
// Create uses AssessmentID, UserID, Score, AttemptDate;
// Update uses ResultID, Score, AttemptDate; Delete uses ResultID.
type ResultPayload struct {
	ResultID     string
	AssessmentID string
	UserID       string
	Score        int
	AttemptDate  time.Time
}

// MutateResult dispatches to CreateResult, UpdateResult or DeleteResult.
// A non-nil SideEffectReport accompanies a successful mutation whose event
// could not be delivered.
func (c *Coordinator) MutateResult(ctx context.Context, kind MutationKind, p ResultPayload, caller identity.Identity) (*result.Result, *SideEffectReport, error) {
	switch kind {
	case MutationCreate:
		return c.CreateResult(ctx, p, caller)
	case MutationUpdate:
		return c.UpdateResult(ctx, p.ResultID, p.Score, p.AttemptDate, caller)
	case MutationDelete:
		return c.DeleteResult(ctx, p.ResultID, caller)
	default:
		return nil, nil, shared.NewValidationError("result", "kind", "unknown mutation kind: "+string(kind))
	}
}

// CreateResult records a student's own submission, then publishes ResultCreated.
//
// Requested -> Validated -> Persisted -> EventAttempted -> Done
func (c *Coordinator) CreateResult(ctx context.Context, p ResultPayload, caller identity.Identity) (*result.Result, *SideEffectReport, error) {
	log := opLogger(ctx, "create_result",
		zap.String("assessment_id", p.AssessmentID),
		zap.String("caller_id", caller.UserID))
	transition(log, "Requested")

	if err := caller.Require(identity.RoleStudent); err != nil {
		return nil, nil, err
	}
	if p.UserID != caller.UserID {
		return nil, nil, result.NewNotSelfSubmissionError()
	}
	created, err := result.NewResult(p.AssessmentID, p.UserID, p.Score, p.AttemptDate)
	if err != nil {
		return nil, nil, err
	}

	var assessmentTitle, userEmail string
	err = c.uow.Execute(ctx, func(txCtx context.Context) error {
		a, err := c.assessments.FindByID(txCtx, p.AssessmentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return result.NewInvalidAssessmentError(p.AssessmentID)
			}
			return err
		}
		if err := created.CheckMaxScore(a.MaxScore()); err != nil {
			return err
		}
		u, err := c.users.FindByID(txCtx, p.UserID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return result.NewUnknownSubmitterError(p.UserID)
			}
			return err
		}
		transition(log, "Validated")

		assessmentTitle, userEmail = a.Title(), u.Email
		return c.results.Add(txCtx, created)
	})
	c.observer.RecordTransaction("create_result", err)
	if err != nil {
		return nil, nil, surface("result", err)
	}
	transition(log, "Persisted", zap.String("result_id", created.ID()))

	report := c.publish(ctx, log, func(at time.Time) *result.ChangeEvent {
		return result.NewCreatedEvent(created, assessmentTitle, userEmail, at)
	})
	transition(log, "Done")
	return created, report, nil
}

// UpdateResult revises score and attempt date under an optimistic version
// check, then publishes ResultUpdated.
func (c *Coordinator) UpdateResult(ctx context.Context, resultID string, score int, attemptDate time.Time, caller identity.Identity) (*result.Result, *SideEffectReport, error) {
	log := opLogger(ctx, "update_result", zap.String("result_id", resultID), zap.String("caller_id", caller.UserID))
	transition(log, "Requested")

	if err := caller.Require(identity.RoleInstructor); err != nil {
		return nil, nil, err
	}

	var updated *result.Result
	err := c.uow.Execute(ctx, func(txCtx context.Context) error {
		r, err := c.results.FindByID(txCtx, resultID)
		if err != nil {
			return err
		}
		a, err := c.assessments.FindByID(txCtx, r.AssessmentID())
		if err != nil {
			return err
		}
		if err := c.checkCourseOwner(txCtx, a, caller); err != nil {
			return err
		}
		if err := r.Revise(score, attemptDate); err != nil {
			return err
		}
		if err := r.CheckMaxScore(a.MaxScore()); err != nil {
			return err
		}
		transition(log, "Validated")

		if err := c.results.Update(txCtx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	c.observer.RecordTransaction("update_result", err)
	if err != nil {
		if errors.Is(err, shared.ErrConflict) {
			return nil, nil, c.resolveConflict(ctx, resultID, err)
		}
		return nil, nil, surface("result", err)
	}
	transition(log, "Persisted", zap.Int("version", updated.Version()))

	report := c.publish(ctx, log, func(at time.Time) *result.ChangeEvent {
		return result.NewUpdatedEvent(updated, at)
	})
	transition(log, "Done")
	return updated, report, nil
}

// DeleteResult removes one result, then publishes ResultDeleted.
func (c *Coordinator) DeleteResult(ctx context.Context, resultID string, caller identity.Identity) (*result.Result, *SideEffectReport, error) {
	log := opLogger(ctx, "delete_result", zap.String("result_id", resultID), zap.String("caller_id", caller.UserID))
	transition(log, "Requested")

	if err := caller.Require(identity.RoleInstructor); err != nil {
		return nil, nil, err
	}

	var removed *result.Result
	err := c.uow.Execute(ctx, func(txCtx context.Context) error {
		r, err := c.results.FindByID(txCtx, resultID)
		if err != nil {
			return err
		}
		if c.opts.ScopeResultsToCourseOwner {
			a, err := c.assessments.FindByID(txCtx, r.AssessmentID())
			if err != nil {
				return err
			}
			if err := c.checkCourseOwner(txCtx, a, caller); err != nil {
				return err
			}
		}
		transition(log, "Validated")

		if err := c.results.Remove(txCtx, resultID); err != nil {
			return err
		}
		removed = r
		return nil
	})
	c.observer.RecordTransaction("delete_result", err)
	if err != nil {
		return nil, nil, surface("result", err)
	}
	transition(log, "Persisted")

	report := c.publish(ctx, log, func(at time.Time) *result.ChangeEvent {
		return result.NewDeletedEvent(resultID, at)
	})
	transition(log, "Done")
	return removed, report, nil
}

func (c *Coordinator) checkCourseOwner(ctx context.Context, a *course.Assessment, caller identity.Identity) error {
	if !c.opts.ScopeResultsToCourseOwner {
		return nil
	}
	crs, err := c.courses.FindByID(ctx, a.CourseID())
	if err != nil {
		return err
	}
	return crs.AssertOwnedBy(caller.UserID)
}

// resolveConflict re-checks existence outside the rolled-back transaction:
// a vanished row is NotFound, a surviving one is a real concurrency conflict.
func (c *Coordinator) resolveConflict(ctx context.Context, resultID string, cause error) error {
	ok, err := c.results.Exists(ctx, resultID)
	if err != nil {
		return surface("result", err)
	}
	if !ok {
		return result.NewResultNotFoundError(resultID)
	}
	return cause
}

// publish runs strictly after a committed transaction. The event timestamp is
// taken here, in UTC.
func (c *Coordinator) publish(ctx context.Context, log *zap.Logger, build func(at time.Time) *result.ChangeEvent) *SideEffectReport {
	event := build(c.opts.Clock().UTC())
	log = log.With(zap.String("event_type", event.EventName()), zap.String("result_id", event.ResultID))

	start := time.Now()
	payload, err := event.Marshal()
	if err == nil {
		pctx, cancel := withTimeout(ctx, c.opts.PublishTimeout)
		err = c.events.Publish(pctx, event.EventName(), payload)
		cancel()
	}
	c.observer.RecordSideEffect(SideEffectEventPublish, time.Since(start), err)
	transition(log, "EventAttempted", zap.Bool("delivered", err == nil))
	if err == nil {
		return nil
	}

	report := &SideEffectReport{Kind: SideEffectEventPublish, Target: event.EventName(), Err: err}
	log.Warn("Result change event not delivered", zap.Error(err))

	if c.undelivered != nil {
		// 请求可能已结束，落库不跟随请求取消，但有自己的期限
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.LedgerTimeout)
		serr := c.undelivered.SaveEvent(lctx, event)
		cancel()
		if serr != nil {
			log.Error("Failed to record undelivered event", zap.Error(serr))
		} else {
			report.Deferred = true
		}
	}
	return report
}
