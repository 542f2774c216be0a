package lifecycle

import (
	"context"
	"errors"
	"time"

	"edusync/domain/course"
	"edusync/domain/identity"
	"edusync/domain/shared"

	"go.uber.org/zap"
)

// DeleteCourse removes the course, its assessments and their results as one
// atomic unit. The media blob is deleted first on a best-effort basis; its
// failure never aborts the deletion.
//
// Requested -> Authorized -> BlobCleanupAttempted -> TransactionOpen -> Committed|RolledBack -> Done
func (c *Coordinator) DeleteCourse(ctx context.Context, courseID string, caller identity.Identity) error {
	log := opLogger(ctx, "delete_course", zap.String("course_id", courseID), zap.String("caller_id", caller.UserID))
	transition(log, "Requested")

	if err := caller.Require(identity.RoleInstructor); err != nil {
		return err
	}

	cascade, err := c.courses.LoadCascade(ctx, courseID)
	if err != nil {
		return err
	}
	if err := cascade.Course.AssertOwnedBy(caller.UserID); err != nil {
		log.Info("Course delete rejected: caller is not the instructor",
			zap.String("course_instructor_id", cascade.Course.InstructorID()))
		return err
	}
	assessmentIDs := cascade.AssessmentIDs()
	transition(log, "Authorized",
		zap.Int("assessments", len(assessmentIDs)),
		zap.Int("results", len(cascade.Results)))

	c.cleanupMedia(ctx, cascade.Course, log)
	transition(log, "BlobCleanupAttempted")

	err = c.uow.Execute(ctx, func(txCtx context.Context) error {
		transition(log, "TransactionOpen")
		removed, err := c.results.RemoveByAssessmentIDs(txCtx, assessmentIDs)
		if err != nil {
			return err
		}
		if removed != int64(len(cascade.Results)) {
			log.Debug("Result count changed since cascade load",
				zap.Int("loaded", len(cascade.Results)),
				zap.Int64("removed", removed))
		}
		if _, err := c.assessments.RemoveMany(txCtx, assessmentIDs); err != nil {
			return err
		}
		return c.courses.Remove(txCtx, courseID, cascade.Course.Version())
	})
	c.observer.RecordTransaction("delete_course", err)
	if err != nil {
		transition(log, "RolledBack", zap.Error(err))
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return surface("course", err)
	}

	transition(log, "Committed")
	transition(log, "Done")
	return nil
}

// cleanupMedia deletes the course artifact. Every failure is swallowed.
func (c *Coordinator) cleanupMedia(ctx context.Context, crs *course.Course, log *zap.Logger) {
	mediaURL := crs.MediaURL()
	if mediaURL == "" {
		return
	}

	start := time.Now()
	name, err := course.ArtifactName(mediaURL)
	if err == nil {
		bctx, cancel := withTimeout(ctx, c.opts.BlobTimeout)
		err = c.blobs.Delete(bctx, name)
		cancel()
	}
	c.observer.RecordSideEffect(SideEffectBlobCleanup, time.Since(start), err)

	if err != nil {
		log.Warn("Course media cleanup failed, continuing with delete",
			zap.String("media_url", mediaURL),
			zap.String("artifact", name),
			zap.Error(err))
	}
}
