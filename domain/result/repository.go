package result

import "context"

// Repository result storage gateway.
// Calls made with a ctx produced by UnitOfWork.Execute join its transaction.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Result, error)

	// List returns every result ordered by id.
	List(ctx context.Context) ([]*Result, error)

	// FindByAssessmentIDs loads every result of the given assessments.
	FindByAssessmentIDs(ctx context.Context, assessmentIDs []string) ([]*Result, error)

	Add(ctx context.Context, r *Result) error

	// Update writes score and attempt date guarded by r.Version().
	// A stale version returns a shared.ErrConflict error.
	Update(ctx context.Context, r *Result) error

	Remove(ctx context.Context, id string) error

	// RemoveMany deletes the given ids; missing ids are ignored.
	RemoveMany(ctx context.Context, ids []string) (int64, error)

	// RemoveByAssessmentIDs deletes every result of the given assessments.
	RemoveByAssessmentIDs(ctx context.Context, assessmentIDs []string) (int64, error)

	Exists(ctx context.Context, id string) (bool, error)
}
