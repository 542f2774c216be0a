package course

import "context"

// Repository course repository interface
// Calls made with a ctx produced by UnitOfWork.Execute join its transaction.
type Repository interface {
	// FindByID loads the course with its assessments.
	FindByID(ctx context.Context, id string) (*Course, error)

	// List returns all courses without assessments, newest first.
	List(ctx context.Context) ([]*Course, error)

	// LoadCascade materializes the course, its assessments and their results.
	LoadCascade(ctx context.Context, id string) (*Cascade, error)

	Add(ctx context.Context, c *Course) error

	// Update writes editable fields guarded by c.Version().
	Update(ctx context.Context, c *Course) error

	// Remove deletes the course row if its version still equals expectedVersion.
	// A missing row or a stale version is reported as NotFound / Conflict respectively.
	Remove(ctx context.Context, id string, expectedVersion int) error

	Exists(ctx context.Context, id string) (bool, error)
}

// AssessmentRepository assessment storage gateway
type AssessmentRepository interface {
	FindByID(ctx context.Context, id string) (*Assessment, error)
	FindByCourseID(ctx context.Context, courseID string) ([]*Assessment, error)
	Add(ctx context.Context, a *Assessment) error

	// RemoveMany deletes the given ids; missing ids are ignored.
	RemoveMany(ctx context.Context, ids []string) (int64, error)

	Exists(ctx context.Context, id string) (bool, error)
}
