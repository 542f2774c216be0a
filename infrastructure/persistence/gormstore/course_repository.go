package gormstore

import (
	"context"
	"errors"

	"edusync/domain/course"
	"edusync/infrastructure/persistence"
	"edusync/infrastructure/persistence/gormstore/po"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CourseRepository GORM implementation of course.Repository
// Associations are only read (Preload); writes always omit them.
type CourseRepository struct {
	db *gorm.DB
}

// NewCourseRepository Create course repository
func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// getDB returns the transaction from context if available, otherwise the default db
func (r *CourseRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*course.Course, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var coursePO po.CoursePO
	err := r.getDB(ctx).Preload("Assessments", func(db *gorm.DB) *gorm.DB {
		return db.Order("assessments.id ASC")
	}).First(&coursePO, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, course.NewCourseNotFoundError(id)
		}
		return nil, err
	}
	return coursePO.ToDomain(), nil
}

func (r *CourseRepository) List(ctx context.Context) ([]*course.Course, error) {
	var coursePOs []po.CoursePO
	if err := r.getDB(ctx).Order("created_at DESC").Find(&coursePOs).Error; err != nil {
		return nil, err
	}
	courses := make([]*course.Course, len(coursePOs))
	for i := range coursePOs {
		courses[i] = coursePOs[i].ToDomain()
	}
	return courses, nil
}

// LoadCascade preloads course -> assessments -> results in one pass.
func (r *CourseRepository) LoadCascade(ctx context.Context, id string) (*course.Cascade, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var coursePO po.CoursePO
	err := r.getDB(ctx).
		Preload("Assessments", func(db *gorm.DB) *gorm.DB { return db.Order("assessments.id ASC") }).
		Preload("Assessments.Results").
		First(&coursePO, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, course.NewCourseNotFoundError(id)
		}
		return nil, err
	}

	cascade := &course.Cascade{Course: coursePO.ToDomain()}
	for _, a := range coursePO.Assessments {
		for i := range a.Results {
			cascade.Results = append(cascade.Results, a.Results[i].ToDomain())
		}
	}
	return cascade, nil
}

func (r *CourseRepository) Add(ctx context.Context, c *course.Course) error {
	return r.getDB(ctx).Omit(clause.Associations).Create(po.FromCourseDomain(c)).Error
}

// Update 严格乐观锁：以聚合当前版本作为更新条件
func (r *CourseRepository) Update(ctx context.Context, c *course.Course) error {
	ok, err := updateVersioned(r.getDB(ctx), &po.CoursePO{}, c, map[string]interface{}{
		"title":       c.Title(),
		"description": c.Description(),
		"media_url":   c.MediaURL(),
		"updated_at":  c.UpdatedAt(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return r.staleOrMissing(ctx, c.ID())
	}
	return nil
}

func (r *CourseRepository) Remove(ctx context.Context, id string, expectedVersion int) error {
	res := r.getDB(ctx).
		Where("id = ? AND version = ?", id, expectedVersion).
		Delete(&po.CoursePO{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.staleOrMissing(ctx, id)
	}
	return nil
}

func (r *CourseRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.getDB(ctx).Model(&po.CoursePO{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CourseRepository) staleOrMissing(ctx context.Context, id string) error {
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return course.NewCourseNotFoundError(id)
	}
	return course.NewConcurrentModificationError(id)
}

var _ course.Repository = (*CourseRepository)(nil)
