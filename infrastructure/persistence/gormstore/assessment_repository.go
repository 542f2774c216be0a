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

// AssessmentRepository GORM implementation of course.AssessmentRepository
type AssessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func (r *AssessmentRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*course.Assessment, error) {
	var assessmentPO po.AssessmentPO
	if err := r.getDB(ctx).First(&assessmentPO, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, course.NewAssessmentNotFoundError(id)
		}
		return nil, err
	}
	return assessmentPO.ToDomain(), nil
}

func (r *AssessmentRepository) FindByCourseID(ctx context.Context, courseID string) ([]*course.Assessment, error) {
	var assessmentPOs []po.AssessmentPO
	if err := r.getDB(ctx).Where("course_id = ?", courseID).Order("id ASC").Find(&assessmentPOs).Error; err != nil {
		return nil, err
	}
	out := make([]*course.Assessment, len(assessmentPOs))
	for i := range assessmentPOs {
		out[i] = assessmentPOs[i].ToDomain()
	}
	return out, nil
}

func (r *AssessmentRepository) Add(ctx context.Context, a *course.Assessment) error {
	return r.getDB(ctx).Omit(clause.Associations).Create(po.FromAssessmentDomain(a)).Error
}

func (r *AssessmentRepository) RemoveMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.getDB(ctx).Where("id IN ?", ids).Delete(&po.AssessmentPO{})
	return res.RowsAffected, res.Error
}

func (r *AssessmentRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.getDB(ctx).Model(&po.AssessmentPO{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ course.AssessmentRepository = (*AssessmentRepository)(nil)
