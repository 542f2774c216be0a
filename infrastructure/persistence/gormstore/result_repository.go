package gormstore

import (
	"context"
	"errors"

	"edusync/domain/result"
	"edusync/infrastructure/persistence"
	"edusync/infrastructure/persistence/gormstore/po"

	"gorm.io/gorm"
)

// ResultRepository GORM implementation of result.Repository
type ResultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *ResultRepository) FindByID(ctx context.Context, id string) (*result.Result, error) {
	var resultPO po.ResultPO
	if err := r.getDB(ctx).First(&resultPO, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, result.NewResultNotFoundError(id)
		}
		return nil, err
	}
	return resultPO.ToDomain(), nil
}

func (r *ResultRepository) List(ctx context.Context) ([]*result.Result, error) {
	var resultPOs []po.ResultPO
	if err := r.getDB(ctx).Order("id ASC").Find(&resultPOs).Error; err != nil {
		return nil, err
	}
	out := make([]*result.Result, len(resultPOs))
	for i := range resultPOs {
		out[i] = resultPOs[i].ToDomain()
	}
	return out, nil
}

func (r *ResultRepository) FindByAssessmentIDs(ctx context.Context, assessmentIDs []string) ([]*result.Result, error) {
	if len(assessmentIDs) == 0 {
		return nil, nil
	}
	var resultPOs []po.ResultPO
	if err := r.getDB(ctx).Where("assessment_id IN ?", assessmentIDs).Order("id ASC").Find(&resultPOs).Error; err != nil {
		return nil, err
	}
	out := make([]*result.Result, len(resultPOs))
	for i := range resultPOs {
		out[i] = resultPOs[i].ToDomain()
	}
	return out, nil
}

func (r *ResultRepository) Add(ctx context.Context, res *result.Result) error {
	return r.getDB(ctx).Create(po.FromResultDomain(res)).Error
}

func (r *ResultRepository) Update(ctx context.Context, res *result.Result) error {
	ok, err := updateVersioned(r.getDB(ctx), &po.ResultPO{}, res, map[string]interface{}{
		"score":        res.Score(),
		"attempt_date": res.AttemptDate(),
	})
	if err != nil {
		return err
	}
	if !ok {
		// 行已不存在或版本已变：统一报冲突，由调用方在事务外复查是否存在
		return result.NewConcurrentModificationError(res.ID())
	}
	return nil
}

func (r *ResultRepository) Remove(ctx context.Context, id string) error {
	tx := r.getDB(ctx).Where("id = ?", id).Delete(&po.ResultPO{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return result.NewResultNotFoundError(id)
	}
	return nil
}

func (r *ResultRepository) RemoveMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.getDB(ctx).Where("id IN ?", ids).Delete(&po.ResultPO{})
	return tx.RowsAffected, tx.Error
}

func (r *ResultRepository) RemoveByAssessmentIDs(ctx context.Context, assessmentIDs []string) (int64, error) {
	if len(assessmentIDs) == 0 {
		return 0, nil
	}
	tx := r.getDB(ctx).Where("assessment_id IN ?", assessmentIDs).Delete(&po.ResultPO{})
	return tx.RowsAffected, tx.Error
}

func (r *ResultRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.getDB(ctx).Model(&po.ResultPO{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ result.Repository = (*ResultRepository)(nil)
