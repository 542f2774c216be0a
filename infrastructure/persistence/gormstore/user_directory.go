package gormstore

import (
	"context"
	"errors"

	"edusync/domain/user"
	"edusync/infrastructure/persistence"
	"edusync/infrastructure/persistence/gormstore/po"

	"gorm.io/gorm"
)

// UserDirectory read-only lookup over the users table.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (r *UserDirectory) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *UserDirectory) FindByID(ctx context.Context, id string) (*user.User, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var userPO po.UserPO
	result := r.getDB(ctx).First(&userPO, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, user.NewUserNotFoundError(id)
		}
		return nil, result.Error
	}

	return userPO.ToDomain(), nil
}

// Register inserts a user row; used by seeding and tests, accounts are
// otherwise provisioned by the identity system.
func (r *UserDirectory) Register(ctx context.Context, u *user.User) error {
	return r.getDB(ctx).Create(&po.UserPO{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}).Error
}

var _ user.Directory = (*UserDirectory)(nil)
