/*
Package user 用户目录（只读）。

用户由外部身份系统维护，本服务只读取提交者是否存在以及其邮箱。
*/
package user

import (
	"context"

	"edusync/domain/shared"
)

// User read model of an account
type User struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// Directory user lookup gateway
type Directory interface {
	FindByID(ctx context.Context, id string) (*User, error)
}

func NewUserNotFoundError(userID string) error {
	return shared.NewNotFoundError("user", userID)
}
