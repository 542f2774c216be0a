package po

import (
	"time"

	"edusync/domain/user"
)

// UserPO users 表，账号由外部系统写入，本服务只读
type UserPO struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:100;not null"`
	Email     string    `gorm:"size:255;uniqueIndex;not null"`
	Role      string    `gorm:"size:20;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Results []ResultPO `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
}

func (UserPO) TableName() string {
	return "users"
}

func (p *UserPO) ToDomain() *user.User {
	return &user.User{
		ID:    p.ID,
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
	}
}
