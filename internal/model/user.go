package model

import (
	"time"
)

type User struct {
	ID        uint64  `gorm:"primaryKey"`
	Username  *string `gorm:"type:varchar(50);uniqueIndex:idx_username"`
	Email     *string `gorm:"type:varchar(100);uniqueIndex:idx_email"`
	Password  *string `gorm:"type:varchar(255)"`
	Nickname  string  `gorm:"type:varchar(50)"`
	Avatar    string  `gorm:"type:varchar(255)"`
	Balance   float64 `gorm:"type:decimal(20,6);not null;default:0"` // 可消费积分余额
	IsBan     bool    `gorm:"type:tinyint(1);default:0"`
	IsDelete  bool    `gorm:"type:tinyint(1);default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UserRoles []UserRole `gorm:"foreignKey:UserID;references:ID"`
}

func (User) TableName() string {
	return "users"
}
