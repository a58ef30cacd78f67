package model

// RoleNameAdmin 管理端路由按此角色名鉴权
const RoleNameAdmin = "ADMIN"

// Role 角色表，初始数据由建库脚本写入：1=USER 2=ADMIN
type Role struct {
	ID          uint64  `gorm:"primaryKey"`
	Name        string  `gorm:"type:varchar(50);uniqueIndex:idx_role_name;not null"`
	Description *string `gorm:"type:varchar(255)"`
}

func (Role) TableName() string {
	return "roles"
}
