package model

// UserRole 用户-角色关联，注册时默认挂 USER 角色
type UserRole struct {
	UserID uint64 `gorm:"primaryKey" json:"user_id"`
	RoleID uint64 `gorm:"primaryKey;index:idx_role_id" json:"role_id"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
