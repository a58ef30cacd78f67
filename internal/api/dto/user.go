package dto

import "time"

// UserDTO 用户信息
type UserDTO struct {
	UserID    *uint64    `json:"user_id,omitempty"`
	Username  *string    `json:"username,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Nickname  *string    `json:"nickname,omitempty" validate:"omitempty,max=50"`
	Avatar    *string    `json:"avatar,omitempty"`
	Balance   *float64   `json:"balance,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// RegisterDTO 注册
type RegisterDTO struct {
	Username *string `json:"username" validate:"required,min=3,max=50"`
	Password *string `json:"password" validate:"required,min=8,max=64"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Nickname string  `json:"nickname" validate:"required,min=1,max=15"`
}

// CredentialDTO 登录凭据
type CredentialDTO struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// ChangePasswordDTO 修改密码
type ChangePasswordDTO struct {
	OldPassword *string `json:"old_password" validate:"required"`
	NewPassword *string `json:"new_password" validate:"required,min=8,max=64"`
}
