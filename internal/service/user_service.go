package service

import (
	"AgentVendor/internal/api/dto"
	"AgentVendor/internal/model"
	"AgentVendor/internal/pkg/consts"
	"AgentVendor/internal/pkg/redis"
	"AgentVendor/internal/pkg/security"
	"AgentVendor/internal/repository"
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/copier"
)

type UserService interface {
	Register(ctx context.Context, dto *dto.RegisterDTO) error
	Login(ctx context.Context, dto *dto.CredentialDTO) (string, error)
	Logout(ctx context.Context, token string) error
	GetUserInfo(ctx context.Context, id uint64) (*dto.UserDTO, error)
	UpdateUserInfo(ctx context.Context, id uint64, dto *dto.UserDTO) error
	UpdatePassword(ctx context.Context, id uint64, dto *dto.ChangePasswordDTO) error
	BanUser(ctx context.Context, id uint64) error
	UnBanUser(ctx context.Context, id uint64) error
	CancelUser(ctx context.Context, id uint64) error
}

type UserServiceImpl struct {
	userRepo repository.UserRepo
	roleRepo repository.RoleRepo
}

func NewUserService(userRepo repository.UserRepo, roleRepo repository.RoleRepo) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
		roleRepo: roleRepo,
	}
}

func (s *UserServiceImpl) Register(ctx context.Context, regDTO *dto.RegisterDTO) error {
	credentialDTO := &dto.CredentialDTO{
		Username: regDTO.Username,
		Email:    regDTO.Email,
	}
	findUser, err := s.findUserByLoginCredentials(ctx, credentialDTO)
	if err != nil {
		return err
	}
	if findUser != nil {
		return ErrUserUsernameExist
	}

	user := &model.User{}
	if err = copier.Copy(user, &regDTO); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(*regDTO.Password)
	if err != nil {
		return err
	}
	user.Password = &passwordHash

	role := model.UserRole{RoleID: 1}
	roles := []*model.UserRole{&role}

	if err = s.userRepo.CreateUser(ctx, user, &roles); err != nil {
		// 并发注册时唯一索引兜底
		if isDuplicateError(err) {
			return ErrUserUsernameExist
		}
		return err
	}
	return nil
}

func isDuplicateError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return false
}

func (s *UserServiceImpl) Login(ctx context.Context, credDTO *dto.CredentialDTO) (string, error) {
	user, err := s.findUserByLoginCredentials(ctx, credDTO)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.IsBan {
		return "", ErrUserBan
	}
	if credDTO.Password == nil || user.Password == nil {
		return "", ErrPasswordIncorrect
	}
	if err = security.CheckPasswordHash(*credDTO.Password, *user.Password); err != nil {
		return "", ErrPasswordIncorrect
	}

	roleNames, err := s.getRoleNamesForUser(ctx, user)
	if err != nil {
		return "", err
	}
	return security.GenerateToken(user.ID, roleNames)
}

// Logout 把 Token 签名放入黑名单，有效期与 Token 剩余寿命同级
func (s *UserServiceImpl) Logout(ctx context.Context, token string) error {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return err
	}
	return redis.SetWithExpiration(ctx, consts.TokenBlacklistKey+signature, true, security.JWTExpirationTime)
}

func (s *UserServiceImpl) GetUserInfo(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	userDTO := &dto.UserDTO{}
	if err = copier.Copy(userDTO, user); err != nil {
		return nil, err
	}
	userDTO.UserID = &user.ID
	return userDTO, nil
}

func (s *UserServiceImpl) UpdateUserInfo(ctx context.Context, id uint64, userDTO *dto.UserDTO) error {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if userDTO.Nickname != nil {
		user.Nickname = *userDTO.Nickname
	}
	if userDTO.Avatar != nil {
		user.Avatar = *userDTO.Avatar
	}
	return s.userRepo.UpdateUser(ctx, user)
}

func (s *UserServiceImpl) UpdatePassword(ctx context.Context, id uint64, pwdDTO *dto.ChangePasswordDTO) error {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.Password == nil {
		return ErrPasswordIncorrect
	}
	if err = security.CheckPasswordHash(*pwdDTO.OldPassword, *user.Password); err != nil {
		return ErrPasswordIncorrect
	}
	passwordHash, err := security.HashPassword(*pwdDTO.NewPassword)
	if err != nil {
		return err
	}
	user.Password = &passwordHash
	return s.userRepo.UpdateUser(ctx, user)
}

func (s *UserServiceImpl) BanUser(ctx context.Context, id uint64) error {
	rows, err := s.userRepo.UpdateUserIsBan(ctx, id, true)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserServiceImpl) UnBanUser(ctx context.Context, id uint64) error {
	rows, err := s.userRepo.UpdateUserIsBan(ctx, id, false)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CancelUser 注销账号，匿名化后软删除
func (s *UserServiceImpl) CancelUser(ctx context.Context, id uint64) error {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.userRepo.DeleteUser(ctx, id)
}

func (s *UserServiceImpl) findUserByLoginCredentials(ctx context.Context, credDTO *dto.CredentialDTO) (*model.User, error) {
	if credDTO.Username != nil {
		return s.userRepo.GetUserByUsername(ctx, *credDTO.Username)
	}
	if credDTO.Email != nil {
		return s.userRepo.GetUserByEmail(ctx, *credDTO.Email)
	}
	return nil, ErrMissingLoginCredentials
}

func (s *UserServiceImpl) getRoleNamesForUser(ctx context.Context, user *model.User) ([]string, error) {
	if len(user.UserRoles) == 0 {
		return nil, nil
	}
	roleIds := make([]uint64, 0, len(user.UserRoles))
	for _, ur := range user.UserRoles {
		roleIds = append(roleIds, ur.RoleID)
	}
	roles, err := s.roleRepo.GetRoleByIDs(ctx, roleIds)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		return nil, nil
	}
	names := make([]string, 0, len(*roles))
	for _, r := range *roles {
		names = append(names, r.Name)
	}
	return names, nil
}
