package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	PaymentRequired     = 402
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid            = errors.New("参数错误")
	ErrUserNotFound            = errors.New("用户不存在")
	ErrUserBan                 = errors.New("用户已被封禁")
	ErrUserExist               = errors.New("用户已存在")
	ErrUserUsernameExist       = errors.New("用户名已存在")
	ErrPasswordIncorrect       = errors.New("密码错误")
	ErrMissingLoginCredentials = errors.New("缺少登录凭据")
	ErrUserHasRole             = errors.New("用户已拥有此角色")
	ErrAgentNotFound           = errors.New("智能体不存在")
	ErrAgentForbidden          = errors.New("无权操作该智能体")
	ErrModelNotFound           = errors.New("模型不存在或已下架")
	ErrChatNotFound            = errors.New("会话不存在")
	ErrChatForbidden           = errors.New("无权操作该会话")
	ErrInsufficientCredits     = errors.New("积分余额不足")
	ErrNoUserMessage           = errors.New("请求中缺少用户消息")
	ErrChatCreateFailed        = errors.New("会话创建失败")
	ErrFileNotSupported        = errors.New("不支持的文件类型")
	UnauthorizedError          = errors.New("权限不足")
	UnExpectedError            = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:            BadRequest,
	ErrUserNotFound:            NotFound,
	ErrUserBan:                 Unauthorized,
	ErrUserExist:               BadRequest,
	ErrUserUsernameExist:       BadRequest,
	ErrPasswordIncorrect:       Unauthorized,
	ErrMissingLoginCredentials: Unauthorized,
	ErrUserHasRole:             BadRequest,
	ErrAgentNotFound:           NotFound,
	ErrAgentForbidden:          Unauthorized,
	ErrModelNotFound:           NotFound,
	ErrChatNotFound:            NotFound,
	ErrChatForbidden:           Unauthorized,
	ErrInsufficientCredits:     PaymentRequired,
	ErrNoUserMessage:           BadRequest,
	ErrChatCreateFailed:        InternalServerError,
	ErrFileNotSupported:        BadRequest,
	UnauthorizedError:          Unauthorized,
	UnExpectedError:            InternalServerError,
}
