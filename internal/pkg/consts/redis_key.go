package consts

const (
	TokenBlacklistKey = "auth:token:blacklist:"
	ChatRateLimitKey  = "chat:ratelimit:"
	TitleRetryLockKey = "lock:title:retry"
)
