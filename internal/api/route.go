package api

import (
	"AgentVendor/internal/api/middleware"
	"AgentVendor/internal/model"
	"AgentVendor/internal/pkg/logger"
	"AgentVendor/internal/pkg/ratelimit"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, limiter ratelimit.Limiter) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		// 聊天链路：限流在前，鉴权在后，失败都用真实状态码
		chatGroup := apiGroup.Group("/chat")
		chatGroup.Use(middleware.RateLimitMiddleware(limiter), middleware.ChatAuthMiddleware())
		{
			chatGroup.POST("", group.ChatHandler.Chat)
			chatGroup.DELETE("", group.ChatHandler.DeleteChat)
			chatGroup.GET("/list", group.ChatHandler.ListChats)
			chatGroup.GET("/history", group.ChatHandler.GetHistory)
		}

		userGroup := apiGroup.Group("/user")
		{
			userGroup.POST("/login", group.UserHandler.Login)
			userGroup.POST("/register", group.UserHandler.Register)

			authGroup := userGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
				authGroup.GET("/info", group.UserHandler.GetUserInfo)
				authGroup.PUT("/info", group.UserHandler.UpdateUserInfo)
				authGroup.PUT("/password", group.UserHandler.UpdatePassword)
				authGroup.POST("/cancel", group.UserHandler.CancelUser)
			}

			// 需要登录 & 拥有 admin 角色
			adminGroup := authGroup.Group("")
			adminGroup.Use(middleware.CheckRoles(model.RoleNameAdmin))
			{
				adminGroup.POST("/ban/:id", group.UserHandler.BanUser)
				adminGroup.POST("/unban/:id", group.UserHandler.UnBanUser)
				adminGroup.GET("/roles", group.UserHandler.GetRoles)
				adminGroup.POST("/:id/role/:roleId", group.UserHandler.AddRoleToUser)
				adminGroup.DELETE("/:id/role/:roleId", group.UserHandler.DeleteRoleFromUser)
			}
		}

		agentGroup := apiGroup.Group("/agent")
		{
			authOptGroup := agentGroup.Group("")
			authOptGroup.Use(middleware.AuthOptionalMiddleware())
			{
				authOptGroup.GET("/list", group.AgentHandler.ListAgents)
				authOptGroup.GET("/:id", group.AgentHandler.GetAgent)
			}

			authGroup := agentGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("", group.AgentHandler.CreateAgent)
				authGroup.GET("/mine", group.AgentHandler.ListMyAgents)
				authGroup.PUT("/:id", group.AgentHandler.UpdateAgent)
				authGroup.DELETE("/:id", group.AgentHandler.DeleteAgent)
			}
		}

		apiGroup.GET("/models", group.AgentHandler.ListModels)

		creditGroup := apiGroup.Group("/credit")
		creditGroup.Use(middleware.AuthMiddleware())
		{
			creditGroup.GET("/balance", group.CreditHandler.GetBalance)
			creditGroup.GET("/transactions", group.CreditHandler.ListTransactions)
			creditGroup.GET("/usage/daily", group.CreditHandler.ListUsageDaily)
		}

		knowledgeGroup := apiGroup.Group("/knowledge")
		knowledgeGroup.Use(middleware.AuthMiddleware())
		{
			knowledgeGroup.POST("", group.KnowledgeHandler.IndexKnowledge)
			knowledgeGroup.GET("/list", group.KnowledgeHandler.ListKnowledge)
			knowledgeGroup.DELETE("/:id", group.KnowledgeHandler.DeleteKnowledge)
		}

		mediaGroup := apiGroup.Group("/media")
		{
			mediaGroup.Use(middleware.AuthMiddleware())
			mediaGroup.POST("/upload", group.MediaHandler.Upload)
			mediaGroup.DELETE("", group.MediaHandler.Delete)
		}
	}

	return r
}
