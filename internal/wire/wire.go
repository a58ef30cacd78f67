package wire

import (
	"AgentVendor/internal/api"
	"AgentVendor/internal/api/config"
	"AgentVendor/internal/api/handler"
	"AgentVendor/internal/job"
	"AgentVendor/internal/pkg/cron"
	"AgentVendor/internal/pkg/es"
	"AgentVendor/internal/pkg/kafka"
	"AgentVendor/internal/pkg/llm"
	mongopkg "AgentVendor/internal/pkg/mongo"
	"AgentVendor/internal/pkg/ratelimit"
	"AgentVendor/internal/pkg/redis"
	"AgentVendor/internal/repository"
	"AgentVendor/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoDB *mongodriver.Database, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRolesRepo := repository.NewUserRolesRepo(db)
	agentRepo := repository.NewAgentRepo(db)
	chatRepo := repository.NewChatRepo(db)
	modelRepo := repository.NewModelRepo(db)
	transactionRepo := repository.NewTransactionRepo(db)
	usageDailyRepo := repository.NewUsageDailyRepo(db)

	messageRepo := mongopkg.NewMessageRepo(mongoDB)
	knowledgeRepo := es.NewKnowledgeRepo(es.Client)

	usageProducer, err := kafka.NewUsageProducer(cfg)
	if err != nil {
		return nil, err
	}

	toolHandler := llm.NewToolHandler(knowledgeRepo)
	generator := llm.NewGenerator(toolHandler)

	userService := service.NewUserService(userRepo, roleRepo)
	userRolesService := service.NewUserRolesService(userRolesRepo)
	creditService := service.NewCreditService(userRepo, transactionRepo, usageDailyRepo, usageProducer)
	agentService := service.NewAgentService(agentRepo, modelRepo, knowledgeRepo)
	knowledgeService := service.NewKnowledgeService(agentRepo, knowledgeRepo)
	chatService := service.NewChatService(chatRepo, agentRepo, modelRepo, messageRepo, creditService, generator)

	limiter := ratelimit.NewSlidingWindowLimiter(
		redis.GetRdbClient(),
		cfg.RateLimit.ChatLimit,
		time.Duration(cfg.RateLimit.WindowSecs)*time.Second,
	)

	handlers := &api.HandlersGroup{
		ChatHandler:      handler.NewChatHandler(chatService),
		UserHandler:      handler.NewUserHandler(userService, userRolesService),
		AgentHandler:     handler.NewAgentHandler(agentService),
		CreditHandler:    handler.NewCreditHandler(creditService),
		KnowledgeHandler: handler.NewKnowledgeHandler(knowledgeService),
		MediaHandler:     handler.NewMediaHandler(),
	}

	router := api.SetupRouter(handlers, limiter)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, usageDailyRepo)
	if err != nil {
		return nil, err
	}

	titleRetryJob := job.NewTitleRetryJob(chatRepo, chatService)
	cronMgr := cron.NewCronManager(titleRetryJob)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
	}, nil
}
