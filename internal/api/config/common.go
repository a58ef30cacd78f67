package config

// Config 配置主体
type Config struct {
	Server             ServerConfig       `mapstructure:"server"`
	DB                 DBConfig           `mapstructure:"database"`
	Redis              RedisConfig        `mapstructure:"redis"`
	Mongo              MongoConfig        `mapstructure:"mongo"`
	Elastic            ElasticConfig      `mapstructure:"elastic"`
	LLM                LLMConfig          `mapstructure:"llm"`
	MinIO              MinIOConfig        `mapstructure:"minio"`
	Logstash           LogstashConfig     `mapstructure:"logstash"`
	RateLimit          RateLimitConfig    `mapstructure:"rate_limit"`
	Kafka              KafkaConfig        `mapstructure:"kafka"`
	KafkaUsageConsumer KafkaUsageConsumer `mapstructure:"kafka_usage_consumer"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	SearchGateway string `mapstructure:"search_gateway"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig 消息存储配置
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// ElasticConfig Elastic配置
type ElasticConfig struct {
	Address  string         `mapstructure:"address"`
	Username string         `mapstructure:"username"`
	Password string         `mapstructure:"password"`
	Indices  ElasticIndices `mapstructure:"indices"`
}

// ElasticIndices Elastic索引
type ElasticIndices struct {
	KnowledgeIndex string `mapstructure:"knowledge_index"`
}

type LLMConfig struct {
	URL            string           `mapstructure:"url"`
	ApiKey         string           `mapstructure:"api_key"`
	DefaultModel   string           `mapstructure:"default_model"`
	TitleModel     string           `mapstructure:"title_model"`
	EmbeddingModel string           `mapstructure:"embedding_model"`
	Dimensions     int              `mapstructure:"dimensions"`
	PromptsPath    PromptPathConfig `mapstructure:"prompts_path"`
}

type PromptPathConfig struct {
	System string `mapstructure:"system"`
	Title  string `mapstructure:"title"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	AttachmentBucket string `mapstructure:"attachment_bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	UsePublicLink    bool   `mapstructure:"use_public_link"`
}

// LogstashConfig 远程日志配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// RateLimitConfig 聊天接口限流配置
type RateLimitConfig struct {
	ChatLimit  int `mapstructure:"chat_limit"`
	WindowSecs int `mapstructure:"window_secs"`
}

type KafkaConfig struct {
	Brokers    []string       `mapstructure:"brokers"`
	Sasl       SaslConfig     `mapstructure:"sasl"`
	Consumer   ConsumerConfig `mapstructure:"consumer"`
	UsageTopic string         `mapstructure:"usage_topic"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaUsageConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}
