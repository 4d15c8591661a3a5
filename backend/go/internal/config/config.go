package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`  // 是否启用 Redis（redis 分发模式下必须启用）
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// SQLiteConfig 定义了本地开发使用的 SQLite 配置。
type SQLiteConfig struct {
	Path string `yaml:"path"` // 数据库文件路径
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topics  []string `yaml:"topics"`  // 启动时需要确保存在的主题
	GroupID string   `yaml:"groupID"` // 消费者组
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Driver string       `yaml:"driver"` // "mysql" 或 "sqlite"
	MySQL  MySQLConfig  `yaml:"mysql"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis"`
	Kafka  KafkaConfig  `yaml:"kafka"`
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address         string `yaml:"address"`         // 监听地址，例如 ":3000"
	ShutdownTimeout string `yaml:"shutdownTimeout"` // 优雅退出的最长等待时间，例如 "10s"
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// ModelConfig 描述一个补全模型端点。
type ModelConfig struct {
	Provider string `yaml:"provider"` // "openai"（OpenAI 兼容，例如 DeepSeek）或 "gemini"
	Model    string `yaml:"model"`    // 模型名称
	BaseURL  string `yaml:"baseURL"`  // 仅 openai 兼容提供商使用
	APIKey   string `yaml:"apiKey"`   // 通常由环境变量覆盖
	Timeout  string `yaml:"timeout"`  // HTTP 传输超时，空表示不限制
}

// LLMConfig 包含对话模型与记忆提取模型两套配置。
type LLMConfig struct {
	Chat        ModelConfig `yaml:"chat"`
	Extraction  ModelConfig `yaml:"extraction"`
	Temperature *float32    `yaml:"temperature"` // 未设置时为 0.7，显式的 0 会被保留
	PersonaPath string      `yaml:"personaPath"` // personality.json 路径
}

// MemoryConfig 定义了后台记忆提取任务的分发方式。
type MemoryConfig struct {
	Dispatch        string  `yaml:"dispatch"`        // "goroutine"、"kafka" 或 "redis"
	Topic           string  `yaml:"topic"`           // Kafka 主题 / Redis 列表名
	ExtractionRate  float64 `yaml:"extractionRate"`  // 每秒允许的提取模型调用次数，0 表示不限制
	ExtractionBurst int     `yaml:"extractionBurst"` // 令牌桶容量
}

// CircuitBreakerConfig 定义了上游模型调用的熔断器配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App            AppInfo              `yaml:"app"`
	Server         ServerConfig         `yaml:"server"`
	Logger         LoggerConfig         `yaml:"logger"`
	LLM            LLMConfig            `yaml:"llm"`
	Memory         MemoryConfig         `yaml:"memory"`
	Databases      DatabaseConfigs      `yaml:"databases"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// Secrets 是从环境变量（以及 .env 文件）读取的覆盖项，优先级高于 YAML。
type Secrets struct {
	DeepSeekAPIKey string `env:"DEEPSEEK_API_KEY"`
	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	Port           string `env:"PORT"`
	DatabaseDriver string `env:"DATABASE_DRIVER"`
	SQLitePath     string `env:"SQLITE_PATH"`
	MySQLPassword  string `env:"MYSQL_PASSWORD"`
	LogLevel       string `env:"LOG_LEVEL"`
}

const (
	DispatchGoroutine = "goroutine"
	DispatchKafka     = "kafka"
	DispatchRedis     = "redis"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultMemoryTopic = "memory_tasks"
	DefaultTemperature = float32(0.7)
)

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，
// 然后加载 .env 并应用环境变量覆盖，最后补全默认值。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}

	// .env 文件是可选的。
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载 .env 文件失败: %w", err)
	}

	var secrets Secrets
	if err := env.Parse(&secrets); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}
	// 先补全默认值，密钥按最终的 provider 绑定。
	cfg.applyDefaults()
	cfg.applySecrets(secrets)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applySecrets(s Secrets) {
	c.LLM.Chat.applyKey(s)
	c.LLM.Extraction.applyKey(s)
	if s.Port != "" {
		c.Server.Address = ":" + s.Port
	}
	if s.DatabaseDriver != "" {
		c.Databases.Driver = s.DatabaseDriver
	}
	if s.SQLitePath != "" {
		c.Databases.SQLite.Path = s.SQLitePath
	}
	if s.MySQLPassword != "" {
		c.Databases.MySQL.Password = s.MySQLPassword
	}
	if s.LogLevel != "" {
		c.Logger.Level = s.LogLevel
	}
}

// applyKey 按提供商选择对应的 API key 环境变量。
func (m *ModelConfig) applyKey(s Secrets) {
	switch m.Provider {
	case ProviderOpenAI:
		if s.DeepSeekAPIKey != "" {
			m.APIKey = s.DeepSeekAPIKey
		}
	case ProviderGemini:
		if s.GeminiAPIKey != "" {
			m.APIKey = s.GeminiAPIKey
		}
	}
}

func (c *AppConfig) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "healthmate"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":3000"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.LLM.Chat.Provider == "" {
		c.LLM.Chat.Provider = ProviderOpenAI
	}
	if c.LLM.Chat.Model == "" {
		c.LLM.Chat.Model = "deepseek-chat"
	}
	if c.LLM.Chat.BaseURL == "" && c.LLM.Chat.Provider == ProviderOpenAI {
		c.LLM.Chat.BaseURL = "https://api.deepseek.com"
	}
	if c.LLM.Extraction.Provider == "" {
		c.LLM.Extraction.Provider = ProviderGemini
	}
	if c.LLM.Extraction.Model == "" {
		c.LLM.Extraction.Model = "gemini-1.5-flash"
	}
	if c.LLM.Temperature == nil {
		t := DefaultTemperature
		c.LLM.Temperature = &t
	}
	if c.LLM.PersonaPath == "" {
		c.LLM.PersonaPath = "personality.json"
	}
	if c.Memory.Dispatch == "" {
		c.Memory.Dispatch = DispatchGoroutine
	}
	if c.Memory.Topic == "" {
		c.Memory.Topic = DefaultMemoryTopic
	}
	if c.Databases.Driver == "" {
		c.Databases.Driver = DriverSQLite
	}
	if c.Databases.SQLite.Path == "" {
		c.Databases.SQLite.Path = "healthmate.db"
	}
	if c.Databases.Kafka.GroupID == "" {
		c.Databases.Kafka.GroupID = "memory-worker"
	}
	if c.CircuitBreaker.Timeout == "" {
		c.CircuitBreaker.Timeout = "30s"
	}
}

// Validate 检查互相依赖的配置项。
func (c *AppConfig) Validate() error {
	switch c.Databases.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Databases.Driver)
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature 超出范围 [0, 2]: %v", *t)
	}
	switch c.Memory.Dispatch {
	case DispatchGoroutine:
	case DispatchKafka:
		if !c.Databases.Kafka.Enabled || len(c.Databases.Kafka.Brokers) == 0 {
			return fmt.Errorf("memory.dispatch=kafka 需要启用 Kafka 并配置 brokers")
		}
	case DispatchRedis:
		if !c.Databases.Redis.Enabled || c.Databases.Redis.Address == "" {
			return fmt.Errorf("memory.dispatch=redis 需要启用 Redis 并配置地址")
		}
	default:
		return fmt.Errorf("未知的记忆分发模式: %s", c.Memory.Dispatch)
	}
	return nil
}
