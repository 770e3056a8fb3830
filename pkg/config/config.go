package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	LLM     LLMConfig
	Chat    ChatConfig
	Admin   AdminConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins string
	Development    bool
	AccessLog      bool
}

type StorageConfig struct {
	Driver string
	SQLite SQLiteConfig
	Redis  RedisConfig
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

type LLMConfig struct {
	Transport           string
	BaseURL             string
	RelayURL            string
	APIKey              string
	Model               string
	Template            string
	MaxNewTokens        int
	Temperature         float32
	TopP                float32
	ReturnFullText      bool
	MaxAttempts         int
	RetryInitialDelayMs int
	TimeoutSec          int
	CircuitBreaker      CircuitBreakerConfig
}

type CircuitBreakerConfig struct {
	Enabled bool
}

type ChatConfig struct {
	TrimIncomplete bool
}

type AdminConfig struct {
	Username string
	Password string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/portfolio")

	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Names used by the hosted deployment; the prefixed form still wins.
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Storage.Driver = strings.ToLower(config.Storage.Driver)
	config.LLM.Transport = strings.ToLower(config.LLM.Transport)

	return &config, nil
}

func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"llm.apiKey":  {"PORTFOLIO_LLM_APIKEY", "HUGGINGFACE_API_KEY"},
		"llm.model":   {"PORTFOLIO_LLM_MODEL", "HUGGINGFACE_MODEL"},
		"server.port": {"PORTFOLIO_SERVER_PORT", "PORT"},
	}
	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 120)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.allowedOrigins", "*")
	v.SetDefault("server.development", false)
	v.SetDefault("server.accessLog", true)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite.path", "./data/portfolio.db")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "portfolio")

	v.SetDefault("llm.transport", "huggingface")
	v.SetDefault("llm.baseURL", "https://api-inference.huggingface.co")
	v.SetDefault("llm.relayURL", "http://localhost:3001")
	v.SetDefault("llm.model", "meta-llama/Meta-Llama-3-8B-Instruct")
	v.SetDefault("llm.template", "auto")
	v.SetDefault("llm.maxNewTokens", 300)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.topP", 0.95)
	v.SetDefault("llm.returnFullText", false)
	v.SetDefault("llm.maxAttempts", 3)
	v.SetDefault("llm.retryInitialDelayMs", 1000)
	v.SetDefault("llm.timeoutSec", 60)
	v.SetDefault("llm.circuitBreaker.enabled", false)

	v.SetDefault("chat.trimIncomplete", true)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "portfolio2025")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
