package config

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Email    EmailConfig    `mapstructure:"email"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LoginRateLimit  int           `mapstructure:"login_rate_limit"`
}

// DatabaseConfig 数据库配置
// URL 优先；为空时按 MySQL 字段拼接 DSN
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
	LogLevel string `mapstructure:"log_level"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	Algorithm     string        `mapstructure:"algorithm"`
	ExpireMinutes int           `mapstructure:"expire_minutes"`
	ExpireTime    time.Duration `mapstructure:"-"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LedgerConfig 记账配置
type LedgerConfig struct {
	Currency string `mapstructure:"currency"`
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// AMQPConfig 账务事件投递配置，URL 为空时不投递
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// legacyEnv 无前缀的环境变量名，兼容旧部署
var legacyEnv = map[string]string{
	"jwt.secret":           "SECRET_KEY",
	"jwt.algorithm":        "ALGORITHM",
	"jwt.expire_minutes":   "ACCESS_TOKEN_EXPIRE_MINUTES",
	"database.url":         "DATABASE_URL",
	"cors.allowed_origins": "ALLOWED_HOSTS",
	"log.level":            "LOG_LEVEL",
	"log.format":           "LOG_FORMAT",
}

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
// configPath: 可选的外部配置文件路径
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("read embedded config: %w", err)
	}

	// 2. 尝试加载外部配置文件
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("warning: cannot read config file %s: %v", configPath, err)
		} else {
			log.Printf("merged config file: %s", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/expensetracker")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				log.Printf("warning: merge external config: %v", err)
			} else {
				log.Printf("merged config file: %s", externalViper.ConfigFileUsed())
			}
		}
	}

	// 3. 环境变量覆盖
	v.SetEnvPrefix("EXPENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, "EXPENSE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// ALLOWED_HOSTS 以逗号分隔
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	if cfg.JWT.ExpireMinutes <= 0 {
		cfg.JWT.ExpireMinutes = 30
	}
	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireMinutes) * time.Minute
	if cfg.JWT.Algorithm == "" {
		cfg.JWT.Algorithm = "HS256"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	GlobalConfig = &cfg

	return &cfg, nil
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	log.Printf("current config:")
	log.Printf("  server: %s (mode: %s)", GlobalConfig.Server.Port, GlobalConfig.Server.Mode)
	log.Printf("  database: %s", RedactURL(GlobalConfig.Database.URL))
	log.Printf("  jwt: %s, expires in %s", GlobalConfig.JWT.Algorithm, GlobalConfig.JWT.ExpireTime)
	log.Printf("  cors: %v", GlobalConfig.CORS.AllowedOrigins)
	log.Printf("  email: %v, amqp: %v", GlobalConfig.Email.Enabled, GlobalConfig.AMQP.URL != "")
}

// RedactURL 隐藏连接串中的密码
func RedactURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	if at < 0 {
		return raw
	}
	prefix := raw[:at]
	scheme := ""
	if i := strings.Index(prefix, "://"); i >= 0 {
		scheme, prefix = prefix[:i+3], prefix[i+3:]
	}
	if colon := strings.Index(prefix, ":"); colon >= 0 {
		prefix = prefix[:colon] + ":***"
	}
	return scheme + prefix + raw[at:]
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
