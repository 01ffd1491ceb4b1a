package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingEnv 缺少必填的运行参数
var ErrMissingEnv = errors.New("missing required env")

// ErrInvalidEnv 配置值不合法，例如 TOP_K=0
var ErrInvalidEnv = errors.New("invalid env value")

type Config struct {
	AppPort string
	// 全站 Basic Auth，两者都配置时启用
	BasicAuthUser string
	BasicAuthPass string

	PostgresDSN string
	RedisAddr   string

	CronSpec string
	// RunOnStartup cmd/api 启动后延迟执行一次首轮运行
	RunOnStartup bool

	SlackBotToken   string
	SlackChannelRaw string
	SlackAPIURL     string

	SourcesFile string
	DocsDir     string
	PagesBase   string

	S3Bucket  string
	S3Prefix  string
	AWSRegion string

	TopK             int
	PostLimit        int
	TZOffsetHours    int
	CaseFold         bool
	FetchTimeout     time.Duration
	FetchConcurrency int
	Pacing           string
	UserAgent        string

	LogLevel string
}

// Load 先读取 .env（不存在时忽略），再从环境变量组装配置
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:          getEnv("APP_PORT", "9000"),
		BasicAuthUser:    getEnv("APP_BASIC_USER", ""),
		BasicAuthPass:    getEnv("APP_BASIC_PASS", ""),
		PostgresDSN:      getEnv("POSTGRES_DSN", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		CronSpec:         getEnv("CRON_SPEC", "0 9 * * 1"),
		RunOnStartup:     getEnvBool("RUN_ON_STARTUP", false),
		SlackBotToken:    getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannelRaw:  getEnv("SLACK_CHANNEL_ID", ""),
		SlackAPIURL:      getEnv("SLACK_API_URL", ""),
		SourcesFile:      getEnv("SOURCES_FILE", "sources.yaml"),
		DocsDir:          getEnv("DOCS_DIR", "docs"),
		PagesBase:        getEnv("PAGES_BASE", "https://<yourname>.github.io/trend-keywords-bot"),
		S3Bucket:         getEnv("PAGES_S3_BUCKET", ""),
		S3Prefix:         getEnv("PAGES_S3_PREFIX", ""),
		AWSRegion:        getEnv("AWS_REGION", ""),
		TopK:             getEnvInt("TOP_K", 10),
		PostLimit:        getEnvInt("POST_LIMIT_PER_SOURCE", 5),
		TZOffsetHours:    getEnvInt("TZ_OFFSET_HOURS", 9),
		CaseFold:         getEnvBool("CASE_FOLD", false),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 1),
		Pacing:           strings.ToLower(getEnv("PACING", "jitter")),
		UserAgent:        getEnv("USER_AGENT", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// RequireRunInputs 抓取开始之前必须具备 Slack token 与频道，且排名参数为正数
func (c *Config) RequireRunInputs() error {
	if c.SlackBotToken == "" {
		return missing("SLACK_BOT_TOKEN")
	}
	if strings.TrimSpace(c.SlackChannelRaw) == "" {
		return missing("SLACK_CHANNEL_ID")
	}
	// 显式配置为 0 或负数时直接拒绝，不回退到默认值
	if c.TopK <= 0 {
		return fmt.Errorf("%w: TOP_K must be positive, got %d", ErrInvalidEnv, c.TopK)
	}
	if c.PostLimit <= 0 {
		return fmt.Errorf("%w: POST_LIMIT_PER_SOURCE must be positive, got %d", ErrInvalidEnv, c.PostLimit)
	}
	return nil
}

func missing(key string) error {
	return fmt.Errorf("%w: ENV '%s' is required but not set", ErrMissingEnv, key)
}

// Location 日期标签使用的固定时区（默认 UTC+9）
func (c *Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.TZOffsetHours), c.TZOffsetHours*3600)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	// 兼容只写秒数的旧配置
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}
