package config

import "time"

// Config 服务运行所需的全部配置
type Config struct {
	Port      string
	JWTSecret string
	CacheSize int

	Database DatabaseConfig
	LLM      LLMConfig
	Minio    MinioConfig
	Vote     VoteConfig
}

type DatabaseConfig struct {
	Driver string // postgres | sqlite
	URL    string
}

// LLMConfig OpenAI 兼容接口配置，默认指向 Groq
type LLMConfig struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// MinioConfig 媒体对象存储配置，Endpoint 为空时不释放远端对象
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type VoteConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Load 从环境变量读取配置
func Load() Config {
	return Config{
		Port:      GetEnv("PORT", "8080"),
		JWTSecret: GetEnv("JWT_SECRET", "dev-secret-change-me"),
		CacheSize: GetEnvInt("CACHE_SIZE", 500),
		Database: DatabaseConfig{
			Driver: GetEnv("DATABASE_DRIVER", "postgres"),
			URL:    GetEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=wavely port=5432 sslmode=disable"),
		},
		LLM: LLMConfig{
			APIURL:  GetEnv("LLM_API_URL", "https://api.groq.com/openai/v1"),
			APIKey:  GetEnv("LLM_API_KEY", ""),
			Model:   GetEnv("LLM_MODEL", "llama-3.1-8b-instant"),
			Timeout: GetEnvDuration("LLM_TIMEOUT", 20*time.Second),
		},
		Minio: MinioConfig{
			Endpoint:  GetEnv("MINIO_ENDPOINT", ""),
			AccessKey: GetEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: GetEnv("MINIO_SECRET_KEY", ""),
			UseSSL:    GetEnvBool("MINIO_USE_SSL", false),
			Bucket:    GetEnv("MINIO_BUCKET", "wavely-media"),
		},
		Vote: VoteConfig{
			MaxRetries: GetEnvInt("VOTE_MAX_RETRIES", 3),
			BaseDelay:  GetEnvDuration("VOTE_RETRY_BASE_DELAY", 10*time.Millisecond),
			MaxDelay:   GetEnvDuration("VOTE_RETRY_MAX_DELAY", 200*time.Millisecond),
		},
	}
}
