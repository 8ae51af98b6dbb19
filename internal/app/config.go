package app

import (
	"strings"
	"time"

	"github.com/inkfall/studio-backend/internal/logger"
	"github.com/inkfall/studio-backend/internal/utils"
)

type Config struct {
	ServiceName    string
	Environment    string
	Version        string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	CORSOrigins    []string

	// Job runtime knobs.
	BatchConcurrency int
	MaxJobDuration   time.Duration
	JobRetention     time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	origins := []string{}
	for _, o := range strings.Split(utils.GetEnv("CORS_ORIGINS", "", log), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return Config{
		ServiceName:      "studio-backend",
		Environment:      utils.GetEnv("ENVIRONMENT", "development", log),
		Version:          utils.GetEnv("SERVICE_VERSION", "dev", log),
		JWTSecretKey:     utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:   time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 86400, log)) * time.Second,
		CORSOrigins:      origins,
		BatchConcurrency: utils.GetEnvAsInt("BATCH_CONCURRENCY", 4, log),
		MaxJobDuration:   time.Duration(utils.GetEnvAsInt("MAX_JOB_DURATION_SECONDS", 0, log)) * time.Second,
		JobRetention:     time.Duration(utils.GetEnvAsInt("JOB_RETENTION_SECONDS", 86400, log)) * time.Second,
	}
}
