package app

import (
	"time"

	"github.com/aisohq/aiso-market/internal/pkg/logger"
	"github.com/aisohq/aiso-market/internal/utils"
)

type Config struct {
	JWTSecretKey       string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	SummaryCacheTTL    time.Duration
	PermissionsOverlay string
	Environment        string
	Version            string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 604800, log)
	summaryCacheTTLSeconds := utils.GetEnvAsInt("SUMMARY_CACHE_TTL", 300, log)
	permissionsOverlay := utils.GetEnv("PERMISSION_CATALOG_PATH", "", log)
	environment := utils.GetEnv("APP_ENV", "development", log)
	version := utils.GetEnv("APP_VERSION", "dev", log)
	return Config{
		JWTSecretKey:       jwtSecretKey,
		AccessTokenTTL:     time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL:    time.Duration(refreshTokenTTLSeconds) * time.Second,
		SummaryCacheTTL:    time.Duration(summaryCacheTTLSeconds) * time.Second,
		PermissionsOverlay: permissionsOverlay,
		Environment:        environment,
		Version:            version,
	}
}
