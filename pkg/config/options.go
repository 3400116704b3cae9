package config

import (
	"github.com/redis/go-redis/v9"

	bilibili "github.com/waiav123/bilibili-api"
	"github.com/waiav123/bilibili-api/pkg/logger"
)

// ClientOptions converts the configuration into client options.
func ClientOptions(cfg *Config, log logger.Logger) []bilibili.Option {
	opts := []bilibili.Option{
		bilibili.WithTimeout(cfg.HTTP.Timeout),
		bilibili.WithUserAgent(cfg.HTTP.UserAgent),
		bilibili.WithReferer(cfg.HTTP.Referer),
	}
	if cred := NewCredential(cfg.Credential); cred != nil {
		opts = append(opts, bilibili.WithCredential(cred))
	}
	if cfg.HTTP.RateLimit.RPS > 0 {
		opts = append(opts, bilibili.WithRateLimit(cfg.HTTP.RateLimit.RPS, cfg.HTTP.RateLimit.Burst))
	}
	if log != nil {
		opts = append(opts, bilibili.WithLogger(log))
	}
	return opts
}

// NewCredential builds the login credential, nil when no cookie is configured.
func NewCredential(cfg CredentialConfig) *bilibili.Credential {
	if cfg.Sessdata == "" && cfg.BiliJct == "" {
		return nil
	}
	var opts []bilibili.CredentialOption
	if cfg.Buvid3 != "" {
		opts = append(opts, bilibili.WithBuvid3(cfg.Buvid3))
	}
	if cfg.DedeUserID != "" {
		opts = append(opts, bilibili.WithDedeUserID(cfg.DedeUserID))
	}
	if cfg.AcTimeValue != "" {
		opts = append(opts, bilibili.WithACTimeValue(cfg.AcTimeValue))
	}
	return bilibili.NewCredential(cfg.Sessdata, cfg.BiliJct, opts...)
}

// NewRedisClient builds the seen-store backend, nil when redis is disabled.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
