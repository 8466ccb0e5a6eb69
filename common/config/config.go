package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func loadEnvString(key string, result *string) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	*result = s
}

func loadEnvUint(key string, result *uint) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return
	}
	*result = uint(n)
}

/* Configuration */

/* PgSQL Configuration */
type pgSqlConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	Database string `json:"database"`
	SslMode  string `json:"ssl_mode"`
	User     string `json:"user"`
	Password string `json:"password"`
}

func (p pgSqlConfig) ConnStr() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s", p.Host, p.Port, p.User, p.Password, p.Database, p.SslMode)
}

func defaultPgSql() pgSqlConfig {
	return pgSqlConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "jobs",
		User:     "",
		Password: "",
		SslMode:  "disable",
	}
}

func (p *pgSqlConfig) loadFromEnv() {
	loadEnvString("POSTGRES_HOST", &p.Host)
	loadEnvUint("POSTGRES_PORT", &p.Port)
	loadEnvString("POSTGRES_DB_NAME", &p.Database)
	loadEnvString("POSTGRES_SSLMODE", &p.SslMode)
	loadEnvString("POSTGRES_USERNAME", &p.User)
	loadEnvString("POSTGRES_PASSWORD", &p.Password)
}

/* Listen Configuration */

type listenConfig struct {
	Host string `json:"host"`
	Port uint   `json:"port"`
}

func (l listenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

func defaultListenConfig() listenConfig {
	return listenConfig{
		Host: "127.0.0.1",
		Port: 8080,
	}
}

func (l *listenConfig) loadFromEnv() {
	loadEnvString("LISTEN_HOST", &l.Host)
	loadEnvUint("LISTEN_PORT", &l.Port)
}

/* Upstream listing site */

type upstreamConfig struct {
	BaseURL       string `json:"base_url"`
	SearchURL     string `json:"search_url"`
	DetailBaseURL string `json:"detail_base_url"`
}

func defaultUpstreamConfig() upstreamConfig {
	return upstreamConfig{
		BaseURL:       "https://www.onlinejobs.ph",
		SearchURL:     "https://www.onlinejobs.ph/jobseekers/jobsearch",
		DetailBaseURL: "https://www.onlinejobs.ph/jobseekers/job/",
	}
}

func (u *upstreamConfig) loadFromEnv() {
	loadEnvString("UPSTREAM_BASE_URL", &u.BaseURL)
	loadEnvString("UPSTREAM_SEARCH_URL", &u.SearchURL)
	loadEnvString("UPSTREAM_DETAIL_BASE_URL", &u.DetailBaseURL)
}

/* Scraper behaviour */

type scraperConfig struct {
	FetchTimeout time.Duration
	DelayMin     time.Duration
	DelayMax     time.Duration
	Schedule     string
}

func defaultScraperConfig() scraperConfig {
	return scraperConfig{
		FetchTimeout: 20 * time.Second,
		DelayMin:     2 * time.Second,
		DelayMax:     5 * time.Second,
		Schedule:     "@every 6h",
	}
}

func (s *scraperConfig) loadFromEnv() {
	var timeoutSec, delayMinMs, delayMaxMs uint
	loadEnvUint("SCRAPE_TIMEOUT_SECONDS", &timeoutSec)
	loadEnvUint("SCRAPE_DELAY_MIN_MS", &delayMinMs)
	loadEnvUint("SCRAPE_DELAY_MAX_MS", &delayMaxMs)

	if timeoutSec > 0 {
		s.FetchTimeout = time.Duration(timeoutSec) * time.Second
	}
	if delayMinMs > 0 {
		s.DelayMin = time.Duration(delayMinMs) * time.Millisecond
	}
	if delayMaxMs > 0 {
		s.DelayMax = time.Duration(delayMaxMs) * time.Millisecond
	}
	loadEnvString("HARVEST_SCHEDULE", &s.Schedule)
}

/* Summarization service */

type geminiConfig struct {
	APIKey      string
	Model       string
	Workers     uint
	CallTimeout time.Duration
}

func defaultGeminiConfig() geminiConfig {
	return geminiConfig{
		APIKey:      "",
		Model:       "gemini-2.5-flash-lite",
		Workers:     8,
		CallTimeout: 60 * time.Second,
	}
}

func (g *geminiConfig) loadFromEnv() {
	loadEnvString("GEMINI_API_KEY", &g.APIKey)
	loadEnvString("GEMINI_MODEL", &g.Model)
	loadEnvUint("SUMMARY_WORKERS", &g.Workers)

	var timeoutSec uint
	loadEnvUint("SUMMARY_TIMEOUT_SECONDS", &timeoutSec)
	if timeoutSec > 0 {
		g.CallTimeout = time.Duration(timeoutSec) * time.Second
	}
}

/* Webhook notifier */

type webhookConfig struct {
	URL     string
	Timeout time.Duration
}

func defaultWebhookConfig() webhookConfig {
	return webhookConfig{
		URL:     "",
		Timeout: 10 * time.Second,
	}
}

func (w *webhookConfig) loadFromEnv() {
	loadEnvString("WEBHOOK_URL", &w.URL)
}

/* Query API */

type apiConfig struct {
	FetchRetries uint
}

func defaultApiConfig() apiConfig {
	return apiConfig{
		FetchRetries: 3,
	}
}

func (a *apiConfig) loadFromEnv() {
	loadEnvUint("API_FETCH_RETRY_COUNTS", &a.FetchRetries)
}

type redisConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (r *redisConfig) loadFromEnv() {
	loadEnvString("REDIS_HOST", &r.Host)
	loadEnvUint("REDIS_PORT", &r.Port)
	loadEnvString("REDIS_PASSWORD", &r.Password)

	// Load DB number with a default of 0
	if dbStr := getEnv("REDIS_DB", "0"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
}

func defaultRedisConfig() redisConfig {
	return redisConfig{
		Host:     "localhost",
		Port:     6379,
		Password: "",
		DB:       0,
	}
}

type Config struct {
	Listen   listenConfig
	PgSql    pgSqlConfig
	Redis    redisConfig
	Upstream upstreamConfig
	Scraper  scraperConfig
	Gemini   geminiConfig
	Webhook  webhookConfig
	Api      apiConfig
}

func (c *Config) LoadFromEnv() {
	c.Listen.loadFromEnv()
	c.PgSql.loadFromEnv()
	c.Redis.loadFromEnv()
	c.Upstream.loadFromEnv()
	c.Scraper.loadFromEnv()
	c.Gemini.loadFromEnv()
	c.Webhook.loadFromEnv()
	c.Api.loadFromEnv()
}

func DefaultConfig() Config {
	return Config{
		Listen:   defaultListenConfig(),
		PgSql:    defaultPgSql(),
		Redis:    defaultRedisConfig(),
		Upstream: defaultUpstreamConfig(),
		Scraper:  defaultScraperConfig(),
		Gemini:   defaultGeminiConfig(),
		Webhook:  defaultWebhookConfig(),
		Api:      defaultApiConfig(),
	}
}
