package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"netdash/models"
)

// MinScanInterval is the smallest refresh interval the dashboard accepts, in seconds
const MinScanInterval = 30

type Config struct {
	Server  ServerConfig  `json:"server"`
	Backend BackendConfig `json:"backend"`
	Polling PollingConfig `json:"polling"`
	Chart   ChartConfig   `json:"chart"`
	Cache   CacheConfig   `json:"cache"`
	Redis   RedisConfig   `json:"redis"`
	MongoDB MongoDBConfig `json:"mongodb"`
	Discord DiscordConfig `json:"discord"`
	GeoIP   GeoIPConfig   `json:"geoip"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type BackendConfig struct {
	BaseURL    string `json:"base_url"`
	Timeout    int    `json:"timeout_seconds"`
	MinVersion string `json:"min_version"`
}

type PollingConfig struct {
	RefreshInterval int  `json:"refresh_interval_seconds"`
	RefreshDevices  bool `json:"refresh_devices"`
	AutoRefresh     bool `json:"auto_refresh"`
	ScanMinLoading  int  `json:"scan_min_loading_ms"`
	NotificationTTL int  `json:"notification_ttl_seconds"`
}

type ChartConfig struct {
	Mode     string `json:"mode"` // "history" or "rolling"
	Capacity int    `json:"capacity"`
	Range    string `json:"range"`
}

type CacheConfig struct {
	TTL int `json:"ttl_seconds"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Enabled  bool   `json:"enabled"`
	UseTLS   bool   `json:"use_tls"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
	Enabled  bool   `json:"enabled"`
}

type DiscordConfig struct {
	Token     string `json:"token"`
	ChannelID string `json:"channel_id"`
}

type GeoIPConfig struct {
	DBPath string `json:"db_path"`
}

// Default returns the configuration used when nothing else is provided
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8090,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 10,
		},
		Polling: PollingConfig{
			RefreshInterval: 60,
			RefreshDevices:  true,
			AutoRefresh:     true,
			ScanMinLoading:  1500,
			NotificationTTL: 3,
		},
		Chart: ChartConfig{
			Mode:     "history",
			Capacity: 20,
			Range:    "1h",
		},
		Cache: CacheConfig{
			TTL: 120,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			Enabled: false,
		},
		MongoDB: MongoDBConfig{
			URI:      "mongodb://localhost:27017",
			Database: "netdash",
			Enabled:  false,
		},
	}
}

func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := Default()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", configPath, err)
		}
	}

	// Environment overrides config file
	loadEnv(cfg)

	// Flags override everything
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var serverPort int
	var serverHost string
	var backendURL string

	fs.IntVar(&serverPort, "port", 0, "Server port")
	fs.StringVar(&serverHost, "host", "", "Server host")
	fs.StringVar(&backendURL, "backend", "", "Monitoring backend base URL")

	_ = fs.Parse(args)

	if isFlagPassed(fs, "port") {
		cfg.Server.Port = serverPort
	}
	if isFlagPassed(fs, "host") {
		cfg.Server.Host = serverHost
	}
	if isFlagPassed(fs, "backend") {
		cfg.Backend.BaseURL = backendURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the dashboard cannot run without
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	if c.Polling.RefreshInterval < MinScanInterval {
		return fmt.Errorf("refresh interval must be at least %d seconds, got %d", MinScanInterval, c.Polling.RefreshInterval)
	}
	if c.Chart.Mode != "history" && c.Chart.Mode != "rolling" {
		return fmt.Errorf("unknown chart mode %q", c.Chart.Mode)
	}
	if !validRange(c.Chart.Range) {
		return fmt.Errorf("unknown chart range %q, expected one of %s", c.Chart.Range, strings.Join(models.TrafficRanges, ", "))
	}
	if c.Chart.Capacity <= 0 {
		c.Chart.Capacity = 20
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	return nil
}

func validRange(r string) bool {
	for _, known := range models.TrafficRanges {
		if r == known {
			return true
		}
	}
	return false
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func loadEnv(cfg *Config) {
	// Server configuration
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		cfg.Server.AllowedOrigins = strings.Split(val, ",")
	}

	// Backend
	if val := os.Getenv("BACKEND_URL"); val != "" {
		cfg.Backend.BaseURL = val
	}
	if val := os.Getenv("BACKEND_TIMEOUT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Backend.Timeout = p
		}
	}
	if val := os.Getenv("BACKEND_MIN_VERSION"); val != "" {
		cfg.Backend.MinVersion = val
	}

	// Polling
	if val := os.Getenv("REFRESH_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Polling.RefreshInterval = p
		}
	}
	if val := os.Getenv("REFRESH_DEVICES"); val != "" {
		cfg.Polling.RefreshDevices = val == "true" || val == "1"
	}
	if val := os.Getenv("AUTO_REFRESH"); val != "" {
		cfg.Polling.AutoRefresh = val == "true" || val == "1"
	}

	// Chart
	if val := os.Getenv("CHART_MODE"); val != "" {
		cfg.Chart.Mode = val
	}
	if val := os.Getenv("CHART_CAPACITY"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Chart.Capacity = p
		}
	}
	if val := os.Getenv("CHART_RANGE"); val != "" {
		cfg.Chart.Range = val
	}

	// Cache
	if val := os.Getenv("CACHE_TTL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Cache.TTL = p
		}
	}

	// Redis
	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = p
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		cfg.Redis.Enabled = val == "true" || val == "1"
	}

	// MongoDB
	if val := os.Getenv("MONGODB_URI"); val != "" {
		cfg.MongoDB.URI = val
	}
	if val := os.Getenv("MONGODB_DATABASE"); val != "" {
		cfg.MongoDB.Database = val
	}
	if val := os.Getenv("MONGODB_ENABLED"); val != "" {
		cfg.MongoDB.Enabled = val == "true" || val == "1"
	}

	// Discord
	if val := os.Getenv("DISCORD_BOT_TOKEN"); val != "" {
		cfg.Discord.Token = val
	}
	if val := os.Getenv("DISCORD_CHANNEL_ID"); val != "" {
		cfg.Discord.ChannelID = val
	}

	// GeoIP
	if val := os.Getenv("GEOIP_DB_PATH"); val != "" {
		cfg.GeoIP.DBPath = val
	}
}

func (c *Config) BackendTimeoutDuration() time.Duration {
	return time.Duration(c.Backend.Timeout) * time.Second
}

func (c *Config) RefreshIntervalDuration() time.Duration {
	return time.Duration(c.Polling.RefreshInterval) * time.Second
}

func (c *Config) ScanMinLoadingDuration() time.Duration {
	return time.Duration(c.Polling.ScanMinLoading) * time.Millisecond
}

func (c *Config) NotificationTTLDuration() time.Duration {
	return time.Duration(c.Polling.NotificationTTL) * time.Second
}

func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}
