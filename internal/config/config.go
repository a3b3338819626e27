package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port       string
	DataDir    string
	PackageDir string
	StaticDir  string
	JWTSecret  string
	TokenTTL   time.Duration
	// Seeded when admins.json holds no records
	OwnerEmail    string
	OwnerPassword string
	// Upload caps in bytes
	MaxPackageBytes int64
	MaxIconBytes    int64
	LogLevel        string
	LogFormat       string
	MetricsEnabled  bool
}

func Load() *Config {
	dataDir := getenv("DATA_DIR", "data")
	return &Config{
		Port:            getenv("PORT", "3000"),
		DataDir:         dataDir,
		PackageDir:      getenv("PACKAGE_DIR", filepath.Join(dataDir, "apks")),
		StaticDir:       getenv("STATIC_DIR", ""),
		JWTSecret:       getenv("JWT_SECRET", "supersecret_change_me"),
		TokenTTL:        time.Duration(getenvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		OwnerEmail:      getenv("OWNER_EMAIL", "owner@example.com"),
		OwnerPassword:   getenv("OWNER_PASSWORD", "owner123"),
		MaxPackageBytes: int64(getenvInt("MAX_PACKAGE_MB", 100)) << 20,
		MaxIconBytes:    int64(getenvInt("MAX_ICON_MB", 5)) << 20,
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "json"),
		MetricsEnabled:  getenvBool("METRICS_ENABLED", true),
	}
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getenvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}
