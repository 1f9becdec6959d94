package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

type Config struct {
	ListenAddr string
	BaseURL    string

	DB struct {
		DSN string
	}

	Microsoft struct {
		ClientID     string
		ClientSecret string
		Authority    string
		Scopes       []string
		RedirectURI  string
	}

	Log struct {
		Level string
		JSON  bool
	}

	PrometheusEnabled bool
	TrustedProxies    []string
}

// defaultScopes covers profile discovery plus the To Do task surface.
var defaultScopes = []string{"openid", "profile", "offline_access", "Tasks.ReadWrite", "User.Read"}

func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ListenAddr = getenvDefault("APP_LISTEN_ADDR", ":8080")
	cfg.BaseURL = getenvDefault("APP_BASE_URL", "http://localhost:8080")
	cfg.DB.DSN = os.Getenv("APP_DB_DSN")

	if cfg.DB.DSN == "" {
		host := os.Getenv("APP_DB_HOST")
		name := os.Getenv("APP_DB_NAME")
		user := os.Getenv("APP_DB_USER")
		password := os.Getenv("APP_DB_PASSWORD")
		port := getenvDefault("APP_DB_PORT", "5432")
		sslmode := getenvDefault("APP_DB_SSLMODE", "disable")

		if host != "" && name != "" && user != "" && password != "" {
			cfg.DB.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
		}
	}

	cfg.Microsoft.ClientID = os.Getenv("MICROSOFT_CLIENT_ID")
	cfg.Microsoft.ClientSecret = os.Getenv("MICROSOFT_CLIENT_SECRET")
	cfg.Microsoft.Authority = getenvDefault("MICROSOFT_AUTHORITY", "https://login.microsoftonline.com/common/v2.0")
	cfg.Microsoft.RedirectURI = getenvDefault("MICROSOFT_REDIRECT_URI", cfg.BaseURL+"/api/users/microsoft/callback")
	cfg.Microsoft.Scopes = getenvList("MICROSOFT_SCOPES")
	if len(cfg.Microsoft.Scopes) == 0 {
		cfg.Microsoft.Scopes = defaultScopes
	}

	cfg.Log.Level = getenvDefault("APP_LOG_LEVEL", "info")
	cfg.Log.JSON = getenvBool("APP_LOG_JSON", true)
	cfg.PrometheusEnabled = getenvBool("APP_PROMETHEUS_ENDPOINT_ENABLED", false)
	cfg.TrustedProxies = getenvList("APP_TRUSTED_PROXIES")

	if cfg.DB.DSN == "" {
		return nil, errors.New("APP_DB_DSN is required (or set APP_DB_HOST, APP_DB_NAME, APP_DB_USER, and APP_DB_PASSWORD)")
	}
	if cfg.Microsoft.ClientID == "" || cfg.Microsoft.ClientSecret == "" {
		return nil, errors.New("MICROSOFT_CLIENT_ID and MICROSOFT_CLIENT_SECRET are required")
	}

	if len(cfg.TrustedProxies) == 0 {
		fmt.Println("WARNING: No APP_TRUSTED_PROXIES configured. The API will trust all proxies - Not recommended for public environments.")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return def
}

func getenvList(key string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, item := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return nil
}
