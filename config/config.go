package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	SupabaseURL     string        // Identity/data backend base URL
	SupabaseAnonKey string        // Public API key sent as apikey header
	Port            string        // Service port
	SiteURL         string        // Public site origin, used as email redirect target
	VisitorTTL      time.Duration // Idle lifetime of per-visitor auth state
	InitTimeout     time.Duration // Bounded wait for the startup session query
	JoinTimeout     time.Duration // Bounded wait for session observation after OTP verify
	ResendCooldown  time.Duration // Cooldown between verification-code sends
	RequestTimeout  time.Duration // Per-call timeout at the backend-client boundary
}

// Load reads configuration from environment variables with sensible defaults.
// The two backend connection parameters are required: starting without them
// is a fatal condition.
func Load() (*Config, error) {
	config := &Config{
		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),
		Port:            getEnv("PORT", "8888"),
		SiteURL:         getEnv("SITE_URL", "http://localhost:8888"),
		VisitorTTL:      12 * time.Hour,
		InitTimeout:     5 * time.Second,
		JoinTimeout:     10 * time.Second,
		ResendCooldown:  120 * time.Second,
		RequestTimeout:  5 * time.Second,
	}

	for _, d := range []struct {
		env string
		dst *time.Duration
	}{
		{"VISITOR_TTL", &config.VisitorTTL},
		{"INIT_TIMEOUT", &config.InitTimeout},
		{"JOIN_TIMEOUT", &config.JoinTimeout},
		{"RESEND_COOLDOWN", &config.ResendCooldown},
		{"REQUEST_TIMEOUT", &config.RequestTimeout},
	} {
		if s := os.Getenv(d.env); s != "" {
			duration, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("invalid %s format: %w", d.env, err)
			}
			*d.dst = duration
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL cannot be empty")
	}

	if c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_ANON_KEY cannot be empty")
	}

	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.VisitorTTL <= 0 {
		return fmt.Errorf("VISITOR_TTL must be positive")
	}

	if c.ResendCooldown <= 0 {
		return fmt.Errorf("RESEND_COOLDOWN must be positive")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
