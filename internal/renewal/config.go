package renewal

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config controls the auto-renewal scheduler. It loads from the yaml
// file named by RENEWAL_CONFIG, with env defaults for anything unset.
type Config struct {
	Enabled bool `yaml:"enabled"`
	// DailyAt is the UTC wall-clock time of the daily run, "15:04".
	DailyAt string `yaml:"daily_at"`
	// PeriodDays is the span of each generated renewal order.
	PeriodDays int `yaml:"period_days"`
	// LeadDays is how far before a group's last order ends that the next
	// one is created.
	LeadDays int `yaml:"lead_days"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		Enabled:    getenvBoolDefault("RENEWAL_ENABLED", true),
		DailyAt:    getenvDefault("RENEWAL_DAILY_AT", "02:00"),
		PeriodDays: getenvIntDefault("RENEWAL_PERIOD_DAYS", 28),
		LeadDays:   getenvIntDefault("RENEWAL_LEAD_DAYS", 3),
	}

	if path := os.Getenv("RENEWAL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DailyAt == "" {
		cfg.DailyAt = "02:00"
	}
	if cfg.PeriodDays <= 0 {
		return cfg, errors.New("renewal: period days must be positive")
	}
	if cfg.LeadDays < 0 {
		return cfg, errors.New("renewal: lead days must not be negative")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
