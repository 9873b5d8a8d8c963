package platform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aretw0/studydesk/pkg/core"
	"github.com/aretw0/studydesk/pkg/notify"
	"github.com/aretw0/studydesk/pkg/session"
	"github.com/aretw0/studydesk/pkg/studyai"
)

// ConfigName is the base name of the config file in the data directory
// (studydesk.yaml, studydesk.toml or studydesk.json).
const ConfigName = "studydesk"

// EnvPrefix prefixes environment overrides, e.g. STUDYDESK_AUTOSAVE_INTERVAL.
const EnvPrefix = "STUDYDESK"

// Config is the user configuration.
type Config struct {
	AutosaveInterval  time.Duration
	MinAutosaveLength int
	ListLimit         int
	AIModel           string
	AIAPIKey          string
	AIMaxRetries      int
	NotifyTitle       string
	Speech            bool
	Levels            []int
	Versioning        bool

	// File is the config file that was read, if any.
	File string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		AutosaveInterval:  session.DefaultInterval,
		MinAutosaveLength: session.DefaultMinLength,
		ListLimit:         200,
		AIModel:           studyai.DefaultModel,
		AIMaxRetries:      3,
		NotifyTitle:       notify.DefaultTitle,
		Speech:            true,
		Levels:            append([]int(nil), core.DefaultLevels...),
	}
}

func newViper(dir string) *viper.Viper {
	d := DefaultConfig()
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("autosave.interval", d.AutosaveInterval)
	v.SetDefault("autosave.min_length", d.MinAutosaveLength)
	v.SetDefault("notes.list_limit", d.ListLimit)
	v.SetDefault("ai.model", d.AIModel)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.max_retries", d.AIMaxRetries)
	v.SetDefault("notify.title", d.NotifyTitle)
	v.SetDefault("notify.speech", d.Speech)
	v.SetDefault("levels", d.Levels)
	v.SetDefault("versioning", d.Versioning)
	return v
}

// LoadConfig reads the config file from dir, if present, and applies
// STUDYDESK_* environment overrides on top of the defaults.
func LoadConfig(dir string) (Config, error) {
	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	levels, err := parseLevels(v.Get("levels"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AutosaveInterval:  v.GetDuration("autosave.interval"),
		MinAutosaveLength: v.GetInt("autosave.min_length"),
		ListLimit:         v.GetInt("notes.list_limit"),
		AIModel:           v.GetString("ai.model"),
		AIAPIKey:          v.GetString("ai.api_key"),
		AIMaxRetries:      v.GetInt("ai.max_retries"),
		NotifyTitle:       v.GetString("notify.title"),
		Speech:            v.GetBool("notify.speech"),
		Levels:            levels,
		Versioning:        v.GetBool("versioning"),
		File:              v.ConfigFileUsed(),
	}
	if cfg.AutosaveInterval <= 0 {
		return Config{}, fmt.Errorf("autosave.interval must be positive, got %s", cfg.AutosaveInterval)
	}
	return cfg, nil
}

// parseLevels accepts a list from a config file or a comma separated
// string from the environment. Thresholds must be ascending.
func parseLevels(raw any) ([]int, error) {
	var items []string
	switch val := raw.(type) {
	case nil:
		return append([]int(nil), core.DefaultLevels...), nil
	case []int:
		for _, n := range val {
			items = append(items, strconv.Itoa(n))
		}
	case []any:
		for _, n := range val {
			items = append(items, fmt.Sprint(n))
		}
	case string:
		items = strings.FieldsFunc(val, func(r rune) bool { return r == ',' || r == ' ' })
	default:
		return nil, fmt.Errorf("levels must be a list of integers, got %T", raw)
	}

	levels := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, fmt.Errorf("invalid level threshold %q: %w", item, err)
		}
		if len(levels) > 0 && n <= levels[len(levels)-1] {
			return nil, fmt.Errorf("level thresholds must be ascending: %v", items)
		}
		levels = append(levels, n)
	}
	return levels, nil
}
