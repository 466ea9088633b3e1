package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	API        APIConfig        `toml:"api"`
	Logging    LoggingConfig    `toml:"logging"`
	CardFields CardFieldsConfig `toml:"card_fields"`
	UI         UIConfig         `toml:"ui"`
	Keys       KeyConfig        `toml:"keys"`
}

type APIConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
	Timeout string `toml:"timeout"` // Go duration; "0s" disables
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type CardFieldsConfig struct {
	ShowPriority    bool `toml:"show_priority"`
	ShowStatus      bool `toml:"show_status"`
	ShowDueDate     bool `toml:"show_due_date"`
	ShowDescription bool `toml:"show_description"`
}

type UIConfig struct {
	ConfirmQuit   bool   `toml:"confirm_quit"`
	DueSoonWindow string `toml:"due_soon_window"`
}

type KeyConfig struct {
	Grab            string `toml:"grab"`
	Recommendations string `toml:"recommendations"`
	Invite          string `toml:"invite"`
	AddList         string `toml:"add_list"`
}

func Default(logDir string) Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: "0s",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     logDir,
			},
		},
		CardFields: CardFieldsConfig{
			ShowPriority:    true,
			ShowStatus:      true,
			ShowDueDate:     true,
			ShowDescription: true,
		},
		UI: UIConfig{
			ConfirmQuit:   false,
			DueSoonWindow: "48h",
		},
		Keys: KeyConfig{
			Grab:            "m",
			Recommendations: "R",
			Invite:          "I",
			AddList:         "A",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return errors.New("api.base_url is required")
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.base_url: %q", c.API.BaseURL)
	}
	if _, err := c.API.TimeoutDuration(); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if _, err := c.UI.DueSoonDuration(); err != nil {
		return err
	}

	seen := map[string]string{}
	for _, k := range []struct{ name, value string }{
		{"keys.grab", c.Keys.Grab},
		{"keys.recommendations", c.Keys.Recommendations},
		{"keys.invite", c.Keys.Invite},
		{"keys.add_list", c.Keys.AddList},
	} {
		v := strings.TrimSpace(k.value)
		if v == "" {
			return fmt.Errorf("%s is required", k.name)
		}
		if strings.ContainsAny(v, ", ") {
			return fmt.Errorf("%s must be a single key: %q", k.name, k.value)
		}
		if other, ok := seen[v]; ok {
			return fmt.Errorf("%s conflicts with %s: %q", k.name, other, v)
		}
		seen[v] = k.name
	}

	return nil
}

// TimeoutDuration parses api.timeout. Empty means no timeout.
func (a APIConfig) TimeoutDuration() (time.Duration, error) {
	raw := strings.TrimSpace(a.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid api.timeout: %q", a.Timeout)
	}
	if d < 0 {
		return 0, fmt.Errorf("api.timeout must be >= 0: %q", a.Timeout)
	}
	return d, nil
}

// DueSoonDuration parses ui.due_soon_window. Empty disables the highlight.
func (u UIConfig) DueSoonDuration() (time.Duration, error) {
	raw := strings.TrimSpace(u.DueSoonWindow)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid ui.due_soon_window: %q", u.DueSoonWindow)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// UpsertAPIToken writes api.token into the config file at path, keeping
// every other key. The file is created when missing.
func UpsertAPIToken(path, token string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("config path is required")
	}
	doc := map[string]any{}
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(content) > 0 {
			if err := toml.Unmarshal(content, &doc); err != nil {
				return fmt.Errorf("decode toml: %w", err)
			}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("read config: %w", err)
	}

	api, _ := doc["api"].(map[string]any)
	if api == nil {
		api = map[string]any{}
	}
	api["token"] = strings.TrimSpace(token)
	doc["api"] = api

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
