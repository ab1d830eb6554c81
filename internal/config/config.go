package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the ingress API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration. The Discord token is
// never written to the config file; it comes from the environment only.
type Config struct {
	// Listen is the HTTP listen address for health, metrics and the
	// reaction ingress endpoint.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA name of the civil timezone assumed for memo
	// lines, which carry no zone information (e.g. "Asia/Tokyo").
	Timezone string `yaml:"timezone" json:"timezone"`

	// MemoChannel is the designated channel name; toggles from any other
	// channel are ignored.
	MemoChannel string `yaml:"memo_channel" json:"memo_channel"`

	// TriggerEmoji is the reaction that drives confirm/unconfirm.
	TriggerEmoji string `yaml:"trigger_emoji" json:"trigger_emoji"`

	// AdminUserID restricts toggles to a single operator. Empty disables
	// the restriction.
	AdminUserID string `yaml:"admin_user_id" json:"admin_user_id"`

	// StateBackend selects the record store: "json" or "sqlite".
	StateBackend string `yaml:"state_backend" json:"state_backend"`

	// StatePath is the state file path (JSON document or SQLite database,
	// depending on StateBackend).
	StatePath string `yaml:"state_path" json:"state_path"`

	// SnapshotCron is a cron-style schedule for periodic state snapshots.
	// Empty disables the snapshot job.
	SnapshotCron string `yaml:"snapshot" json:"snapshot"`

	// SnapshotDir is where snapshots are written.
	SnapshotDir string `yaml:"snapshot_dir" json:"snapshot_dir"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// DiscordToken is the bot token, environment-only.
	DiscordToken string `yaml:"-" json:"-"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "0.0.0.0:10000",
		Timezone:     "Asia/Tokyo",
		MemoChannel:  "memo",
		TriggerEmoji: "✅",
		StateBackend: "json",
		StatePath:    "data/state.json",
		SnapshotCron: "0 * * * *",
		SnapshotDir:  "data/snapshots",
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "0.0.0.0:10000"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Tokyo"
	}
	if c.MemoChannel == "" {
		c.MemoChannel = "memo"
	}
	if c.TriggerEmoji == "" {
		c.TriggerEmoji = "✅"
	}
	switch c.StateBackend {
	case "json", "sqlite":
		// ok
	default:
		c.StateBackend = "json"
	}
	if c.StatePath == "" {
		if c.StateBackend == "sqlite" {
			c.StatePath = "data/state.db"
		} else {
			c.StatePath = "data/state.json"
		}
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = "data/snapshots"
	}
}

// ApplyEnv overlays environment variables on top of the file config. The
// variable names match the original deployment of this bot.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.DiscordToken = v
	}
	if v := os.Getenv("MEMO_CHANNEL_NAME"); v != "" {
		c.MemoChannel = v
	}
	if v := os.Getenv("TRIGGER_EMOJI"); v != "" {
		c.TriggerEmoji = v
	}
	if v := os.Getenv("ADMIN_USER_ID"); v != "" {
		c.AdminUserID = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Listen = "0.0.0.0:" + v
	}
}

// Location resolves the configured civil timezone. An unresolvable name
// falls back to fixed UTC+9, the zone the memo grammar was written for.
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600) and
// returned. Environment overlays are applied in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.ApplyEnv()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".memocal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
