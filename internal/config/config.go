// Package config handles configuration loading and data home resolution.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// SummarizerConfig holds settings for the external text-summarization
// endpoint. The endpoint is opaque and best-effort.
type SummarizerConfig struct {
	Provider string `yaml:"provider"` // "gemini" | "openai" | "none"
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"` // #nosec G117 -- APIKey is an intentional field name for the summarizer's authentication token
}

// SyncConfig controls read fan-out and presence behaviour.
type SyncConfig struct {
	FanoutLimit       int `yaml:"fanout_limit"`        // max concurrent per-id reads in a join
	OnlineWindowSecs  int `yaml:"online_window_secs"`  // lastActive within this window shows as Online
	HeartbeatInterval int `yaml:"heartbeat_interval"`  // presence heartbeat period, seconds
}

// TeamflowConfig is the root per-home configuration.
type TeamflowConfig struct {
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Sync       SyncConfig       `yaml:"sync"`
}

// Default returns a TeamflowConfig populated with sensible defaults.
func Default() *TeamflowConfig {
	return &TeamflowConfig{
		Summarizer: SummarizerConfig{
			Provider: "none",
			Model:    "gemini-1.5-flash",
		},
		Sync: SyncConfig{
			FanoutLimit:       8,
			OnlineWindowSecs:  60,
			HeartbeatInterval: 60,
		},
	}
}

// Load reads a per-home config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values.
func Load(path string) (*TeamflowConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Unmarshal into a plain map so we can apply only the keys that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if sum, ok := raw["summarizer"].(map[string]any); ok {
		if v, ok := sum["provider"].(string); ok && v != "" {
			cfg.Summarizer.Provider = v
		}
		if v, ok := sum["model"].(string); ok && v != "" {
			cfg.Summarizer.Model = v
		}
		if v, ok := sum["base_url"].(string); ok {
			cfg.Summarizer.BaseURL = v
		}
		if v, ok := sum["api_key"].(string); ok {
			cfg.Summarizer.APIKey = v
		}
	}

	if sync, ok := raw["sync"].(map[string]any); ok {
		if v, ok := sync["fanout_limit"].(int); ok && v > 0 {
			cfg.Sync.FanoutLimit = v
		}
		if v, ok := sync["online_window_secs"].(int); ok && v > 0 {
			cfg.Sync.OnlineWindowSecs = v
		}
		if v, ok := sync["heartbeat_interval"].(int); ok && v > 0 {
			cfg.Sync.HeartbeatInterval = v
		}
	}

	return cfg, nil
}

// ---------------------------------------------------------------------------
// Data home resolution
// ---------------------------------------------------------------------------

// globalConfigPath returns the path to the global teamflow config file.
// This file stores only data_home (and future global settings).
func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "teamflow", "config.yaml"), nil
}

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// ResolveDataHome returns the data home path and the source of the resolution.
// Priority: TEAMFLOW_HOME env → persisted global config → ~/.teamflow
// source is one of "env", "config", or "default".
func ResolveDataHome() (path, source string) {
	if env := os.Getenv("TEAMFLOW_HOME"); env != "" {
		p, err := normalizePath(env)
		if err == nil {
			return p, "env"
		}
	}

	if persisted, ok, _ := GetPersistedDataHome(); ok {
		return persisted, "config"
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".teamflow"), "default"
}

// GetDataHome returns the resolved data home path.
func GetDataHome() string {
	path, _ := ResolveDataHome()
	return path
}

// GetPersistedDataHome reads data_home from the global config.
// Returns ("", false, nil) if not set.
func GetPersistedDataHome() (string, bool, error) {
	cfgPath, err := globalConfigPath()
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", false, nil
	}

	val, _ := raw["data_home"].(string)
	val = strings.TrimSpace(val)
	if val == "" {
		return "", false, nil
	}

	p, err := normalizePath(val)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// ClearPersistedDataHome removes data_home from the global config.
// Returns true when a setting was actually removed.
func ClearPersistedDataHome() (bool, error) {
	cfgPath, err := globalConfigPath()
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return false, err
	}
	if _, ok := raw["data_home"]; !ok {
		return false, nil
	}
	delete(raw, "data_home")

	out, err := yaml.Marshal(raw)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(cfgPath, out, 0o600); err != nil {
		return false, err
	}
	return true, nil
}

// SetPersistedDataHome normalizes path and persists it in the global config.
// Returns the normalized path.
func SetPersistedDataHome(path string) (string, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return "", err
	}

	cfgPath, err := globalConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", err
	}

	// Read existing global config, preserving any other keys.
	var raw map[string]any
	if data, err := os.ReadFile(cfgPath); err == nil {
		_ = yaml.Unmarshal(data, &raw)
	}
	if raw == nil {
		raw = make(map[string]any)
	}
	raw["data_home"] = normalized

	out, err := yaml.Marshal(raw)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(cfgPath, out, 0o600); err != nil {
		return "", err
	}
	return normalized, nil
}
