package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Capability names accepted in DisabledCapabilities.
const (
	CapabilityDetector   = "detector"
	CapabilityTranslator = "translator"
	CapabilitySummarizer = "summarizer"
)

// KnownCapabilities lists the capability names a host can supply.
var KnownCapabilities = []string{CapabilityDetector, CapabilityTranslator, CapabilitySummarizer}

// Config holds application configuration.
type Config struct {
	// GeminiModel is the model used by the Gemini host for all three capabilities
	GeminiModel string `json:"gemini_model,omitempty"`

	// GeminiAPIKeyEnv names the environment variable holding the Gemini API key.
	// Without a key the Gemini host exposes no capabilities.
	GeminiAPIKeyEnv string `json:"gemini_api_key_env,omitempty"`

	// DisabledCapabilities removes host capabilities before the startup probe.
	// Known names: "detector", "translator", "summarizer".
	DisabledCapabilities []string `json:"disabled_capabilities,omitempty"`

	// TranslationTargets are the language codes offered as translation targets.
	TranslationTargets []string `json:"translation_targets,omitempty"`

	// SummaryMinChars is the rune count an English message must exceed
	// before the summarize action is offered.
	SummaryMinChars int `json:"summary_min_chars,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// DisableJournal turns off the sqlite call journal.
	DisableJournal bool `json:"disable_journal,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names to disable entirely.
	// Known types: "capability", "message", "conversation", "error", "journal".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		GeminiModel:        "gemini-2.5-flash",
		GeminiAPIKeyEnv:    "GEMINI_API_KEY",
		TranslationTargets: []string{"en", "pt", "es", "ru", "tr", "fr"},
		SummaryMinChars:    150,
		LogLevel:           "info",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.parley) and repo (.parley) directories.
// Repo config is found by walking upward from startDir to find the nearest .parley/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .parley/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".parley", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// CapabilityDisabled reports whether the named capability is switched off.
func (c *Config) CapabilityDisabled(name string) bool {
	for _, d := range c.DisabledCapabilities {
		if strings.EqualFold(strings.TrimSpace(d), name) {
			return true
		}
	}
	return false
}

// UnknownCapabilities returns entries of DisabledCapabilities that name no known capability.
func (c *Config) UnknownCapabilities() []string {
	unknown := make([]string, 0)
	for _, d := range c.DisabledCapabilities {
		found := false
		for _, k := range KnownCapabilities {
			if strings.EqualFold(strings.TrimSpace(d), k) {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, d)
		}
	}
	return unknown
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated,
// except TranslationTargets which the overlay replaces as a whole.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.GeminiModel = firstNonEmpty(overlay.GeminiModel, base.GeminiModel)
	result.GeminiAPIKeyEnv = firstNonEmpty(overlay.GeminiAPIKeyEnv, base.GeminiAPIKeyEnv)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)

	result.SummaryMinChars = overlay.SummaryMinChars
	if result.SummaryMinChars == 0 {
		result.SummaryMinChars = base.SummaryMinChars
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.DisableJournal = base.DisableJournal || overlay.DisableJournal

	// Target list is an ordered menu, so the overlay replaces it
	result.TranslationTargets = mergeStringSlice(nil, base.TranslationTargets)
	if len(overlay.TranslationTargets) > 0 {
		result.TranslationTargets = mergeStringSlice(nil, overlay.TranslationTargets)
	}

	result.DisabledCapabilities = mergeStringSlice(base.DisabledCapabilities, overlay.DisabledCapabilities)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
