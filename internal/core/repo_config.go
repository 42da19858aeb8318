package core

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RepoConfig represents the structure of the .patchpilot.yml file that a
// repository may carry to tune its own reviews. All fields are optional;
// zero values mean "use the server default".
type RepoConfig struct {
	// Minimum severity an issue needs to become an inline comment.
	// One of "suggestion", "warning", "error".
	MinSeverity string `yaml:"min_severity"`

	// Review body layout: "compact" or "detailed".
	Layout string `yaml:"layout"`

	// Hard cap on the number of inline comments per review. 0 keeps the
	// server default.
	MaxComments int `yaml:"max_comments"`

	// Custom instructions appended to the review prompt.
	CustomInstructions []string `yaml:"custom_instructions"`

	// Directories excluded from the snippet context sent to the model.
	// Example: ["dist", "vendor", "docs"]
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// File extensions excluded from the snippet context. The leading dot
	// is optional. Example: [".md", "lock", ".svg"]
	ExcludeExts []string `yaml:"exclude_exts"`
}

// DefaultRepoConfig returns a config with default values.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		CustomInstructions: []string{},
		ExcludeDirs:        []string{},
		ExcludeExts:        []string{},
	}
}

// ParseRepoConfig parses .patchpilot.yml content. Unknown severities and
// layouts are rejected here so a typo in the repo file surfaces as a log
// line instead of silently changing review behavior.
func ParseRepoConfig(data []byte) (*RepoConfig, error) {
	cfg := DefaultRepoConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}

	if cfg.MinSeverity != "" {
		if _, ok := ParseSeverity(cfg.MinSeverity); !ok {
			return nil, fmt.Errorf("invalid min_severity %q", cfg.MinSeverity)
		}
	}
	switch cfg.Layout {
	case "", "compact", "detailed":
	default:
		return nil, fmt.Errorf("invalid layout %q", cfg.Layout)
	}
	if cfg.MaxComments < 0 {
		return nil, fmt.Errorf("max_comments must not be negative, got %d", cfg.MaxComments)
	}

	return cfg, nil
}
