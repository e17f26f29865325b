package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/trustflow/pkg/domain/model/config"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

var lookupIDPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// SeedConfig is the lookup seed file
type SeedConfig struct {
	Statuses   []LookupEntry `toml:"status"`
	Priorities []LookupEntry `toml:"priority"`
	Types      []LookupEntry `toml:"type"`
	Severities []LookupEntry `toml:"severity"`
}

// LookupEntry represents one seeded status, priority, type or severity
type LookupEntry struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Order       int    `toml:"order"`
	Default     bool   `toml:"default"`
}

// Validate checks if the LookupEntry is valid
func (e *LookupEntry) Validate() error {
	if !lookupIDPattern.MatchString(e.ID) {
		return goerr.Wrap(ErrInvalidLookupID, "lookup ID must be lower-case alphanumeric with hyphens",
			goerr.V(LookupIDKey, e.ID))
	}
	if e.Name == "" {
		return goerr.Wrap(ErrMissingName, "lookup name is required", goerr.V(LookupIDKey, e.ID))
	}
	return nil
}

func (c *SeedConfig) sections() map[types.LookupKind][]LookupEntry {
	return map[types.LookupKind][]LookupEntry{
		types.LookupKindStatus:   c.Statuses,
		types.LookupKindPriority: c.Priorities,
		types.LookupKindType:     c.Types,
		types.LookupKindSeverity: c.Severities,
	}
}

// Validate checks every entry and rejects duplicate IDs within a kind
func (c *SeedConfig) Validate() error {
	for kind, entries := range c.sections() {
		ids := make(map[string]bool, len(entries))
		for _, e := range entries {
			if err := e.Validate(); err != nil {
				return goerr.Wrap(err, "invalid lookup entry", goerr.V(LookupKindKey, kind))
			}
			if ids[e.ID] {
				return goerr.Wrap(ErrDuplicateLookupID, "duplicate lookup ID",
					goerr.V(LookupKindKey, kind),
					goerr.V(LookupIDKey, e.ID))
			}
			ids[e.ID] = true
		}
	}
	return nil
}

// LoadSeedConfiguration loads the lookup seed from a TOML file
func LoadSeedConfiguration(path string) (*SeedConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "seed file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read seed file", goerr.V(ConfigPathKey, path))
	}

	var cfg SeedConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML seed file",
			goerr.V(ConfigPathKey, path),
			goerr.V("reason", err.Error()))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "seed file validation failed", goerr.V(ConfigPathKey, path))
	}

	return &cfg, nil
}

// ToDomainLookupSeed converts SeedConfig to the domain LookupSeed
func (c *SeedConfig) ToDomainLookupSeed() *domainConfig.LookupSeed {
	convert := func(entries []LookupEntry) []domainConfig.LookupEntry {
		result := make([]domainConfig.LookupEntry, len(entries))
		for i, e := range entries {
			result[i] = domainConfig.LookupEntry{
				ID:          e.ID,
				Name:        e.Name,
				Description: e.Description,
				Order:       e.Order,
				IsDefault:   e.Default,
			}
		}
		return result
	}

	return &domainConfig.LookupSeed{
		Statuses:   convert(c.Statuses),
		Priorities: convert(c.Priorities),
		Types:      convert(c.Types),
		Severities: convert(c.Severities),
	}
}
