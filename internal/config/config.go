package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete orgdelta configuration
type Config struct {
	APIVersion     string            `yaml:"api_version"`
	CLI            CLIConfig         `yaml:"cli"`
	Orgs           OrgsConfig        `yaml:"orgs"`
	TypeMap        map[string]string `yaml:"type_map"`
	ExemptTypes    []string          `yaml:"exempt_types"`
	IgnorePatterns []string          `yaml:"ignore_patterns"`
	Snapshot       SnapshotConfig    `yaml:"snapshot"`
}

// CLIConfig configures the wrapped platform CLI
type CLIConfig struct {
	Binary string `yaml:"binary"`
}

// OrgsConfig holds the default org aliases for comparison runs
type OrgsConfig struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

// SnapshotConfig configures snapshot publishing to S3
type SnapshotConfig struct {
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

// defaultTypeMap maps retrieval folder names to metadata type names. Config
// entries are merged on top, so unusual folders can be taught per project.
var defaultTypeMap = map[string]string{
	"applications":       "CustomApplication",
	"aura":               "AuraDefinitionBundle",
	"classes":            "ApexClass",
	"components":         "ApexComponent",
	"dashboards":         "Dashboard",
	"email":              "EmailTemplate",
	"flows":              "Flow",
	"labels":             "CustomLabels",
	"layouts":            "Layout",
	"lwc":                "LightningComponentBundle",
	"objects":            "CustomObject",
	"objectTranslations": "CustomObjectTranslation",
	"pages":              "ApexPage",
	"permissionsets":     "PermissionSet",
	"profiles":           "Profile",
	"queues":             "Queue",
	"reports":            "Report",
	"staticresources":    "StaticResource",
	"tabs":               "CustomTab",
	"triggers":           "ApexTrigger",
	"workflows":          "Workflow",
}

// Default returns the configuration used when no config file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.expandEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// expandEnv expands environment variables in string fields
func (c *Config) expandEnv() {
	c.APIVersion = os.ExpandEnv(c.APIVersion)
	c.CLI.Binary = os.ExpandEnv(c.CLI.Binary)
	c.Orgs.Source = os.ExpandEnv(c.Orgs.Source)
	c.Orgs.Dest = os.ExpandEnv(c.Orgs.Dest)
	c.Snapshot.Bucket = os.ExpandEnv(c.Snapshot.Bucket)
	c.Snapshot.Prefix = os.ExpandEnv(c.Snapshot.Prefix)
	c.Snapshot.Region = os.ExpandEnv(c.Snapshot.Region)
	c.Snapshot.Profile = os.ExpandEnv(c.Snapshot.Profile)
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = "61.0"
	}
	if c.CLI.Binary == "" {
		c.CLI.Binary = "sf"
	}

	merged := make(map[string]string, len(defaultTypeMap)+len(c.TypeMap))
	for folder, typeName := range defaultTypeMap {
		merged[folder] = typeName
	}
	for folder, typeName := range c.TypeMap {
		merged[folder] = typeName
	}
	c.TypeMap = merged
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	parts := strings.SplitN(c.APIVersion, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("api_version must look like \"61.0\": %s", c.APIVersion)
	}
	for _, part := range parts {
		if _, err := strconv.Atoi(part); err != nil {
			return fmt.Errorf("api_version must be numeric: %s", c.APIVersion)
		}
	}

	for folder, typeName := range c.TypeMap {
		if folder == "" || typeName == "" {
			return fmt.Errorf("type_map entries must have both folder and type (folder=%q, type=%q)", folder, typeName)
		}
	}

	for _, typeName := range c.ExemptTypes {
		if typeName == "" {
			return fmt.Errorf("exempt_types entries must not be empty")
		}
	}

	if c.Snapshot.Prefix != "" && c.Snapshot.Bucket == "" {
		return fmt.Errorf("snapshot.bucket is required when snapshot.prefix is set")
	}

	return nil
}

// ExemptSet returns the exemption list as a lookup set
func (c *Config) ExemptSet() map[string]bool {
	set := make(map[string]bool, len(c.ExemptTypes))
	for _, typeName := range c.ExemptTypes {
		set[typeName] = true
	}
	return set
}
