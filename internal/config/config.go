// Package config holds the deployment-time configuration for the
// rotation function. Under Lambda, configuration comes from environment
// variables; rotatectl can additionally load a YAML file.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SupportedEngine is the single engine identifier this deployment
// rotates. Every fetched secret dictionary must carry it.
const SupportedEngine = "mongodbatlas"

// MinPasswordLength is the floor enforced on configured password length.
const MinPasswordLength = 25

// DefaultPasswordLength is used when PASSWORD_LENGTH is not set.
const DefaultPasswordLength = 32

// DefaultExcludeCharacters is the punctuation blacklist applied when
// EXCLUDE_CHARACTERS is not set. These characters break naive URI and
// shell quoting in downstream consumers of the secret.
const DefaultExcludeCharacters = ":/\"\\'\\\\$%&*()[]{}<>?!.,;|`"

// PasswordPolicy parameterizes the secret store's random password
// generator. It is read once at startup, never from the event.
type PasswordPolicy struct {
	ExcludeCharacters       string `yaml:"exclude_characters"`
	Length                  int64  `yaml:"length"`
	ExcludeNumbers          bool   `yaml:"exclude_numbers"`
	ExcludePunctuation      bool   `yaml:"exclude_punctuation"`
	ExcludeUppercase        bool   `yaml:"exclude_uppercase"`
	ExcludeLowercase        bool   `yaml:"exclude_lowercase"`
	RequireEachIncludedType bool   `yaml:"require_each_included_type"`
}

// Config is the process-wide configuration, constructed once and passed
// explicitly into the dispatcher and adapters.
type Config struct {
	// Engine is the only engine identifier accepted in secret payloads.
	Engine string `yaml:"engine"`

	// AtlasSecretName names the Secrets Manager secret holding the
	// MongoDB Atlas API keys (public_key/private_key).
	AtlasSecretName string `yaml:"atlas_secret_name"`

	// Region overrides the AWS region, if set.
	Region string `yaml:"region"`

	// Debug enables debug logging.
	Debug bool `yaml:"debug"`

	Policy PasswordPolicy `yaml:"password_policy"`
}

// Error is a configuration error with enough context to fix it.
type Error struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e Error) Error() string {
	msg := "configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message
	if e.Suggestion != "" {
		msg += ". " + e.Suggestion
	}
	return msg
}

// FromEnv builds the configuration from environment variables. The
// variable names match the deployed rotation function:
//
//	MONGODB_ATLAS_SECRET_NAME
//	EXCLUDE_CHARACTERS
//	PASSWORD_LENGTH
//	EXCLUDE_NUMBERS
//	EXCLUDE_PUNCTUATION
//	EXCLUDE_UPPERCASE
//	EXCLUDE_LOWERCASE
//	REQUIRE_EACH_INCLUDED_TYPE
//	ROTATOR_DEBUG
func FromEnv() (*Config, error) {
	cfg := &Config{
		Engine:          SupportedEngine,
		AtlasSecretName: os.Getenv("MONGODB_ATLAS_SECRET_NAME"),
		Region:          os.Getenv("AWS_REGION"),
		Debug:           envBool("ROTATOR_DEBUG", false),
		Policy: PasswordPolicy{
			ExcludeCharacters:       envString("EXCLUDE_CHARACTERS", DefaultExcludeCharacters),
			ExcludeNumbers:          envBool("EXCLUDE_NUMBERS", false),
			ExcludePunctuation:      envBool("EXCLUDE_PUNCTUATION", false),
			ExcludeUppercase:        envBool("EXCLUDE_UPPERCASE", false),
			ExcludeLowercase:        envBool("EXCLUDE_LOWERCASE", false),
			RequireEachIncludedType: envBool("REQUIRE_EACH_INCLUDED_TYPE", false),
		},
	}

	lengthStr := envString("PASSWORD_LENGTH", strconv.Itoa(DefaultPasswordLength))
	length, err := strconv.ParseInt(lengthStr, 10, 64)
	if err != nil {
		return nil, Error{
			Field:      "PASSWORD_LENGTH",
			Value:      lengthStr,
			Message:    "must be an integer",
			Suggestion: "Unset it to use the default of 32",
		}
	}
	cfg.Policy.Length = length

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a YAML configuration file, applying the same defaults and
// validation as FromEnv. Used by rotatectl.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Error{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Pass --config with the path to a rotator config file",
			}
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	cfg := &Config{
		Engine: SupportedEngine,
		Policy: PasswordPolicy{
			ExcludeCharacters: DefaultExcludeCharacters,
			Length:            DefaultPasswordLength,
		},
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, Error{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}
	if cfg.Policy.Length == 0 {
		cfg.Policy.Length = DefaultPasswordLength
	}
	if cfg.Policy.ExcludeCharacters == "" {
		cfg.Policy.ExcludeCharacters = DefaultExcludeCharacters
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the deployment invariants: exactly one supported
// engine, an Atlas credentials secret, and a sane password policy.
func (c *Config) Validate() error {
	if c.Engine == "" {
		return Error{Field: "engine", Message: "supported engine must be set"}
	}
	if c.AtlasSecretName == "" {
		return Error{
			Field:      "atlas_secret_name",
			Message:    "Atlas API key secret name must be set",
			Suggestion: "Set the MONGODB_ATLAS_SECRET_NAME environment variable",
		}
	}
	if c.Policy.Length < MinPasswordLength {
		return Error{
			Field:      "password_policy.length",
			Value:      c.Policy.Length,
			Message:    fmt.Sprintf("generated passwords must be at least %d characters", MinPasswordLength),
			Suggestion: "Raise PASSWORD_LENGTH or unset it to use the default of 32",
		}
	}
	if c.Policy.ExcludeNumbers && c.Policy.ExcludePunctuation &&
		c.Policy.ExcludeUppercase && c.Policy.ExcludeLowercase {
		return Error{
			Field:   "password_policy",
			Message: "every character class is excluded, no password can be generated",
		}
	}
	return nil
}

func envString(name, fallback string) string {
	if value, ok := os.LookupEnv(name); ok {
		return value
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	value, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	truthy := []string{"true", "t", "1", "yes", "y"}
	return slices.Contains(truthy, strings.ToLower(value))
}
