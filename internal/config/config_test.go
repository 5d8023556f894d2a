package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/atlasrotate/internal/config"
)

func clearRotatorEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"MONGODB_ATLAS_SECRET_NAME",
		"EXCLUDE_CHARACTERS",
		"PASSWORD_LENGTH",
		"EXCLUDE_NUMBERS",
		"EXCLUDE_PUNCTUATION",
		"EXCLUDE_UPPERCASE",
		"EXCLUDE_LOWERCASE",
		"REQUIRE_EACH_INCLUDED_TYPE",
		"ROTATOR_DEBUG",
		"AWS_REGION",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearRotatorEnv(t)
	t.Setenv("MONGODB_ATLAS_SECRET_NAME", "atlas/api-keys")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, config.SupportedEngine, cfg.Engine)
	assert.Equal(t, "atlas/api-keys", cfg.AtlasSecretName)
	assert.False(t, cfg.Debug)
	assert.Equal(t, int64(config.DefaultPasswordLength), cfg.Policy.Length)
	assert.Equal(t, config.DefaultExcludeCharacters, cfg.Policy.ExcludeCharacters)
	assert.False(t, cfg.Policy.ExcludeNumbers)
	assert.False(t, cfg.Policy.RequireEachIncludedType)
}

func TestFromEnvOverrides(t *testing.T) {
	clearRotatorEnv(t)
	t.Setenv("MONGODB_ATLAS_SECRET_NAME", "atlas/api-keys")
	t.Setenv("EXCLUDE_CHARACTERS", "@#")
	t.Setenv("PASSWORD_LENGTH", "40")
	t.Setenv("EXCLUDE_PUNCTUATION", "true")
	t.Setenv("REQUIRE_EACH_INCLUDED_TYPE", "yes")
	t.Setenv("ROTATOR_DEBUG", "1")
	t.Setenv("AWS_REGION", "eu-central-1")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "@#", cfg.Policy.ExcludeCharacters)
	assert.Equal(t, int64(40), cfg.Policy.Length)
	assert.True(t, cfg.Policy.ExcludePunctuation)
	assert.True(t, cfg.Policy.RequireEachIncludedType)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "eu-central-1", cfg.Region)
}

func TestFromEnvBoolParsing(t *testing.T) {
	for _, tc := range []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"t", true},
		{"1", true},
		{"yes", true},
		{"y", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"anything-else", false},
	} {
		t.Run(tc.value, func(t *testing.T) {
			clearRotatorEnv(t)
			t.Setenv("MONGODB_ATLAS_SECRET_NAME", "atlas/api-keys")
			t.Setenv("EXCLUDE_NUMBERS", tc.value)

			cfg, err := config.FromEnv()
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Policy.ExcludeNumbers)
		})
	}
}

func TestFromEnvRejectsBadLength(t *testing.T) {
	clearRotatorEnv(t)
	t.Setenv("MONGODB_ATLAS_SECRET_NAME", "atlas/api-keys")
	t.Setenv("PASSWORD_LENGTH", "thirty")

	_, err := config.FromEnv()
	require.Error(t, err)

	var cfgErr config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "PASSWORD_LENGTH", cfgErr.Field)
}

func TestFromEnvRequiresAtlasSecretName(t *testing.T) {
	clearRotatorEnv(t)

	_, err := config.FromEnv()
	require.Error(t, err)

	var cfgErr config.Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "atlas_secret_name", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *config.Config {
		return &config.Config{
			Engine:          config.SupportedEngine,
			AtlasSecretName: "atlas/api-keys",
			Policy: config.PasswordPolicy{
				ExcludeCharacters: config.DefaultExcludeCharacters,
				Length:            config.DefaultPasswordLength,
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, valid().Validate())
	})

	t.Run("length_below_minimum", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Policy.Length = config.MinPasswordLength - 1

		err := cfg.Validate()
		require.Error(t, err)
		var cfgErr config.Error
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "password_policy.length", cfgErr.Field)
	})

	t.Run("length_at_minimum", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Policy.Length = config.MinPasswordLength
		assert.NoError(t, cfg.Validate())
	})

	t.Run("all_character_classes_excluded", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Policy.ExcludeNumbers = true
		cfg.Policy.ExcludePunctuation = true
		cfg.Policy.ExcludeUppercase = true
		cfg.Policy.ExcludeLowercase = true

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "every character class is excluded")
	})

	t.Run("missing_engine", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Engine = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	writeConfig := func(t *testing.T, contents string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "rotator.yaml")
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
		return path
	}

	t.Run("full_file", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `
engine: mongodbatlas
atlas_secret_name: atlas/api-keys
region: us-west-2
debug: true
password_policy:
  length: 48
  exclude_characters: "@#"
  exclude_punctuation: true
`)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "us-west-2", cfg.Region)
		assert.True(t, cfg.Debug)
		assert.Equal(t, int64(48), cfg.Policy.Length)
		assert.Equal(t, "@#", cfg.Policy.ExcludeCharacters)
		assert.True(t, cfg.Policy.ExcludePunctuation)
	})

	t.Run("defaults_backfilled", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "atlas_secret_name: atlas/api-keys\n")

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, config.SupportedEngine, cfg.Engine)
		assert.Equal(t, int64(config.DefaultPasswordLength), cfg.Policy.Length)
		assert.Equal(t, config.DefaultExcludeCharacters, cfg.Policy.ExcludeCharacters)
	})

	t.Run("missing_file", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		var cfgErr config.Error
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "path", cfgErr.Field)
	})

	t.Run("invalid_yaml", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "atlas_secret_name: [unclosed\n  bad")
		_, err := config.Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid YAML")
	})

	t.Run("validation_applies", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `
atlas_secret_name: atlas/api-keys
password_policy:
  length: 10
`)
		_, err := config.Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 25")
	})
}
