package atlas_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/atlasrotate/internal/atlas"
	"github.com/systmms/atlasrotate/internal/rotation"
	"github.com/systmms/atlasrotate/tests/fakes"
)

func TestLoadAPIKeys(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		store := fakes.NewFakeStore()
		store.AddVersion("v1", `{"public_key":"pub","private_key":"private-key-material"}`, rotation.StageCurrent)

		keys, err := atlas.LoadAPIKeys(context.Background(), store, "atlas/api-keys")
		require.NoError(t, err)
		assert.Equal(t, "pub", keys.PublicKey)
		assert.Equal(t, "private-key-material", string(keys.PrivateKey))

		// Formatting the keys must never leak the private key.
		assert.NotContains(t, fmt.Sprintf("%v %s %#v", keys, keys.PrivateKey, keys), "private-key-material")
	})

	t.Run("name_not_configured", func(t *testing.T) {
		t.Parallel()
		store := fakes.NewFakeStore()

		_, err := atlas.LoadAPIKeys(context.Background(), store, "")
		require.Error(t, err)
		assert.True(t, rotation.IsValidation(err))
	})

	t.Run("secret_missing", func(t *testing.T) {
		t.Parallel()
		store := fakes.NewFakeStore()

		_, err := atlas.LoadAPIKeys(context.Background(), store, "atlas/api-keys")
		require.Error(t, err)
		assert.True(t, rotation.IsNotFound(err))
	})

	t.Run("not_json", func(t *testing.T) {
		t.Parallel()
		store := fakes.NewFakeStore()
		store.AddVersion("v1", "not json at all", rotation.StageCurrent)

		_, err := atlas.LoadAPIKeys(context.Background(), store, "atlas/api-keys")
		require.Error(t, err)
		assert.True(t, rotation.IsValidation(err))
	})

	t.Run("missing_key_material", func(t *testing.T) {
		t.Parallel()
		store := fakes.NewFakeStore()
		store.AddVersion("v1", `{"public_key":"pub"}`, rotation.StageCurrent)

		_, err := atlas.LoadAPIKeys(context.Background(), store, "atlas/api-keys")
		require.Error(t, err)
		assert.True(t, rotation.IsValidation(err))
		assert.Contains(t, err.Error(), "private_key")
	})
}

func TestNewAdminUsers(t *testing.T) {
	t.Parallel()

	users, err := atlas.NewAdminUsers(atlas.APIKeys{PublicKey: "pub", PrivateKey: "priv"})
	require.NoError(t, err)
	assert.NotNil(t, users)
}
