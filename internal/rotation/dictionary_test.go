package rotation_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/atlasrotate/internal/rotation"
)

const testEngine = "mongodbatlas"

func TestParseDictionary(t *testing.T) {
	t.Parallel()

	raw := `{
		"engine": "mongodbatlas",
		"username": "app",
		"password": "p0",
		"project_id": "5f3c",
		"project_name": "production",
		"connection_string": "mongodb//cluster0.example.net/admin",
		"custom_tag": "kept"
	}`

	dict, err := rotation.ParseDictionary(raw, testEngine)
	require.NoError(t, err)

	assert.Equal(t, "mongodbatlas", dict.Engine)
	assert.Equal(t, "app", dict.Username)
	assert.Equal(t, "p0", dict.Password)
	assert.Equal(t, "5f3c", dict.ProjectID)
	assert.Equal(t, "production", dict.ProjectName)
	assert.Equal(t, "mongodb//cluster0.example.net/admin", dict.ConnectionString)
	assert.Equal(t, map[string]string{"custom_tag": "kept"}, dict.Extra)
}

func TestParseDictionaryRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "engine_missing",
			raw:  `{"username":"app","password":"p0"}`,
		},
		{
			name: "engine_mismatch",
			raw:  `{"engine":"postgres","username":"app","password":"p0"}`,
		},
		{
			name: "engine_empty",
			raw:  `{"engine":"","username":"app","password":"p0"}`,
		},
		{
			name: "username_missing",
			raw:  `{"engine":"mongodbatlas","password":"p0"}`,
		},
		{
			name: "not_json",
			raw:  `not json at all`,
		},
		{
			name: "wrong_field_type",
			raw:  `{"engine":"mongodbatlas","username":"app","password":"p0","project_id":12}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := rotation.ParseDictionary(tt.raw, testEngine)
			require.Error(t, err)
			assert.True(t, rotation.IsValidation(err), "expected a validation error, got %T: %v", err, err)
		})
	}
}

func TestDictionaryEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	raw := `{
		"engine": "mongodbatlas",
		"username": "app",
		"password": "p0",
		"auth_database": "admin",
		"private_connection_string_srv": "mongodb+srv//cluster0-pri.example.net/admin",
		"team": "platform"
	}`

	dict, err := rotation.ParseDictionary(raw, testEngine)
	require.NoError(t, err)

	dict.Password = "p1"
	encoded, err := dict.Encode()
	require.NoError(t, err)

	var fields map[string]string
	require.NoError(t, json.Unmarshal([]byte(encoded), &fields))
	assert.Equal(t, "p1", fields["password"])
	assert.Equal(t, "platform", fields["team"], "extra keys must survive a rewrite")
	assert.Equal(t, "mongodb+srv//cluster0-pri.example.net/admin", fields["private_connection_string_srv"])

	// Sparse secrets stay sparse.
	_, present := fields["connection_string"]
	assert.False(t, present)
}

func TestResolvedAuthDatabase(t *testing.T) {
	t.Parallel()

	dict := rotation.Dictionary{}
	assert.Equal(t, "admin", dict.ResolvedAuthDatabase())

	dict.AuthDatabase = "accounts"
	assert.Equal(t, "accounts", dict.ResolvedAuthDatabase())
}
