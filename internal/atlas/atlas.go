// Package atlas implements the rotation core's target-system interfaces
// over the MongoDB Atlas Admin API and the MongoDB wire protocol.
package atlas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/systmms/atlasrotate/internal/logging"
	"github.com/systmms/atlasrotate/internal/rotation"
	"go.mongodb.org/atlas-sdk/v20250312001/admin"
)

// APIKeys are the programmatic Atlas credentials used for digest auth.
// The private key formats as a redacted marker under %s and %v.
type APIKeys struct {
	PublicKey  string         `json:"public_key"`
	PrivateKey logging.Secret `json:"private_key"`
}

// LoadAPIKeys fetches the Atlas API keys from the bootstrap secret.
func LoadAPIKeys(ctx context.Context, store rotation.Store, secretName string) (APIKeys, error) {
	if secretName == "" {
		return APIKeys{}, rotation.ValidationError{
			Field:   "atlas_secret_name",
			Message: "Atlas API key secret name is not configured",
		}
	}

	raw, err := store.GetVersion(ctx, rotation.VersionQuery{
		SecretID: secretName,
		Stage:    rotation.StageCurrent,
	})
	if err != nil {
		return APIKeys{}, fmt.Errorf("failed to fetch Atlas API keys: %w", err)
	}

	var keys APIKeys
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return APIKeys{}, rotation.ValidationError{
			Field:   "atlas_secret_name",
			Message: fmt.Sprintf("Atlas API key secret is not valid JSON: %v", err),
		}
	}
	if keys.PublicKey == "" || keys.PrivateKey == "" {
		return APIKeys{}, rotation.ValidationError{
			Field:   "atlas_secret_name",
			Message: "Atlas API key secret must contain public_key and private_key",
		}
	}
	return keys, nil
}

// AdminUsers implements rotation.Users over the Atlas Admin API client.
type AdminUsers struct {
	client *admin.APIClient
}

// NewAdminUsers creates the Atlas adapter with digest authentication.
func NewAdminUsers(keys APIKeys) (*AdminUsers, error) {
	client, err := admin.NewClient(admin.UseDigestAuth(keys.PublicKey, string(keys.PrivateKey)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Atlas API client: %w", err)
	}
	return &AdminUsers{client: client}, nil
}

// GetProjectID resolves an Atlas project and returns its canonical ID.
func (a *AdminUsers) GetProjectID(ctx context.Context, projectID string) (string, error) {
	project, resp, err := a.client.ProjectsApi.GetProject(ctx, projectID).Execute()
	if err != nil {
		return "", classify(err, resp, "GetProject", "project", projectID)
	}
	if project.Id == nil {
		return "", rotation.NotFoundError{Kind: "project", ID: projectID}
	}
	return *project.Id, nil
}

// UpdateUserPassword sets a new password on an existing database user.
// The user record is fetched first so the update carries the user's
// current roles and scopes unchanged.
func (a *AdminUsers) UpdateUserPassword(ctx context.Context, projectID, authDatabase, username, password string) error {
	user, resp, err := a.client.DatabaseUsersApi.GetDatabaseUser(ctx, projectID, authDatabase, username).Execute()
	if err != nil {
		return classify(err, resp, "GetDatabaseUser", "user", username)
	}

	user.Password = &password
	_, resp, err = a.client.DatabaseUsersApi.UpdateDatabaseUser(ctx, projectID, authDatabase, username, user).Execute()
	if err != nil {
		return classify(err, resp, "UpdateDatabaseUser", "user", username)
	}
	return nil
}

// classify maps Atlas API failures onto the rotation error taxonomy.
func classify(err error, resp *http.Response, op, kind, id string) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return rotation.NotFoundError{Kind: kind, ID: id, Err: err}
	}
	return rotation.ExternalSystemError{System: "atlas", Op: op, Err: err}
}
