package rotation

import "context"

// Users is the target credential system surface the rotation core
// needs: resolve the account and push a new password. Implementations
// must return NotFoundError for missing projects and users.
type Users interface {
	// GetProjectID resolves the target project and returns its canonical ID.
	GetProjectID(ctx context.Context, projectID string) (string, error)

	// UpdateUserPassword sets a new password on the database user
	// resolved by (project, authDatabase, username).
	UpdateUserPassword(ctx context.Context, projectID, authDatabase, username, password string) error
}

// Conn is a live authenticated connection to the target cluster.
type Conn interface {
	// Ping runs a minimal liveness probe over the connection.
	Ping(ctx context.Context) error

	// Close tears the connection down.
	Close(ctx context.Context) error
}

// Connector opens authenticated connections from a connection string.
type Connector interface {
	Connect(ctx context.Context, uri string) (Conn, error)
}
