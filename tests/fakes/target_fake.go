package fakes

import (
	"context"

	"github.com/systmms/atlasrotate/internal/rotation"
)

// FakeUsers is an in-memory rotation.Users.
type FakeUsers struct {
	// Projects maps project IDs to canonical IDs.
	Projects map[string]string

	// Users holds known (projectID, authDB, username) accounts; the
	// value is the current password.
	Users map[string]string

	// UpdateErr, when set, is returned by UpdateUserPassword.
	UpdateErr error

	// Updates records every password push as "projectID/authDB/username".
	Updates []string
}

// NewFakeUsers creates an empty fake user service.
func NewFakeUsers() *FakeUsers {
	return &FakeUsers{
		Projects: make(map[string]string),
		Users:    make(map[string]string),
	}
}

func userKey(projectID, authDB, username string) string {
	return projectID + "/" + authDB + "/" + username
}

// AddUser registers a project and account.
func (f *FakeUsers) AddUser(projectID, authDB, username, password string) {
	f.Projects[projectID] = projectID
	f.Users[userKey(projectID, authDB, username)] = password
}

func (f *FakeUsers) GetProjectID(ctx context.Context, projectID string) (string, error) {
	id, ok := f.Projects[projectID]
	if !ok {
		return "", rotation.NotFoundError{Kind: "project", ID: projectID}
	}
	return id, nil
}

func (f *FakeUsers) UpdateUserPassword(ctx context.Context, projectID, authDB, username, password string) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	key := userKey(projectID, authDB, username)
	if _, ok := f.Users[key]; !ok {
		return rotation.NotFoundError{Kind: "user", ID: username}
	}
	f.Users[key] = password
	f.Updates = append(f.Updates, key)
	return nil
}

// FakeConnector is a rotation.Connector whose behavior is scripted per
// connection string.
type FakeConnector struct {
	// ConnectErrs maps URIs to connect failures.
	ConnectErrs map[string]error

	// PingErrs maps URIs to liveness probe failures.
	PingErrs map[string]error

	// Attempted records every URI passed to Connect, in order.
	Attempted []string
}

// NewFakeConnector creates a connector where every URI succeeds.
func NewFakeConnector() *FakeConnector {
	return &FakeConnector{
		ConnectErrs: make(map[string]error),
		PingErrs:    make(map[string]error),
	}
}

func (f *FakeConnector) Connect(ctx context.Context, uri string) (rotation.Conn, error) {
	f.Attempted = append(f.Attempted, uri)
	if err := f.ConnectErrs[uri]; err != nil {
		return nil, err
	}
	return &fakeConn{pingErr: f.PingErrs[uri]}, nil
}

type fakeConn struct {
	pingErr error
	closed  bool
}

func (c *fakeConn) Ping(ctx context.Context) error {
	return c.pingErr
}

func (c *fakeConn) Close(ctx context.Context) error {
	c.closed = true
	return nil
}
