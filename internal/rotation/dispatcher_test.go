package rotation_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/atlasrotate/internal/config"
	"github.com/systmms/atlasrotate/internal/logging"
	"github.com/systmms/atlasrotate/internal/rotation"
	"github.com/systmms/atlasrotate/tests/fakes"
)

func testConfig() *config.Config {
	return &config.Config{
		Engine:          "mongodbatlas",
		AtlasSecretName: "atlas/api-keys",
		Policy: config.PasswordPolicy{
			ExcludeCharacters: config.DefaultExcludeCharacters,
			Length:            32,
		},
	}
}

type harness struct {
	store      *fakes.FakeStore
	users      *fakes.FakeUsers
	connector  *fakes.FakeConnector
	dispatcher *rotation.Dispatcher
}

func newHarness() *harness {
	store := fakes.NewFakeStore()
	users := fakes.NewFakeUsers()
	connector := fakes.NewFakeConnector()
	logger := logging.NewWithWriter(false, io.Discard)
	return &harness{
		store:      store,
		users:      users,
		connector:  connector,
		dispatcher: rotation.NewDispatcher(store, users, connector, testConfig(), logger),
	}
}

func (h *harness) handle(t *testing.T, step rotation.Step, secretID, token string) error {
	t.Helper()
	raw, err := json.Marshal(rotation.Event{
		SecretId:           secretID,
		ClientRequestToken: token,
		Step:               step,
	})
	require.NoError(t, err)
	return h.dispatcher.Handle(context.Background(), raw)
}

func TestHandleMalformedEvent(t *testing.T) {
	t.Parallel()

	h := newHarness()
	err := h.dispatcher.Handle(context.Background(), json.RawMessage(`{"Step":`))
	require.Error(t, err)
	assert.True(t, rotation.IsValidation(err))
	assert.Zero(t, h.store.Writes)
}

func TestHandleRotationDisabled(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.RotationEnabled = false
	h.store.AddStagedVersion("tok1", rotation.StagePending)

	err := h.handle(t, rotation.StepCreate, "secret", "tok1")
	require.Error(t, err)
	assert.True(t, rotation.IsValidation(err))
	assert.Contains(t, err.Error(), "not enabled for rotation")
	assert.Zero(t, h.store.Writes)
}

func TestHandleUnknownVersion(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVersion("tokA", `{"engine":"mongodbatlas"}`, rotation.StageCurrent)

	err := h.handle(t, rotation.StepSet, "secret", "tok-missing")
	require.Error(t, err)
	assert.True(t, rotation.IsNotFound(err))
	assert.Zero(t, h.store.Writes, "no adapter writes beyond the initial describe")
}

func TestHandleAlreadyCurrentShortCircuits(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVersion("tok1", `{"engine":"mongodbatlas","username":"u","password":"p"}`, rotation.StageCurrent)

	// Replays of every step succeed with zero side effects.
	for _, step := range []rotation.Step{
		rotation.StepCreate, rotation.StepSet, rotation.StepTest, rotation.StepFinish,
	} {
		require.NoError(t, h.handle(t, step, "secret", "tok1"))
	}
	assert.Zero(t, h.store.Writes)
	assert.Empty(t, h.users.Updates)
	assert.Empty(t, h.connector.Attempted)
}

func TestHandleNotPendingConflict(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.store.AddVersion("tokA", `{"engine":"mongodbatlas"}`, rotation.StageCurrent)
	h.store.AddStagedVersion("tokB", rotation.StagePrevious)

	err := h.handle(t, rotation.StepCreate, "secret", "tokB")
	require.Error(t, err)
	assert.True(t, rotation.IsConflict(err))
	assert.Contains(t, err.Error(), "not in pending state")
	assert.Zero(t, h.store.Writes)
}

func TestHandleEngineMismatchRejectedForAllSteps(t *testing.T) {
	t.Parallel()

	// A wrong engine must be rejected before step logic runs for every
	// step that reads the dictionary.
	for _, step := range []rotation.Step{rotation.StepCreate, rotation.StepSet, rotation.StepTest} {
		step := step
		t.Run(string(step), func(t *testing.T) {
			t.Parallel()

			h := newHarness()
			wrongEngine := `{"engine":"postgres","username":"u","password":"p"}`
			h.store.AddVersion("tokCur", wrongEngine, rotation.StageCurrent)
			h.store.AddVersion("tokNew", wrongEngine, rotation.StagePending)

			err := h.handle(t, step, "secret", "tokNew")
			require.Error(t, err)
			assert.True(t, rotation.IsValidation(err), "step %s: got %T", step, err)
			assert.Empty(t, h.users.Updates)
			assert.Empty(t, h.connector.Attempted)
		})
	}
}
