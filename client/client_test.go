package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueAdministration(t *testing.T) {
	fake := newFakeServer("")
	defer fake.Close()

	cli, err := New(Options{URL: fake.URL()})
	require.NoError(t, err)

	require.NoError(t, cli.CreateQueue("tasks"))
	require.NoError(t, cli.CreateQueue("results"))

	queues, err := cli.ListQueues()
	require.NoError(t, err)
	assert.Equal(t, []QueueInfo{{Name: "results"}, {Name: "tasks"}}, queues)

	require.NoError(t, cli.DeleteQueue("results"))
	queues, err = cli.ListQueues()
	require.NoError(t, err)
	assert.Equal(t, []QueueInfo{{Name: "tasks"}}, queues)
}

func TestCreateQueueConflict(t *testing.T) {
	fake := newFakeServer("")
	defer fake.Close()

	cli, err := New(Options{URL: fake.URL()})
	require.NoError(t, err)

	require.NoError(t, cli.CreateQueue("tasks"))
	err = cli.CreateQueue("tasks")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "queue already exists", apiErr.Err)
}

func TestQueueNameEscaping(t *testing.T) {
	fake := newFakeServer("")
	defer fake.Close()

	cli, err := New(Options{URL: fake.URL()})
	require.NoError(t, err)

	require.NoError(t, cli.CreateQueue("alpha tasks"))
	queues, err := cli.ListQueues()
	require.NoError(t, err)
	require.Len(t, queues, 1)
	assert.Equal(t, "alpha tasks", queues[0].Name)
}

func TestVersion(t *testing.T) {
	fake := newFakeServer("")
	defer fake.Close()

	cli, err := New(Options{URL: fake.URL()})
	require.NoError(t, err)

	version, err := cli.Version()
	require.NoError(t, err)
	assert.Equal(t, "0.4.2", version)
}

func TestAuthorization(t *testing.T) {
	fake := newFakeServer("Bearer secret")
	defer fake.Close()

	authorized, err := New(Options{URL: fake.URL(), APIKey: "Bearer secret"})
	require.NoError(t, err)
	require.NoError(t, authorized.CreateQueue("tasks"))

	anonymous, err := New(Options{URL: fake.URL(), MaxRetries: 3})
	require.NoError(t, err)
	err = anonymous.CreateQueue("sneaky")
	assert.True(t, errors.Is(err, ErrAuthorization))
}
