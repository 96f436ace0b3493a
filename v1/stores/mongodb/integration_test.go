package mongodb

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Aleph-Alpha/polystore/v1/query"
	"github.com/Aleph-Alpha/polystore/v1/store"
)

func setupMongoContainer(ctx context.Context, t *testing.T) string {
	t.Helper()

	port, err := getFreePort()
	require.NoError(t, err)
	portStr := fmt.Sprintf("%d", port)

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = nat.PortMap{
				"27017/tcp": []nat.PortBinding{{HostPort: portStr}},
			}
		},
		WaitingFor: wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, "27017")
	require.NoError(t, err)
	return fmt.Sprintf("mongodb://%s:%s/polystore_test", host, mapped.Port())
}

func getFreePort() (int, error) {
	addr, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer addr.Close()
	return addr.Addr().(*net.TCPAddr).Port, nil
}

func TestMongoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	handle := setupMongoContainer(ctx, t)

	r := store.NewRegistry()
	Register(r)
	db, err := r.Open(ctx, handle, store.Options{Alias: "m"})
	require.NoError(t, err)
	defer db.Close(ctx)

	people, err := db.CreateCollection(ctx, "Person")
	require.NoError(t, err)

	require.NoError(t, people.Insert(ctx,
		query.Object{"id": "P1", "name": "John", "age": 30},
		query.Object{"id": "P2", "name": "Alice", "age": 25},
		query.Object{"id": "P3", "name": "Bob"},
	))

	res, err := people.Find(ctx, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, res.NumRows)
	assert.Len(t, res.Rows, 2)

	res, err = people.Find(ctx, query.Where{"name": "John"}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.NumRows)
	assert.Equal(t, "P1", res.Rows[0]["id"])
	assert.True(t, query.Equal(30, res.Rows[0]["age"]))
	_, hasID := res.Rows[0]["_id"]
	assert.False(t, hasID)

	res, err = people.Find(ctx, query.Where{"age": nil}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.NumRows)

	res, err = people.Query(ctx, query.New("Person").WithSort(query.SortField{Field: "age"}))
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "P3", res.Rows[0]["id"])
	assert.Equal(t, "P2", res.Rows[1]["id"])

	n, err := people.Delete(ctx, query.Object{"id": "P1"}, query.Object{"name": "John"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = people.DeleteWhere(ctx, query.Where{"name": "Nobody"}, false)
	assert.ErrorIs(t, err, store.ErrNotFound)

	again, err := r.Open(ctx, handle, store.Options{Alias: "m2"})
	require.NoError(t, err)
	names, err := again.ListCollectionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Person"}, names)

	require.NoError(t, again.Drop(ctx))

	third, err := r.Open(ctx, handle, store.Options{Alias: "m3"})
	require.NoError(t, err)
	defer third.Close(ctx)
	names, err = third.ListCollectionNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}
