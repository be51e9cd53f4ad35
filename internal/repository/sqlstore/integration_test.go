//go:build integration

package sqlstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/repository/sqlstore"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "appblock_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/appblock_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestPreferenceRepository_Postgres(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlstore.NewConnection(ctx, sqlstore.DriverPostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	repo := sqlstore.NewPreferenceRepository(conn)

	require.NoError(t, repo.Set(ctx, model.KeyBlockEnabled, "false"))
	require.NoError(t, repo.Set(ctx, model.KeyBlockEnabled, "true"))
	require.NoError(t, repo.Set(ctx, model.KeyDeviceAdmin, "false"))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		model.KeyBlockEnabled: "true",
		model.KeyDeviceAdmin:  "false",
	}, all)
}
