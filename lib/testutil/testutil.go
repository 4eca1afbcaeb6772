package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"testing"

	"dividend-backend/lib/sqliteutil"
	"dividend-backend/lib/telemetry"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService initializes telemetry for a test and opens its database.
func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	if params.DbSchema == "" {
		return ServiceResult{}, cleanup
	}

	dbpath := params.DbPath
	if dbpath == "" {
		dbpath = ":memory:"
	}
	database, err := sqliteutil.OpenDB(params.DbSchema, dbpath)
	if err != nil {
		cleanup()
		t.Fatal(err)
	}

	return ServiceResult{DB: database}, func() {
		database.Close()
		cleanup()
	}
}

// StartRedis starts a throwaway redis container and returns its address, the
// test is skipped when docker is not available.
func StartRedis(t *testing.T) string {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	redis, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections"),
			},
		},
	)
	if err != nil {
		t.Skip("could not start redis:", err)
	}
	t.Cleanup(func() {
		err := redis.Terminate(context.Background())
		if err != nil {
			t.Error(err)
		}
	})

	addr, err := redis.Endpoint(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	return addr
}
