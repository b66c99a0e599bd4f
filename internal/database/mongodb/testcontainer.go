package mongodb

import (
	"context"
	"log/slog"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// SetupTestClient starts a throwaway MongoDB container and returns a Client
// connected to it. The container and client are torn down via t.Cleanup.
// Callers should guard with testing.Short() since this pulls a Docker image.
func SetupTestClient(t *testing.T, database string) *Client {
	t.Helper()

	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7.0")
	if err != nil {
		t.Fatalf("start MongoDB container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("warning: terminate container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("container connection string: %v", err)
	}

	cfg := DefaultConfig()
	cfg.URI = uri
	cfg.Database = database

	client, err := New(ctx, cfg, slog.Default())
	if err != nil {
		t.Fatalf("connect test client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close(context.Background())
	})

	return client
}
