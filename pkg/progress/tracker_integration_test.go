//go:build integration

package progress

import (
	"context"
	"testing"

	"github.com/pratik7038/OptimizationDemo/pkg/report"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestTracker_Integration_FullRun(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	tracker := NewTracker(redisClient, testLogger())
	tracker.Estimate = 3
	ctx := context.Background()

	for batch := 1; batch <= 3; batch++ {
		tracker.Publish(ctx, report.Progress{
			TenantID: 1001,
			GroupID:  "G001",
			Batch:    batch,
			Records:  int64(batch * 1000),
			Done:     batch == 3,
		})
	}

	state, err := tracker.GetState(ctx, 1001, "G001")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if !state.Done {
		t.Error("final state not marked done")
	}
	if state.Records != 3000 {
		t.Errorf("Records = %d, want 3000", state.Records)
	}
	if state.EstimatedBatches != 3 {
		t.Errorf("EstimatedBatches = %d, want 3", state.EstimatedBatches)
	}

	// Record must carry a TTL so abandoned runs expire.
	ttl, err := redisClient.TTL(ctx, Key(1001, "G001")).Result()
	if err != nil {
		t.Fatalf("TTL() error = %v", err)
	}
	if ttl <= 0 || ttl > StateTTL {
		t.Errorf("TTL = %v, want within (0, %v]", ttl, StateTTL)
	}
}
