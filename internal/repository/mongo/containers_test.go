//go:build integration

package mongo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// mongoTestImage runs as a single-node replica set so transactions work.
const mongoTestImage = "mongo:7.0"

var (
	sharedClient     *mongo.Client
	sharedClientOnce sync.Once
	sharedClientErr  error
)

// testDatabase returns a fresh database with every index in place. The
// container is started once and shared by all tests in the run.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedClientOnce.Do(func() {
		sharedClient, sharedClientErr = startReplicaSet()
	})
	if sharedClientErr != nil {
		t.Fatalf("Failed to start MongoDB container: %v", sharedClientErr)
	}

	db := sharedClient.Database("test_" + uuid.NewString()[:8])
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	EnsureIndexes(ctx, db, zap.NewNop())
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	return db
}

func startReplicaSet() (*mongo.Client, error) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mongoTestImage,
			ExposedPorts: []string{"27017/tcp"},
			Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	uri := fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port())
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	initiate := bson.D{{Key: "replSetInitiate", Value: bson.M{
		"_id":     "rs0",
		"members": bson.A{bson.M{"_id": 0, "host": "localhost:27017"}},
	}}}
	if err := client.Database("admin").RunCommand(ctx, initiate).Err(); err != nil {
		return nil, fmt.Errorf("failed to initiate replica set: %w", err)
	}

	// Wait for the node to elect itself primary.
	for i := 0; i < 60; i++ {
		var hello struct {
			IsWritablePrimary bool `bson:"isWritablePrimary"`
		}
		err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
		if err == nil && hello.IsWritablePrimary {
			return client, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, fmt.Errorf("replica set never became primary")
}
