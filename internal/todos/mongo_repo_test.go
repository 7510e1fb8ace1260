package todos

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TestMongoRepo needs a reachable server, e.g.
// MONGO_TEST_URI=mongodb://localhost:27017 go test ./internal/todos/
func TestMongoRepo(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("todo-api-test-" + primitive.NewObjectID().Hex())
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	runRepositoryTests(t, func(t *testing.T) Repository {
		coll := db.Collection("todos_" + primitive.NewObjectID().Hex())
		return NewMongoRepo(coll)
	})
}
