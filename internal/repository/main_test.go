package repository

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"chirp/internal/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testMongo is nil unless MONGODB_TEST_URI points at a reachable server.
var testMongo *mongo.Database

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")

	var client *mongo.Client
	if uri := os.Getenv("MONGODB_TEST_URI"); uri != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err == nil {
			err = c.Ping(ctx, nil)
		}
		cancel()
		if err != nil {
			log.Printf("Mongo repository tests skipped: %v", err)
		} else {
			client = c
			testMongo = c.Database("chirp_test_" + primitive.NewObjectID().Hex())
			if err := database.EnsureIndexes(context.Background(), testMongo); err != nil {
				log.Printf("ensure indexes: %v", err)
			}
		}
	}

	code := m.Run()

	if client != nil {
		_ = testMongo.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	}
	os.Exit(code)
}

func requireMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testMongo == nil {
		t.Skip("MONGODB_TEST_URI not set or unreachable")
	}
	return testMongo
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}
