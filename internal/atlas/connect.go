package atlas

import (
	"context"

	"github.com/systmms/atlasrotate/internal/rotation"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoConnector implements rotation.Connector with the official driver.
type MongoConnector struct{}

// NewMongoConnector creates the driver-backed connector.
func NewMongoConnector() *MongoConnector {
	return &MongoConnector{}
}

// Connect opens a client for the URI. The driver connects lazily, so a
// bad credential typically surfaces at Ping rather than here.
func (c *MongoConnector) Connect(ctx context.Context, uri string) (rotation.Conn, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &mongoConn{client: client}, nil
}

type mongoConn struct {
	client *mongo.Client
}

func (c *mongoConn) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

func (c *mongoConn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
