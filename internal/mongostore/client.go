package mongostore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Options struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

// Client owns the process-wide MongoDB connection. It is opened once at
// startup, shared by all requests and closed on shutdown.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

func Connect(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}

	mc, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	c := &Client{
		client: mc,
		db:     mc.Database(opts.Database),
		logger: logger,
	}

	pingCtx := ctx
	if opts.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.PingTimeout)
		defer cancel()
	}
	if err := c.Ping(pingCtx); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongo_connected", slog.String("database", opts.Database))
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	c.logger.Info("mongo_disconnected")
	return nil
}
