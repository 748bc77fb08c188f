package repository

import (
	"context"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoProbe implements domain.ConnectivityProbe by pinging the remote
// store's mongo deployment. The host can force the probe offline (e.g. on an
// OS network-down event) without waiting for a ping timeout.
type MongoProbe struct {
	client        *mongo.Client
	pingTimeout   time.Duration
	forcedOffline atomic.Bool
}

func NewMongoProbe(client *mongo.Client) *MongoProbe {
	return &MongoProbe{
		client:      client,
		pingTimeout: 2 * time.Second,
	}
}

func (p *MongoProbe) Online(ctx context.Context) bool {
	if p.forcedOffline.Load() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.pingTimeout)
	defer cancel()
	return p.client.Ping(ctx, nil) == nil
}

// SetForcedOffline overrides the probe; pass false to resume pinging.
func (p *MongoProbe) SetForcedOffline(offline bool) {
	p.forcedOffline.Store(offline)
}
