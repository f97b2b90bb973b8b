// Package firestore provides an optional real-time mirror of the
// kernel's witness statements and panel findings into Google Cloud
// Firestore, for UI dashboards that want to subscribe to live updates.
// Disabled by default: when Enabled is false every method is a no-op,
// so the kernel never depends on Firestore being reachable.
package firestore

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	gcpfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/archonkernel/governance-kernel/pkg/config"
)

// Client wraps the Firestore client with kernel-specific convenience
// methods.
type Client struct {
	app       *firebase.App
	firestore *gcpfirestore.Client
	projectID string
	logger    *log.Logger
	enabled   bool
	mu        sync.RWMutex
}

// NewClient creates a Firestore client from cfg. If cfg.FirestoreEnabled
// is false, returns a no-op Client whose methods silently succeed.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	client := &Client{
		projectID: cfg.FirebaseProjectID,
		logger:    log.New(os.Stdout, "[Firestore] ", log.LstdFlags),
		enabled:   cfg.FirestoreEnabled,
	}

	if !cfg.FirestoreEnabled {
		client.logger.Println("firestore mirror disabled - running in no-op mode")
		return client, nil
	}

	if cfg.FirebaseProjectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required when Firestore is enabled")
	}

	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	client.app = app
	client.firestore = fs
	client.logger.Printf("firestore mirror initialized for project: %s", cfg.FirebaseProjectID)
	return client, nil
}

// IsEnabled reports whether the mirror performs real writes.
func (c *Client) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Close releases the underlying Firestore connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firestore != nil {
		return c.firestore.Close()
	}
	return nil
}

// Health reports whether the client is usable. Disabled clients are
// always healthy; an enabled client without a Firestore handle is not.
// It issues a probe read but discards its result and error, so a failed
// connection is not reported.
func (c *Client) Health(ctx context.Context) error {
	if !c.IsEnabled() {
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("firestore client not initialized")
	}
	_, _ = c.firestore.Collection("_health_check").Doc("ping").Get(ctx)
	return nil
}
