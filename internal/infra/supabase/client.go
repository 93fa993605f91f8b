package supabase

import (
	"fmt"

	"pdf-toolkit/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// Client connects to the Supabase project that holds saved artifacts.
type Client struct {
	url    string
	key    string
	bucket string
	client *supabase.Client
	logger domain.Logger
}

// NewClient creates an unconnected client from cfg.
func NewClient(cfg domain.Config, logger domain.Logger) *Client {
	return &Client{
		url:    cfg.GetSupabaseURL(),
		key:    cfg.GetSupabaseKey(),
		bucket: cfg.GetSupabaseBucket(),
		logger: logger,
	}
}

// DB returns the underlying client, nil before Initialize succeeds.
func (c *Client) DB() *supabase.Client {
	return c.client
}

// Initialize connects and checks that the artifact bucket is reachable.
func (c *Client) Initialize() error {
	if c.url == "" || c.key == "" {
		return fmt.Errorf("supabase URL and key must be provided")
	}
	if c.bucket == "" {
		return fmt.Errorf("supabase bucket must be provided")
	}

	client, err := supabase.NewClient(c.url, c.key, &supabase.ClientOptions{})
	if err != nil {
		return fmt.Errorf("failed to create Supabase client: %w", err)
	}
	if _, err := client.Storage.GetBucket(c.bucket); err != nil {
		return fmt.Errorf("bucket %q unavailable: %w", c.bucket, err)
	}

	c.client = client
	c.logger.Info("Supabase storage ready", "url", c.url, "bucket", c.bucket)
	return nil
}
