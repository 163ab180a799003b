package gcp

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	scopeCloudPlatform = "https://www.googleapis.com/auth/cloud-platform"
	scopeStorageFull   = "https://www.googleapis.com/auth/devstorage.full_control"
)

// Client wraps GCP credentials and configuration.
// It holds Application Default Credentials loaded once via
// google.FindDefaultCredentials and hands them to every storage session.
type Client struct {
	credentials   *google.Credentials
	project       string
	endpoint      string
	userAgent     string
	billToProject bool
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithProject sets the fallback GCP project ID.
func WithProject(project string) Option {
	return func(c *Client) {
		c.project = project
	}
}

// WithEndpoint overrides the Cloud Storage JSON API endpoint, e.g. for an emulator.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithUserAgent sets the user agent sent with storage requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithBillToProject bills requests to each bucket's own project, which
// requester-pays buckets require.
func WithBillToProject(bill bool) Option {
	return func(c *Client) { c.billToProject = bill }
}

// NewClient creates a new GCP client using Application Default Credentials (ADC).
// ADC is resolved in this order:
//  1. GOOGLE_APPLICATION_CREDENTIALS environment variable (service account key file)
//  2. gcloud user credentials (~/.config/gcloud/application_default_credentials.json)
//  3. Metadata server (when running on GCE / GKE / Cloud Run)
//
// Returns an error with a helpful message if no credentials are found.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	creds, err := google.FindDefaultCredentials(ctx, scopeCloudPlatform, scopeStorageFull)
	if err != nil {
		return nil, fmt.Errorf(
			"no GCP application default credentials found "+
				"(run 'gcloud auth application-default login'): %w",
			err,
		)
	}

	c.credentials = creds

	// Prefer the project from credentials when caller did not set one
	if c.project == "" && creds.ProjectID != "" {
		c.project = creds.ProjectID
	}

	return c, nil
}

// Project returns the configured GCP project ID.
func (c *Client) Project() string {
	return c.project
}

// Credentials returns the underlying google.Credentials.
func (c *Client) Credentials() *google.Credentials {
	return c.credentials
}

// StorageOpener returns a SessionOpener whose sessions authenticate with the
// client's credentials.
func (c *Client) StorageOpener() *StorageOpener {
	opts := []option.ClientOption{option.WithTokenSource(c.credentials.TokenSource)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	if c.userAgent != "" {
		opts = append(opts, option.WithUserAgent(c.userAgent))
	}
	return NewStorageOpener(c.billToProject, opts...)
}
