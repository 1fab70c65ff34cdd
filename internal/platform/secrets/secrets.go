package secrets

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Client reads deployment secrets from GCP Secret Manager. Secret IDs are
// suffixed with the environment ("db_password" + "-prod"), so dev and prod
// deployments share a project without sharing credentials.
type Client struct {
	projectID   string
	environment string
	sm          *secretmanager.Client
}

func NewClient(ctx context.Context, projectID, environment string) (*Client, error) {
	sm, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create secret manager client: %w", err)
	}
	return &Client{
		projectID:   projectID,
		environment: environment,
		sm:          sm,
	}, nil
}

func (c *Client) Close() error { return c.sm.Close() }

// Get returns the latest version of the named secret.
func (c *Client) Get(ctx context.Context, name string) (string, error) {
	secretID := name + "-" + c.environment
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.projectID, secretID)

	resp, err := c.sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", secretID, err)
	}
	return string(resp.GetPayload().GetData()), nil
}
