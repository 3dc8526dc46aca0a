package backend

import (
	"context"
	"net/http"

	"phone-storefront/internal/models"
)

// Authenticate exchanges credentials for an access token
func (c *Client) Authenticate(ctx context.Context, in models.AuthRequest) (models.AuthResponse, error) {
	var out models.AuthResponse
	_, err := c.sendJSON(ctx, http.MethodPost, "/api/v1/auth/authenticate", "/api/v1/auth/authenticate", in, "Login failed", &out)
	return out, err
}

// Register creates an account and returns its access token
func (c *Client) Register(ctx context.Context, in models.RegisterRequest) (models.AuthResponse, error) {
	var out models.AuthResponse
	_, err := c.sendJSON(ctx, http.MethodPost, "/api/v1/auth/register", "/api/v1/auth/register", in, "Registration failed", &out)
	return out, err
}

// Me fetches the authenticated user
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out models.User
	err := c.getJSON(ctx, "/api/v1/users/me", "/api/v1/users/me", "Failed to load user", &out)
	return out, err
}
