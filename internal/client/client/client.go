package client

import (
	"context"

	"github.com/dmitrijs2005/firestation/internal/client/models"
)

// Client is the FireStation auth API as seen by the session layer.
type Client interface {
	// Login exchanges credentials for an access token and profile.
	Login(ctx context.Context, login, password string) (*models.LoginResponse, error)
	// Me returns the profile of the user owning token.
	Me(ctx context.Context, token string) (*models.UserProfile, error)
	// SetDefaultAuthorization sets ("" removes) the Authorization header
	// sent with every request that does not carry its own.
	SetDefaultAuthorization(token string)
}
