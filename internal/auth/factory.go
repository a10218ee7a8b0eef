package auth

import (
	"barkeep/internal/config"
	"barkeep/internal/users"
)

// NewFromConfig creates an AuthClient based on config settings.
func NewFromConfig(cfg *config.Config, storage *users.Storage) (AuthClient, error) {
	if cfg.Mocks.Enable {
		return Mock(cfg.Mocks, storage), nil
	}
	return NewClerkAuth(cfg.Clerk, storage)
}
