package cache

import (
	"log/slog"

	"barkeep/internal/config"
)

// MakeCache picks a backend from the storage settings: memory, Azure blob
// or a local directory, in that order of preference.
func MakeCache(cfg config.StorageConfig) (ListCache, error) {
	if cfg.Memory {
		slog.Info("using in-memory cache")
		return NewInMemoryCache(), nil
	}
	if cfg.IsAzure() {
		client, err := NewBlobClient(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, err
		}
		slog.Info("using azure blob storage for cache", "account", cfg.AccountName, "container", cfg.Container)
		return NewBlobCache(client, cfg.Container), nil
	}
	slog.Info("using file cache", "dir", cfg.Dir)
	return NewFileCache(cfg.Dir), nil
}
