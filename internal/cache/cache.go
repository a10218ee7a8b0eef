// Package cache is the key/value blob store every other package persists
// through. Keys are slash separated paths such as "recipe/<id>".
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrNotFound      = errors.New("cache entry not found")
	ErrAlreadyExists = errors.New("cache entry already exists")
)

type PutCondition int

const (
	PutUnconditional PutCondition = iota
	// PutIfNoneMatch fails with ErrAlreadyExists when the key is taken.
	PutIfNoneMatch
)

type PutOptions struct {
	Condition PutCondition
}

func Unconditional() PutOptions { return PutOptions{Condition: PutUnconditional} }

func IfNoneMatch() PutOptions { return PutOptions{Condition: PutIfNoneMatch} }

type Cache interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key, value string, opts PutOptions) error
}

// ListCache can also enumerate keys. List returns keys under prefix with the
// prefix trimmed, sorted.
type ListCache interface {
	Cache
	List(ctx context.Context, prefix string, continuation string) ([]string, error)
}

// GetJSON reads key and decodes it into a T.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, error) {
	var out T
	r, err := c.Get(ctx, key)
	if err != nil {
		return out, err
	}
	defer r.Close()
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return out, nil
}

// PutJSON encodes v and stores it at key.
func PutJSON(ctx context.Context, c Cache, key string, v any, opts PutOptions) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return c.Put(ctx, key, string(data), opts)
}
