// Package users persists accounts and their settings and carries the signed
// in user through request contexts.
package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"barkeep/internal/cache"
	utypes "barkeep/internal/users/types"

	"github.com/samber/lo"
)

type User = utypes.User
type Settings = utypes.Settings

const (
	userPrefix  = "user/"
	emailPrefix = "email/"
)

var ErrNotFound = errors.New("user not found")

type Storage struct {
	cache cache.ListCache
}

func NewStorage(c cache.ListCache) *Storage {
	return &Storage{cache: c}
}

func (s *Storage) GetByID(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	user, err := cache.GetJSON[User](ctx, s.cache, userPrefix+id)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}
	return &user, nil
}

func (s *Storage) GetByEmail(ctx context.Context, email string) (*User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return nil, ErrNotFound
	}
	r, err := s.cache.Get(ctx, emailPrefix+normalized)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()
	id, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read email index: %w", err)
	}
	return s.GetByID(ctx, strings.TrimSpace(string(id)))
}

// FindOrCreateByID returns the user with the given id, creating it with the
// supplied emails when it does not exist yet. Concurrent creators race on a
// conditional put; the loser reads back the winner's record.
func (s *Storage) FindOrCreateByID(ctx context.Context, id string, emails []string) (*User, error) {
	if id == "" {
		return nil, errors.New("user id is required")
	}
	existing, err := s.GetByID(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	newUser := User{
		ID: id,
		Email: lo.Uniq(lo.FilterMap(emails, func(e string, _ int) (string, bool) {
			n := normalizeEmail(e)
			return n, n != ""
		})),
		CreatedAt: time.Now(),
	}
	if err := newUser.Validate(); err != nil {
		return nil, err
	}
	err = cache.PutJSON(ctx, s.cache, userPrefix+id, newUser, cache.IfNoneMatch())
	if errors.Is(err, cache.ErrAlreadyExists) {
		return s.GetByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store new user: %w", err)
	}
	// no transactions, so the index can briefly lag the record
	if err := s.indexEmails(ctx, &newUser); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "created user", "user_id", id)
	return &newUser, nil
}

func (s *Storage) Update(ctx context.Context, user *User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if err := cache.PutJSON(ctx, s.cache, userPrefix+user.ID, user, cache.Unconditional()); err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	return s.indexEmails(ctx, user)
}

func (s *Storage) indexEmails(ctx context.Context, user *User) error {
	for _, email := range user.Email {
		if err := s.cache.Put(ctx, emailPrefix+normalizeEmail(email), user.ID, cache.Unconditional()); err != nil {
			return fmt.Errorf("failed to index user by email: %w", err)
		}
	}
	return nil
}

// List loads every stored user. Unreadable records are logged and skipped.
func (s *Storage) List(ctx context.Context) ([]User, error) {
	ids, err := s.cache.List(ctx, userPrefix, "")
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(ids))
	for _, id := range ids {
		u, err := s.GetByID(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "failed to load user", "user_id", id, "error", err)
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
