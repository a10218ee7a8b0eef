package cache

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"barkeep/internal/config"
)

func backends(t *testing.T) map[string]ListCache {
	return map[string]ListCache{
		"file":   NewFileCache(t.TempDir()),
		"memory": NewInMemoryCache(),
	}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := c.Get(ctx, "recipe/missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if ok, err := c.Exists(ctx, "recipe/missing"); err != nil || ok {
				t.Fatalf("expected missing key, got %v %v", ok, err)
			}

			if err := c.Put(ctx, "recipe/negroni", `{"name":"Negroni"}`, Unconditional()); err != nil {
				t.Fatalf("put: %v", err)
			}
			r, err := c.Get(ctx, "recipe/negroni")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			body, _ := io.ReadAll(r)
			_ = r.Close()
			if string(body) != `{"name":"Negroni"}` {
				t.Fatalf("unexpected body %q", body)
			}
			if ok, err := c.Exists(ctx, "recipe/negroni"); err != nil || !ok {
				t.Fatalf("expected key to exist, got %v %v", ok, err)
			}
		})
	}
}

func TestCachePutIfNoneMatch(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Put(ctx, "user/1", "first", IfNoneMatch()); err != nil {
				t.Fatalf("first put: %v", err)
			}
			if err := c.Put(ctx, "user/1", "second", IfNoneMatch()); !errors.Is(err, ErrAlreadyExists) {
				t.Fatalf("expected ErrAlreadyExists, got %v", err)
			}
			if err := c.Put(ctx, "user/1", "third", Unconditional()); err != nil {
				t.Fatalf("unconditional put: %v", err)
			}
			r, err := c.Get(ctx, "user/1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer r.Close()
			body, _ := io.ReadAll(r)
			if string(body) != "third" {
				t.Fatalf("expected overwrite, got %q", body)
			}
		})
	}
}

func TestCacheList(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"recipe/b", "recipe/a", "ingredient/gin", "recipes-old/x"} {
				if err := c.Put(ctx, key, "{}", Unconditional()); err != nil {
					t.Fatalf("put %s: %v", key, err)
				}
			}
			keys, err := c.List(ctx, "recipe/", "")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if !reflect.DeepEqual(keys, []string{"a", "b"}) {
				t.Fatalf("unexpected keys %v", keys)
			}
		})
	}
}

func TestFileCacheListMissingDir(t *testing.T) {
	c := NewFileCache(t.TempDir() + "/never-created")
	keys, err := c.List(context.Background(), "recipe/", "")
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected empty list, got %v %v", keys, err)
	}
}

func TestFileCacheRejectsTraversal(t *testing.T) {
	c := NewFileCache(t.TempDir())
	if err := c.Put(context.Background(), "../escape", "x", Unconditional()); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	type entry struct {
		IDs []string `json:"ids"`
	}
	if err := PutJSON(ctx, c, "bartender/recent/u1", entry{IDs: []string{"a", "b"}}, Unconditional()); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}
	got, err := GetJSON[entry](ctx, c, "bartender/recent/u1")
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !reflect.DeepEqual(got.IDs, []string{"a", "b"}) {
		t.Fatalf("unexpected ids %v", got.IDs)
	}
	if _, err := GetJSON[entry](ctx, c, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMakeCache(t *testing.T) {
	c, err := MakeCache(config.StorageConfig{Memory: true, AccountName: "ignored"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*InMemoryCache); !ok {
		t.Fatalf("expected memory cache, got %T", c)
	}
	c, err = MakeCache(config.StorageConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Fatalf("expected file cache, got %T", c)
	}
}
