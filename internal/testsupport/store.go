package testsupport

import (
	"context"
	"testing"

	"linkvault/internal/config"
	"linkvault/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewPost creates a pending post for tests using the provided store.
func NewPost(t testing.TB, st *store.Store, url string) *store.Post {
	t.Helper()

	post, err := st.CreatePost(context.Background(), url)
	if err != nil {
		t.Fatalf("store.CreatePost: %v", err)
	}
	return post
}
