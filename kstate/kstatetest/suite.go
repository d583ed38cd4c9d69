// Package kstatetest checks that a kstate.Backend behaves the way the plan
// catalog expects.
package kstatetest

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/kplan/kstate"
)

// Run exercises b with keys below prefix. The backend should be empty below
// prefix when Run starts.
func Run(t *testing.T, b kstate.Backend, prefix string) {
	t.Helper()
	ctx := context.Background()
	key := func(k string) string { return prefix + k }

	t.Run("get missing", func(t *testing.T) {
		_, err := b.Get(ctx, key("missing"))
		assert.IsError(t, err, kstate.ErrKeyNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		assert.NoError(t, b.Set(ctx, key("plans/a"), []byte("one")))
		v, err := b.Get(ctx, key("plans/a"))
		assert.NoError(t, err)
		assert.Equal(t, []byte("one"), v)
	})

	t.Run("overwrite", func(t *testing.T) {
		assert.NoError(t, b.Set(ctx, key("plans/a"), []byte("two")))
		v, err := b.Get(ctx, key("plans/a"))
		assert.NoError(t, err)
		assert.Equal(t, []byte("two"), v)
	})

	t.Run("keys by prefix", func(t *testing.T) {
		assert.NoError(t, b.Set(ctx, key("plans/c"), []byte("c")))
		assert.NoError(t, b.Set(ctx, key("plans/b"), []byte("b")))
		assert.NoError(t, b.Set(ctx, key("other/x"), []byte("x")))

		keys, err := b.Keys(ctx, key("plans/"))
		assert.NoError(t, err)
		assert.Equal(t, []string{key("plans/a"), key("plans/b"), key("plans/c")}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		assert.NoError(t, b.Delete(ctx, key("plans/b")))
		_, err := b.Get(ctx, key("plans/b"))
		assert.IsError(t, err, kstate.ErrKeyNotFound)

		keys, err := b.Keys(ctx, key("plans/"))
		assert.NoError(t, err)
		assert.Equal(t, []string{key("plans/a"), key("plans/c")}, keys)
	})

	t.Run("delete missing", func(t *testing.T) {
		assert.NoError(t, b.Delete(ctx, key("plans/never")))
	})

	t.Run("empty value", func(t *testing.T) {
		assert.NoError(t, b.Set(ctx, key("empty"), []byte{}))
		v, err := b.Get(ctx, key("empty"))
		assert.NoError(t, err)
		assert.Equal(t, 0, len(v))
	})
}
