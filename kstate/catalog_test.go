package kstate_test

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/kplan/kattr"
	"github.com/birdayz/kplan/kdag"
	"github.com/birdayz/kplan/koperator"
	"github.com/birdayz/kplan/kserde"
	"github.com/birdayz/kplan/kstate"
)

type lines struct {
	Out  koperator.OutputPort[string] `port:"out"`
	Path string
}

type sink struct {
	In koperator.InputPort[string] `port:"in"`
}

func testCodec(t *testing.T) kserde.OperatorCodec {
	t.Helper()
	types := kserde.NewRegistry()
	_, err := kserde.RegisterType[lines](types)
	assert.NoError(t, err)
	_, err = kserde.RegisterType[sink](types)
	assert.NoError(t, err)
	return kserde.NewMsgpackCodec(types)
}

func testPlan() *kdag.DAG {
	d := kdag.New()
	kattr.Set(d.Attributes(), kdag.MaxContainers, 5)
	src := kdag.MustAdd(d, "lines", &lines{Path: "/tmp/in"})
	dst := kdag.MustAdd(d, "sink", &sink{})
	kdag.MustConnect(d, "text", &src.Out, &dst.In)
	return d
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("save and load", func(t *testing.T) {
		c := kstate.NewCatalog(kstate.NewMemoryBackend(), testCodec(t), kstate.WithClock(func() time.Time { return now }))

		rev, err := c.Save(ctx, "orders", testPlan())
		assert.NoError(t, err)
		assert.Equal(t, "orders", rev.Name)
		assert.Equal(t, now, rev.SavedAt)
		assert.Equal(t, "msgpack", rev.Codec)

		d, loaded, err := c.Load(ctx, "orders")
		assert.NoError(t, err)
		assert.Equal(t, rev, loaded)
		assert.NoError(t, d.Validate())

		o, ok := d.Operator("lines")
		assert.True(t, ok)
		assert.Equal(t, "/tmp/in", o.Operator().(*lines).Path)
		s, ok := d.Stream("text")
		assert.True(t, ok)
		assert.Equal(t, "lines.out", s.Source().String())
	})

	t.Run("save replaces revision", func(t *testing.T) {
		c := kstate.NewCatalog(kstate.NewMemoryBackend(), testCodec(t))

		first, err := c.Save(ctx, "orders", testPlan())
		assert.NoError(t, err)
		second, err := c.Save(ctx, "orders", testPlan())
		assert.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		rev, err := c.Revision(ctx, "orders")
		assert.NoError(t, err)
		assert.Equal(t, second.ID, rev.ID)
	})

	t.Run("invalid plan is not written", func(t *testing.T) {
		backend := kstate.NewMemoryBackend()
		c := kstate.NewCatalog(backend, testCodec(t))

		d := kdag.New()
		kdag.MustAdd(d, "sink", &sink{})
		_, err := c.Save(ctx, "broken", d)
		assert.IsError(t, err, kdag.ErrMissingRequiredInputPort)

		keys, err := backend.Keys(ctx, "")
		assert.NoError(t, err)
		assert.Equal(t, 0, len(keys))
	})

	t.Run("list and delete", func(t *testing.T) {
		c := kstate.NewCatalog(kstate.NewMemoryBackend(), testCodec(t))
		for _, name := range []string{"b", "a", "c"} {
			_, err := c.Save(ctx, name, testPlan())
			assert.NoError(t, err)
		}

		assert.NoError(t, c.Delete(ctx, "b"))
		revs, err := c.List(ctx)
		assert.NoError(t, err)
		names := make([]string, 0, len(revs))
		for _, r := range revs {
			names = append(names, r.Name)
		}
		assert.Equal(t, []string{"a", "c"}, names)

		assert.IsError(t, c.Delete(ctx, "b"), kstate.ErrPlanNotFound)
	})

	t.Run("missing plan", func(t *testing.T) {
		c := kstate.NewCatalog(kstate.NewMemoryBackend(), testCodec(t))
		_, _, err := c.Load(ctx, "nope")
		assert.IsError(t, err, kstate.ErrPlanNotFound)
	})

	t.Run("invalid name", func(t *testing.T) {
		c := kstate.NewCatalog(kstate.NewMemoryBackend(), testCodec(t))
		for _, name := range []string{"", "a/b", "../x", ".hidden"} {
			_, err := c.Save(ctx, name, testPlan())
			assert.IsError(t, err, kstate.ErrInvalidPlanName, name)
		}
	})

	t.Run("codec mismatch", func(t *testing.T) {
		backend := kstate.NewMemoryBackend()
		_, err := kstate.NewCatalog(backend, testCodec(t)).Save(ctx, "orders", testPlan())
		assert.NoError(t, err)

		types := kserde.NewRegistry()
		_, _, err = kstate.NewCatalog(backend, kserde.NewJSONCodec(types)).Load(ctx, "orders")
		assert.IsError(t, err, kstate.ErrCodecMismatch)
	})

	t.Run("corrupt entry", func(t *testing.T) {
		backend := kstate.NewMemoryBackend()
		assert.NoError(t, backend.Set(ctx, "plans/bad", []byte{0xc1}))
		_, err := kstate.NewCatalog(backend, testCodec(t)).Revision(ctx, "bad")
		assert.IsError(t, err, kdag.ErrInvalidFormat)
	})
}
