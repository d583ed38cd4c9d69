package kstate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/birdayz/kplan/kdag"
	"github.com/birdayz/kplan/kserde"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrInvalidPlanName = errors.New("invalid plan name")
	ErrCodecMismatch   = errors.New("plan was saved with a different operator codec")
)

const planPrefix = "plans/"

var planName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Revision describes one saved version of a plan.
type Revision struct {
	Name       string
	ID         uuid.UUID
	SavedAt    time.Time
	Codec      string
	ClassNames []string
}

type envelope struct {
	Revision   string   `msgpack:"revision"`
	SavedAt    int64    `msgpack:"savedAt"`
	Codec      string   `msgpack:"codec"`
	ClassNames []string `msgpack:"classNames"`
	Plan       []byte   `msgpack:"plan"`
}

// Catalog stores validated plans in a Backend. Each save replaces the
// previous revision of the plan.
type Catalog struct {
	backend Backend
	codec   kserde.OperatorCodec
	log     *slog.Logger
	now     func() time.Time
}

type Option func(*Catalog)

var WithLog = func(log *slog.Logger) Option {
	return func(c *Catalog) {
		c.log = log
	}
}

// WithClock overrides the time source used to stamp revisions.
var WithClock = func(now func() time.Time) Option {
	return func(c *Catalog) {
		c.now = now
	}
}

func NewCatalog(backend Backend, codec kserde.OperatorCodec, opts ...Option) *Catalog {
	c := &Catalog{
		backend: backend,
		codec:   codec,
		log:     kdag.NullLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save validates d and stores it under name. An invalid plan is not written;
// the validation error is returned as is.
func (c *Catalog) Save(ctx context.Context, name string, d *kdag.DAG) (Revision, error) {
	if err := checkName(name); err != nil {
		return Revision{}, err
	}
	if err := d.Validate(); err != nil {
		return Revision{}, err
	}

	var buf bytes.Buffer
	if err := kdag.Write(&buf, d, c.codec); err != nil {
		return Revision{}, fmt.Errorf("failed to serialize plan %s: %w", name, err)
	}

	rev := Revision{
		Name:       name,
		ID:         uuid.New(),
		SavedAt:    c.now().UTC().Truncate(time.Millisecond),
		Codec:      c.codec.Name(),
		ClassNames: d.ClassNames(),
	}
	data, err := msgpack.Marshal(envelope{
		Revision:   rev.ID.String(),
		SavedAt:    rev.SavedAt.UnixMilli(),
		Codec:      rev.Codec,
		ClassNames: rev.ClassNames,
		Plan:       buf.Bytes(),
	})
	if err != nil {
		return Revision{}, fmt.Errorf("failed to encode plan %s: %w", name, err)
	}

	if err := c.backend.Set(ctx, planPrefix+name, data); err != nil {
		return Revision{}, fmt.Errorf("failed to store plan %s: %w", name, err)
	}
	c.log.Debug("Plan saved", "plan", name, "revision", rev.ID, "backend", c.backend.Name())
	return rev, nil
}

// Load reads the latest revision of a plan. opts are applied to the restored
// DAG.
func (c *Catalog) Load(ctx context.Context, name string, opts ...kdag.Option) (*kdag.DAG, Revision, error) {
	env, rev, err := c.get(ctx, name)
	if err != nil {
		return nil, Revision{}, err
	}
	if env.Codec != c.codec.Name() {
		return nil, Revision{}, fmt.Errorf("%w: %s uses %q, catalog uses %q", ErrCodecMismatch, name, env.Codec, c.codec.Name())
	}
	d, err := kdag.Read(bytes.NewReader(env.Plan), c.codec, opts...)
	if err != nil {
		return nil, Revision{}, fmt.Errorf("failed to restore plan %s: %w", name, err)
	}
	return d, rev, nil
}

// Revision returns the metadata of the latest revision of a plan without
// restoring it.
func (c *Catalog) Revision(ctx context.Context, name string) (Revision, error) {
	_, rev, err := c.get(ctx, name)
	return rev, err
}

// List returns the latest revision of every stored plan, sorted by name.
func (c *Catalog) List(ctx context.Context) ([]Revision, error) {
	keys, err := c.backend.Keys(ctx, planPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	revs := make([]Revision, 0, len(keys))
	for _, key := range keys {
		_, rev, err := c.get(ctx, strings.TrimPrefix(key, planPrefix))
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	return revs, nil
}

func (c *Catalog) Delete(ctx context.Context, name string) error {
	if _, err := c.Revision(ctx, name); err != nil {
		return err
	}
	if err := c.backend.Delete(ctx, planPrefix+name); err != nil {
		return fmt.Errorf("failed to delete plan %s: %w", name, err)
	}
	c.log.Debug("Plan deleted", "plan", name)
	return nil
}

func (c *Catalog) get(ctx context.Context, name string) (envelope, Revision, error) {
	if err := checkName(name); err != nil {
		return envelope{}, Revision{}, err
	}
	data, err := c.backend.Get(ctx, planPrefix+name)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return envelope{}, Revision{}, fmt.Errorf("%w: %s", ErrPlanNotFound, name)
		}
		return envelope{}, Revision{}, fmt.Errorf("failed to read plan %s: %w", name, err)
	}

	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return envelope{}, Revision{}, fmt.Errorf("%w: plan %s: %w", kdag.ErrInvalidFormat, name, err)
	}
	id, err := uuid.Parse(env.Revision)
	if err != nil {
		return envelope{}, Revision{}, fmt.Errorf("%w: plan %s revision: %w", kdag.ErrInvalidFormat, name, err)
	}
	return env, Revision{
		Name:       name,
		ID:         id,
		SavedAt:    time.UnixMilli(env.SavedAt).UTC(),
		Codec:      env.Codec,
		ClassNames: env.ClassNames,
	}, nil
}

func checkName(name string) error {
	if !planName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidPlanName, name)
	}
	return nil
}
