package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/birdayz/kplan/internal/config"
	"github.com/birdayz/kplan/kdag"
	"github.com/birdayz/kplan/kplanfile"
	"github.com/birdayz/kplan/kserde"
	"github.com/birdayz/kplan/kstate"
	"github.com/birdayz/kplan/kstate/file"
	"github.com/birdayz/kplan/kstate/pebble"
	"github.com/birdayz/kplan/kstate/redis"
	"github.com/birdayz/kplan/kstate/s3"
	"github.com/birdayz/kplan/operators"
	klog "github.com/birdayz/kplan/pkg/log"
)

type app struct {
	cfg    *config.Config
	log    *slog.Logger
	out    io.Writer
	loader *kplanfile.Loader
	codec  kserde.OperatorCodec
}

func newApp(cfg *config.Config, out io.Writer) (*app, error) {
	log := klog.New(cfg.Level())

	plans := kplanfile.NewRegistry()
	types := kserde.NewRegistry()
	if err := operators.Register(plans, types); err != nil {
		return nil, err
	}
	codec, err := kserde.NewOperatorCodec(cfg.OperatorCodec, types)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		out:    out,
		loader: kplanfile.NewLoader(plans, kplanfile.WithLog(log), kplanfile.WithDAGOptions(kdag.WithLog(log))),
		codec:  codec,
	}, nil
}

func (a *app) loadPlan(path string) (*kdag.DAG, error) {
	return a.loader.LoadFile(path)
}

func (a *app) openBackend(ctx context.Context) (kstate.Backend, error) {
	sc := a.cfg.Store
	switch sc.Backend {
	case "memory":
		return kstate.NewMemoryBackend(), nil
	case "file":
		return file.Open(sc.Dir)
	case "pebble":
		return pebble.Open(sc.Dir)
	case "s3":
		return s3.Open(ctx, s3.Options{
			Endpoint:  sc.S3Endpoint,
			AccessKey: sc.S3AccessKey,
			SecretKey: sc.S3SecretKey,
			Bucket:    sc.S3Bucket,
			Prefix:    sc.S3Prefix,
			Secure:    sc.S3Secure,
		})
	case "redis":
		return redis.Open(ctx, redis.Options{
			Addr:      sc.RedisAddr,
			Password:  sc.RedisPassword,
			DB:        sc.RedisDB,
			Namespace: sc.RedisNamespace,
		})
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", sc.Backend)
	}
}

func (a *app) catalog(ctx context.Context) (*kstate.Catalog, func() error, error) {
	backend, err := a.openBackend(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", a.cfg.Store.Backend, err)
	}
	a.log.Debug("Store opened", "backend", backend.Name())
	return kstate.NewCatalog(backend, a.codec, kstate.WithLog(a.log)), backend.Close, nil
}
