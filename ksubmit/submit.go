// Package ksubmit hands validated plans to the scheduler over Kafka. Each
// plan is one record: the key is the plan name, the value the serialized DAG,
// and headers carry the submission id, format version and operator codec.
package ksubmit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/birdayz/kplan/kdag"
	"github.com/birdayz/kplan/kserde"
	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	HeaderSubmissionID  = "kplan-submission-id"
	HeaderFormatVersion = "kplan-format-version"
	HeaderCodec         = "kplan-operator-codec"
)

var (
	ErrMissingHeader      = errors.New("submission header missing")
	ErrUnsupportedVersion = errors.New("unsupported plan format version")
	ErrCodecMismatch      = errors.New("submission uses a different operator codec")
)

type config struct {
	log     *slog.Logger
	dagOpts []kdag.Option
}

type Option func(*config)

var WithLog = func(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithDAGOptions sets the options used when restoring received plans.
var WithDAGOptions = func(opts ...kdag.Option) Option {
	return func(c *config) {
		c.dagOpts = opts
	}
}

func newConfig(opts []Option) config {
	c := config{log: kdag.NullLogger()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Submitter publishes plans to a topic.
type Submitter struct {
	client *kgo.Client
	topic  string
	codec  kserde.OperatorCodec
	log    *slog.Logger
}

func NewSubmitter(client *kgo.Client, topic string, codec kserde.OperatorCodec, opts ...Option) *Submitter {
	c := newConfig(opts)
	return &Submitter{client: client, topic: topic, codec: codec, log: c.log}
}

// Submit validates d and produces it synchronously. It returns the id of the
// submission.
func (s *Submitter) Submit(ctx context.Context, name string, d *kdag.DAG) (uuid.UUID, error) {
	if err := d.Validate(); err != nil {
		return uuid.Nil, err
	}
	rec, id, err := NewRecord(s.topic, name, d, s.codec)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to produce plan %s: %w", name, err)
	}
	s.log.Info("Plan submitted", "plan", name, "submission", id, "topic", s.topic)
	return id, nil
}

// NewRecord serializes d into a record for topic. It does not validate d.
func NewRecord(topic, name string, d *kdag.DAG, codec kserde.OperatorCodec) (*kgo.Record, uuid.UUID, error) {
	var buf bytes.Buffer
	if err := kdag.Write(&buf, d, codec); err != nil {
		return nil, uuid.Nil, fmt.Errorf("failed to serialize plan %s: %w", name, err)
	}
	id := uuid.New()
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(name),
		Value: buf.Bytes(),
		Headers: []kgo.RecordHeader{
			{Key: HeaderSubmissionID, Value: []byte(id.String())},
			{Key: HeaderFormatVersion, Value: []byte(strconv.Itoa(kdag.FormatVersion))},
			{Key: HeaderCodec, Value: []byte(codec.Name())},
		},
	}, id, nil
}

// EnsureTopic creates topic. A topic that already exists is not an error.
func EnsureTopic(ctx context.Context, admin *kadm.Client, topic string, partitions int32, replicationFactor int16) error {
	resps, err := admin.CreateTopics(ctx, partitions, replicationFactor, map[string]*string{}, topic)
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", topic, err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("failed to create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}
