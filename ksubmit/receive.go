package ksubmit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/birdayz/kplan/kdag"
	"github.com/birdayz/kplan/kserde"
	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/multierr"
)

// Submission is a plan received from the submission topic.
type Submission struct {
	ID        uuid.UUID
	Name      string
	DAG       *kdag.DAG
	Timestamp time.Time
}

// Receiver consumes submissions. The client must be configured to consume
// the submission topic.
type Receiver struct {
	client  *kgo.Client
	codec   kserde.OperatorCodec
	log     *slog.Logger
	dagOpts []kdag.Option
}

func NewReceiver(client *kgo.Client, codec kserde.OperatorCodec, opts ...Option) *Receiver {
	c := newConfig(opts)
	return &Receiver{client: client, codec: codec, log: c.log, dagOpts: c.dagOpts}
}

// Poll blocks until records are available or ctx is done and returns the
// decoded submissions. Records that cannot be decoded are logged and skipped.
func (r *Receiver) Poll(ctx context.Context) ([]Submission, error) {
	fetches := r.client.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return nil, kgo.ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := fetchError(fetches); err != nil {
		return nil, err
	}

	var subs []Submission
	fetches.EachRecord(func(rec *kgo.Record) {
		sub, err := Decode(rec, r.codec, r.dagOpts...)
		if err != nil {
			r.log.Error("Skipping undecodable submission", "topic", rec.Topic, "partition", rec.Partition, "offset", rec.Offset, "error", err)
			return
		}
		subs = append(subs, sub)
	})
	return subs, nil
}

// fetchError combines the per-partition errors of fetches.
func fetchError(fetches kgo.Fetches) error {
	var err error
	fetches.EachError(func(topic string, partition int32, perr error) {
		err = multierr.Append(err, fmt.Errorf("fetch %s/%d: %w", topic, partition, perr))
	})
	return err
}

// Decode restores a submission from a record produced by NewRecord.
func Decode(rec *kgo.Record, codec kserde.OperatorCodec, opts ...kdag.Option) (Submission, error) {
	headers := make(map[string]string, len(rec.Headers))
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	for _, key := range []string{HeaderSubmissionID, HeaderFormatVersion, HeaderCodec} {
		if _, ok := headers[key]; !ok {
			return Submission{}, fmt.Errorf("%w: %s", ErrMissingHeader, key)
		}
	}

	id, err := uuid.Parse(headers[HeaderSubmissionID])
	if err != nil {
		return Submission{}, fmt.Errorf("invalid submission id: %w", err)
	}
	if v, err := strconv.Atoi(headers[HeaderFormatVersion]); err != nil || v != kdag.FormatVersion {
		return Submission{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, headers[HeaderFormatVersion])
	}
	if headers[HeaderCodec] != codec.Name() {
		return Submission{}, fmt.Errorf("%w: %q", ErrCodecMismatch, headers[HeaderCodec])
	}

	d, err := kdag.Read(bytes.NewReader(rec.Value), codec, opts...)
	if err != nil {
		return Submission{}, err
	}
	return Submission{ID: id, Name: string(rec.Key), DAG: d, Timestamp: rec.Timestamp}, nil
}
