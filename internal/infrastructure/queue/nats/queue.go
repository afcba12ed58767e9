package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
	"github.com/kirillkom/handout-assistant/internal/infrastructure/resilience"
)

const (
	workerGroup    = "highlight-workers"
	connectionName = "handout-assistant"
	drainFlushWait = 5 * time.Second
)

// Queue carries highlight jobs between the API and the worker.
type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

// Options tunes the NATS connection. Zero values take defaults.
type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
	// FailFast makes New return an error when the server is down at
	// startup instead of reconnecting in the background.
	FailFast bool
	// Executor wraps publishes with retries and a breaker when set.
	Executor *resilience.Executor
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 2 * time.Second
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = 2 * time.Second
	}
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = 60
	}
	return o
}

func (o Options) natsOptions() []nats.Option {
	return []nats.Option{
		nats.Name(connectionName),
		nats.Timeout(o.ConnectTimeout),
		nats.ReconnectWait(o.ReconnectWait),
		nats.MaxReconnects(o.MaxReconnects),
		nats.RetryOnFailedConnect(!o.FailFast),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	}
}

func New(url, subject string, options Options) (*Queue, error) {
	options = options.withDefaults()
	conn, err := nats.Connect(url, options.natsOptions()...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &Queue{conn: conn, subject: subject, executor: options.Executor}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishHighlightJob(ctx context.Context, job domain.HighlightJob) error {
	payload, err := encodeJob(job)
	if err != nil {
		return err
	}

	publish := func(context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish %s: %w", q.subject, err)
		}
		return nil
	}
	if q.executor == nil {
		return wrapUnavailableIfNeeded(publish(ctx))
	}
	return wrapUnavailableIfNeeded(q.executor.Execute(ctx, "nats.publish", publish, classifyNATSError))
}

// SubscribeHighlightJobs runs handler for every job until ctx is cancelled,
// then drains the subscription. Undecodable messages are logged and dropped.
func (q *Queue) SubscribeHighlightJobs(ctx context.Context, handler func(context.Context, domain.HighlightJob) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerGroup, func(msg *nats.Msg) {
		deliver(ctx, msg, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", q.subject, err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(drainFlushWait); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func deliver(ctx context.Context, msg *nats.Msg, handler func(context.Context, domain.HighlightJob) error) {
	if ctx.Err() != nil {
		return
	}
	job, err := decodeJob(msg.Data)
	if err != nil {
		slog.Error("highlight_job_decode_failed", "subject", msg.Subject, "error", err)
		return
	}
	if err := handler(ctx, job); err != nil {
		slog.Error("highlight_job_failed", "handout_id", job.HandoutID, "error", err)
	}
}

func encodeJob(job domain.HighlightJob) ([]byte, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal highlight job: %w", err)
	}
	return payload, nil
}

func decodeJob(data []byte) (domain.HighlightJob, error) {
	var job domain.HighlightJob
	if err := json.Unmarshal(data, &job); err != nil {
		return domain.HighlightJob{}, fmt.Errorf("unmarshal highlight job: %w", err)
	}
	if job.HandoutID == "" {
		return domain.HighlightJob{}, errors.New("highlight job without handout id")
	}
	return job, nil
}
