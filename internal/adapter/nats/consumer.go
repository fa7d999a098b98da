package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/magnus-flipper/sniper-service/internal/platform/logger"
	"github.com/nats-io/nats.go"
)

// JobHandler processes one queued job. The context carries the per-job
// deadline; a returned error is logged and surfaced to the queue layer,
// which owns retry policy.
type JobHandler func(ctx context.Context, data []byte) error

// Consumer subscribes worker handlers to subjects with bounded concurrency.
// Each stage of the pipeline is a queue consumer; the semaphore caps how many
// jobs one process works at a time.
type Consumer struct {
	conn       *nats.Conn
	log        logger.Logger
	sem        chan struct{}
	jobTimeout time.Duration
}

func NewConsumer(conn *nats.Conn, log logger.Logger, concurrency int, jobTimeout time.Duration) (*Consumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("NATS connection cannot be nil")
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Consumer{
		conn:       conn,
		log:        log,
		sem:        make(chan struct{}, concurrency),
		jobTimeout: jobTimeout,
	}, nil
}

// Subscribe attaches a handler to a subject within a queue group, so
// multiple worker processes share the subject's jobs.
func (c *Consumer) Subscribe(subject, queueGroup string, handler JobHandler) (*nats.Subscription, error) {
	sub, err := c.conn.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
		c.sem <- struct{}{}
		go func() {
			defer func() { <-c.sem }()

			ctx := context.Background()
			cancel := func() {}
			if c.jobTimeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, c.jobTimeout)
			}
			defer cancel()

			if err := handler(ctx, msg.Data); err != nil {
				c.log.Errorf("Job on subject %s failed: %v", subject, err)
			}
		}()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}
	return sub, nil
}
