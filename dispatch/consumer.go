package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/metrics"
)

const (
	maxAttempts = 3
	baseBackoff = 200 * time.Millisecond
)

// HandlerFunc processes a decoded message.
type HandlerFunc func(ctx context.Context, m Message) error

// Consumer consumes the dispatch topic with a single handler.
type Consumer struct {
	Group   sarama.ConsumerGroup
	Topics  []string
	Handle  HandlerFunc
	Logger  *slog.Logger
	Backoff time.Duration
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc) *Consumer {
	return &Consumer{
		Group:   group,
		Topics:  topics,
		Handle:  h,
		Logger:  logging.New("dispatch"),
		Backoff: baseBackoff,
	}
}

// Start blocks until ctx is cancelled or the group fails.
func (c *Consumer) Start(ctx context.Context) error {
	go func() {
		for err := range c.Group.Errors() {
			c.Logger.Warn("consumer group error", "err", err)
		}
	}()

	handler := &cgHandler{handle: c.Handle, logger: c.Logger, backoff: c.Backoff}
	for {
		if err := c.Group.Consume(ctx, c.Topics, handler); err != nil {
			return err
		}
		// Consume returns on rebalance as well as on shutdown.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type cgHandler struct {
	handle  HandlerFunc
	logger  *slog.Logger
	backoff time.Duration
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		log := h.logger.With("partition", msg.Partition, "offset", msg.Offset)
		ctx := logging.WithCtx(sess.Context(), log)

		result := h.process(ctx, msg.Value)
		metrics.DispatchMessages.WithLabelValues(result).Inc()
		if result == "retry_exhausted" {
			// Left unmarked so it is redelivered after a restart or rebalance.
			continue
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

func (h *cgHandler) process(ctx context.Context, raw []byte) string {
	log := logging.FromCtx(ctx)
	m, err := Decode(raw)
	if err != nil {
		log.Warn("dropping malformed dispatch message", "err", err)
		return "malformed"
	}
	log = log.With("order_number", m.OrderNumber, "status", m.Status)

	for attempt := 1; ; attempt++ {
		err = h.handle(ctx, m)
		switch {
		case err == nil:
			log.Info("dispatch status applied")
			return "applied"
		case IsPermanent(err):
			log.Warn("dispatch status rejected", "err", err)
			return "rejected"
		case attempt == maxAttempts:
			log.Error("dispatch status failed", "attempts", attempt, "err", err)
			return "retry_exhausted"
		}

		select {
		case <-ctx.Done():
			return "retry_exhausted"
		case <-time.After(h.backoff * time.Duration(attempt)):
		}
	}
}
