package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/aq2208/growcery-api/internal/logging"
	"github.com/aq2208/growcery-api/internal/usecase"
)

// HandlerFunc processes a decoded fulfilment message.
type HandlerFunc func(ctx context.Context, msg usecase.FulfillmentMsg) error

// ErrSkip tells the consumer to commit the message without retrying it.
var ErrSkip = errors.New("skip message")

// Consumer consumes a topic with a single handler.
type Consumer struct {
	Group  sarama.ConsumerGroup
	Topics []string
	Handle HandlerFunc
	Logger *slog.Logger
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc) *Consumer {
	return &Consumer{
		Group:  group,
		Topics: topics,
		Handle: h,
		Logger: logging.New("kafka-consumer"),
	}
}

// Start blocks until ctx is cancelled or the group fails.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &cgHandler{handle: c.Handle, log: c.Logger}
	go func() {
		for err := range c.Group.Errors() {
			c.Logger.Error("consumer group error", "err", err)
		}
	}()
	for {
		if err := c.Group.Consume(ctx, c.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		// When Consume returns, it's because ctx was cancelled or a rebalance happened.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type cgHandler struct {
	handle HandlerFunc
	log    *slog.Logger
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		log := h.log.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)

		var ev usecase.FulfillmentMsg
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Warn("kafka decode error", "err", err)
			// mark to avoid reprocessing poison
			sess.MarkMessage(msg, "decode-error")
			continue
		}

		err := h.handle(logging.WithCtx(sess.Context(), log), ev)
		switch {
		case err == nil:
			sess.MarkMessage(msg, "")
		case errors.Is(err, ErrSkip):
			log.Warn("message skipped", "order_id", ev.OrderID, "status", ev.Status, "err", err)
			sess.MarkMessage(msg, "skipped")
		default:
			// Do not mark message; it is redelivered after the next rebalance or restart.
			log.Error("handler error", "order_id", ev.OrderID, "key", string(msg.Key), "err", err)
		}
	}
	return nil
}
