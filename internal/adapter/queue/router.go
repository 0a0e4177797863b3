package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aq2208/growcery-api/internal/logging"
)

// Channel is the part of *amqp.Channel the router consumes through.
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Router manages multiple consumers (one per registered queue) on a single AMQP channel.
type Router struct {
	ch            Channel
	prefetch      int
	callTimeout   time.Duration
	requeueOnErr  bool
	registrations []registration
	log           *slog.Logger
	wg            sync.WaitGroup
}

type registration struct {
	queueName   string
	handler     Handler
	consumerTag string
}

type RouterOption func(*Router)

func WithPrefetch(n int) RouterOption          { return func(r *Router) { r.prefetch = n } }
func WithTimeout(d time.Duration) RouterOption { return func(r *Router) { r.callTimeout = d } }
func WithRequeue(b bool) RouterOption          { return func(r *Router) { r.requeueOnErr = b } }

// NewRouter constructs a Router. Defaults: prefetch=50, timeout=10s, requeueOnErr=true.
func NewRouter(ch Channel, opts ...RouterOption) *Router {
	r := &Router{
		ch:           ch,
		prefetch:     50,
		callTimeout:  10 * time.Second,
		requeueOnErr: true,
		log:          logging.New("rmq-router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register associates a queue with a handler. Call multiple times for multiple queues.
func (r *Router) Register(queueName string, h Handler) {
	r.registrations = append(r.registrations, registration{
		queueName:   queueName,
		handler:     h,
		consumerTag: "c_" + queueName,
	})
}

// Start begins consuming; non-blocking (spawns one goroutine per queue).
// Consumers stop when ctx is done or the broker closes the delivery channel.
func (r *Router) Start(ctx context.Context) error {
	if err := r.ch.Qos(r.prefetch, 0, false); err != nil {
		return err
	}

	for _, reg := range r.registrations {
		deliveries, err := r.ch.Consume(
			reg.queueName,
			reg.consumerTag,
			false, // manual ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return err
		}

		r.wg.Add(1)
		go r.consume(ctx, reg, deliveries)
	}
	return nil
}

// Wait blocks until every consumer goroutine has returned.
func (r *Router) Wait() { r.wg.Wait() }

func (r *Router) consume(ctx context.Context, reg registration, msgs <-chan amqp.Delivery) {
	defer r.wg.Done()
	log := r.log.With("queue", reg.queueName, "tag", reg.consumerTag)
	for {
		select {
		case <-ctx.Done():
			log.Info("consumer stopped", "reason", ctx.Err())
			return
		case d, ok := <-msgs:
			if !ok {
				log.Info("consumer stopped", "reason", "delivery channel closed")
				return
			}
			r.dispatch(ctx, log, reg.handler, d)
		}
	}
}

func (r *Router) dispatch(ctx context.Context, log *slog.Logger, h Handler, d amqp.Delivery) {
	cctx, cancel := context.WithTimeout(logging.WithCtx(ctx, log), r.callTimeout)
	err := h.Handle(cctx, d)
	cancel()

	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrPoison):
		log.Warn("dropping poison message", "rk", d.RoutingKey, "msg_id", d.MessageId, "err", err)
		_ = d.Nack(false, false)
	default:
		log.Error("handler error", "rk", d.RoutingKey, "msg_id", d.MessageId, "err", err, "requeue", r.requeueOnErr)
		_ = d.Nack(false, r.requeueOnErr)
	}
}
