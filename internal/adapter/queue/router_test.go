package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	domain "github.com/aq2208/growcery-api/internal/entity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeChannel struct {
	msgs chan amqp.Delivery
}

func (f *fakeChannel) Qos(int, int, bool) error { return nil }
func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.msgs, nil
}

// ackRecorder implements amqp.Acknowledger.
type ackRecorder struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
	done    chan struct{}
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	a.acked = append(a.acked, tag)
	a.mu.Unlock()
	a.done <- struct{}{}
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	a.mu.Unlock()
	a.done <- struct{}{}
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

type recorder struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	fail   bool
}

func (r *recorder) RecordEvent(_ context.Context, ev domain.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("store down")
	}
	r.events = append(r.events, ev)
	return nil
}

func TestRouter_HistoryProjection(t *testing.T) {
	ch := &fakeChannel{msgs: make(chan amqp.Delivery)}
	acks := &ackRecorder{done: make(chan struct{}, 4)}
	rec := &recorder{}

	r := NewRouter(ch, WithTimeout(time.Second))
	r.Register("order.history.q", NewOrderHistoryHandler(rec).Handler())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))

	ch.msgs <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1,
		Body: []byte(`{"id":"e1","type":"order.created","orderId":"o1","from":0,"to":0,"totalAmount":"7.5"}`)}
	<-acks.done
	ch.msgs <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte(`{not json`)}
	<-acks.done
	ch.msgs <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 3, Body: []byte(`{"type":"order.created"}`)}
	<-acks.done

	rec.mu.Lock()
	rec.fail = true
	rec.mu.Unlock()
	ch.msgs <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 4, Body: []byte(`{"id":"e2","orderId":"o1"}`)}
	<-acks.done

	cancel()
	r.Wait()

	assert.Equal(t, []uint64{1}, acks.acked)
	assert.Equal(t, []uint64{2, 3, 4}, acks.nacked)
	assert.Equal(t, []bool{false, false, true}, acks.requeue)
	require.Len(t, rec.events, 1)
	assert.Equal(t, "o1", rec.events[0].OrderID)
	assert.Equal(t, "7.5", rec.events[0].TotalAmount.String())
}

func TestRouter_StopsWhenChannelCloses(t *testing.T) {
	ch := &fakeChannel{msgs: make(chan amqp.Delivery)}
	r := NewRouter(ch)
	r.Register("q", HandlerFunc(func(context.Context, amqp.Delivery) error { return nil }))
	require.NoError(t, r.Start(context.Background()))
	close(ch.msgs)
	r.Wait()
}
