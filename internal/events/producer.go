package events

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"github.com/segmentio/kafka-go"
)

// Producer writes settlement events to Kafka through a buffered inbox.
// Delivery is fire-and-forget: the settlement transaction never waits on the
// broker, and a full inbox drops the event with a log line rather than block.
type Producer struct {
	w      *kafka.Writer
	inbox  chan kafka.Message
	closed chan struct{}
	logger *log.Logger
}

func NewProducer(brokers []string, topic string, logger *log.Logger) *Producer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Producer{
		// The writer stays synchronous: the inbox already decouples callers
		// from the broker, and a sync write surfaces delivery errors here.
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:  make(chan kafka.Message, 256),
		closed: make(chan struct{}),
		logger: logger,
	}
}

// Start launches the flush loop in its own goroutine and returns immediately.
// The loop runs until ctx is cancelled, then drains the inbox and closes the
// writer.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closed)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case m := <-p.inbox:
						p.write(m)
					default:
						_ = p.w.Close()
						return
					}
				}
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

// PublishPaymentSettled enqueues one event keyed by order id.
func (p *Producer) PublishPaymentSettled(ev PaymentSettled) {
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Printf("events: marshal order_id=%s error=%v", ev.OrderID, err)
		return
	}
	select {
	case p.inbox <- kafka.Message{Key: []byte(ev.OrderID), Value: value, Time: ev.OccurredAt}:
	default:
		p.logger.Printf("events: inbox full, dropped order_id=%s", ev.OrderID)
	}
}

// WaitClosed blocks until the flush loop has exited.
func (p *Producer) WaitClosed() {
	<-p.closed
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.logger.Printf("events: write key=%s error=%v", m.Key, err)
	}
}
