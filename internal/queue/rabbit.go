package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultQueue is the durable queue carrying sync job ids.
const DefaultQueue = "fssync-jobs"

// Client moves sync job ids from the API to the workers.
type Client interface {
	Publish(ctx context.Context, jobID string) error
	Consume(ctx context.Context) (<-chan string, error)
	Close() error
}

type rabbitClient struct {
	conn   *amqp.Connection
	q      amqp.Queue
	logger *zap.Logger
}

// NewRabbitClient connects to RabbitMQ and declares a durable queue with the
// given name.
func NewRabbitClient(url, queueName string, logger *zap.Logger) (Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	// publish and consume open their own channels
	ch.Close()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &rabbitClient{conn: conn, q: q, logger: logger}, nil
}

func (r *rabbitClient) Publish(ctx context.Context, jobID string) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return ch.PublishWithContext(ctx,
		"", r.q.Name, false, false,
		amqp.Publishing{
			ContentType:  "text/plain",
			DeliveryMode: amqp.Persistent,
			Body:         []byte(jobID),
		},
	)
}

// Consume delivers job ids one at a time. A delivery is acked once a worker
// took it; on shutdown the pending delivery is requeued.
func (r *rabbitClient) Consume(ctx context.Context) (<-chan string, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, err
	}
	// sync runs are long; never hold more than one unacked job per consumer
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, err
	}
	msgs, err := ch.Consume(r.q.Name, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}
	out := make(chan string)
	go func() {
		defer ch.Close()
		defer close(out)
		for d := range msgs {
			select {
			case out <- string(d.Body):
				if err := d.Ack(false); err != nil {
					r.logger.Warn("ack job", zap.String("job", string(d.Body)), zap.Error(err))
				}
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			}
		}
	}()
	return out, nil
}

func (r *rabbitClient) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
