package queue

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("queue closed")

// MemoryClient is an in-process Client used when no broker is configured.
// Every consumer reads from the same buffered channel. Ids still buffered at
// Close are dropped; their job rows stay pending.
type MemoryClient struct {
	ch        chan string
	done      chan struct{}
	closeOnce sync.Once
}

var _ Client = (*MemoryClient)(nil)

func NewMemoryClient(buffer int) *MemoryClient {
	return &MemoryClient{ch: make(chan string, buffer), done: make(chan struct{})}
}

func (m *MemoryClient) Publish(ctx context.Context, jobID string) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	select {
	case m.ch <- jobID:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume forwards ids until ctx ends or the queue is closed. An id taken
// from the buffer but not handed over before ctx ends goes back to the queue.
func (m *MemoryClient) Consume(ctx context.Context) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-m.done:
				return
			case <-ctx.Done():
				return
			case id := <-m.ch:
				select {
				case out <- id:
				case <-ctx.Done():
					m.putBack(id)
					return
				case <-m.done:
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *MemoryClient) putBack(id string) {
	select {
	case m.ch <- id:
	default:
		// buffer refilled meanwhile
		go func() {
			select {
			case m.ch <- id:
			case <-m.done:
			}
		}()
	}
}

func (m *MemoryClient) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}
