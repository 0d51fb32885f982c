package loopback

import (
	"context"
	"sync"

	"go.trai.ch/blueshift/internal/core/domain"
)

// mailbox is an unbounded FIFO in front of an unbuffered channel. Put never blocks.
type mailbox struct {
	mu     sync.Mutex
	queue  []domain.Message
	signal chan struct{}
	out    chan domain.Message
}

func newMailbox() *mailbox {
	return &mailbox{
		signal: make(chan struct{}, 1),
		out:    make(chan domain.Message),
	}
}

func (m *mailbox) put(msgs ...domain.Message) {
	if len(msgs) == 0 {
		return
	}
	m.mu.Lock()
	m.queue = append(m.queue, msgs...)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox) next() (domain.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return domain.Message{}, false
	}
	msg := m.queue[0]
	m.queue[0] = domain.Message{}
	m.queue = m.queue[1:]
	return msg, true
}

// pump delivers queued messages to out until ctx is cancelled.
func (m *mailbox) pump(ctx context.Context) {
	for {
		msg, ok := m.next()
		if !ok {
			select {
			case <-m.signal:
				continue
			case <-ctx.Done():
				return
			}
		}
		select {
		case m.out <- msg:
		case <-ctx.Done():
			return
		}
	}
}
