// Package memory provides a recording sender for tests and local
// development.
package memory

import (
	"context"
	"sync"
)

// Delivery captures one Send call.
type Delivery struct {
	Endpoint string
	Topic    string
	Payload  []byte
}

// Sender implements somiod.Sender by recording every delivery in memory.
type Sender struct {
	mu         sync.Mutex
	deliveries []Delivery

	// FailFor makes Send return the given error for matching endpoints.
	FailFor map[string]error
	// BlockFor holds a Send to the matching endpoint open until its channel
	// is closed; tests use it to stall one delivery while others proceed.
	BlockFor map[string]chan struct{}
}

// New creates a new recording sender
func New() *Sender {
	return &Sender{}
}

// Send records the delivery.
func (s *Sender) Send(ctx context.Context, endpoint, topic string, payload []byte) error {
	if block := s.BlockFor[endpoint]; block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := s.FailFor[endpoint]; err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.deliveries = append(s.deliveries, Delivery{Endpoint: endpoint, Topic: topic, Payload: buf})
	return nil
}

// Deliveries returns a snapshot of everything sent so far.
func (s *Sender) Deliveries() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Delivery, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}

// Close is a no-op
func (s *Sender) Close() error {
	return nil
}
