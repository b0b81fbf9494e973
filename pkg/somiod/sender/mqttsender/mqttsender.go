// Package mqttsender publishes notifications to MQTT brokers through a pool
// of keyed connections. Connections are created on first use, re-checked for
// liveness before reuse and dialed at most once per broker at a time; the
// publish itself always runs outside the pool lock so one slow broker cannot
// serialize publishes to the others.
package mqttsender

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	// DefaultBroker is used when an endpoint omits the host.
	DefaultBroker = "localhost"
	// DefaultPort is used when an endpoint omits the port.
	DefaultPort = "1883"

	// qosAtLeastOnce is the delivery quality for every publish.
	qosAtLeastOnce byte = 1

	connectTimeout = 10 * time.Second
	// disconnectQuiesce gives in-flight publishes a moment to drain on close.
	disconnectQuiesce = 250 // milliseconds
)

// Sender implements somiod.Sender over MQTT with pooled broker connections.
type Sender struct {
	mu    sync.Mutex
	conns map[string]*conn // "host:port" -> connection entry
}

// conn is one pooled broker connection. ready is closed once the dial attempt
// finished; client and err must not be read before that.
type conn struct {
	ready  chan struct{}
	client mqtt.Client
	err    error
}

// New creates a sender with an empty connection pool.
func New() *Sender {
	return &Sender{conns: make(map[string]*conn)}
}

// Send publishes payload on topic to the broker named by endpoint
// (mqtt://host[:port]) with at-least-once quality.
func (s *Sender) Send(ctx context.Context, endpoint, topic string, payload []byte) error {
	addr, err := brokerAddr(endpoint)
	if err != nil {
		return err
	}

	client, err := s.getClient(addr)
	if err != nil {
		return fmt.Errorf("mqtt broker %s unavailable: %w", addr, err)
	}

	token := client.Publish(topic, qosAtLeastOnce, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s on %s: %w", topic, addr, err)
	}
	return nil
}

// getClient returns a live pooled client for addr, dialing if needed. The
// pool lock covers only lookup, insert and evict; the dial and every publish
// happen outside it. A second caller hitting the same address while the dial
// is in flight waits on the same entry instead of dialing again.
func (s *Sender) getClient(addr string) (mqtt.Client, error) {
	s.mu.Lock()
	entry, ok := s.conns[addr]
	if ok && entry.dead() {
		delete(s.conns, addr)
		ok = false
	}
	var dialing bool
	if !ok {
		entry = &conn{ready: make(chan struct{})}
		s.conns[addr] = entry
		dialing = true
	}
	s.mu.Unlock()

	if dialing {
		entry.client, entry.err = dial(addr)
		close(entry.ready)
	} else {
		<-entry.ready
	}

	if entry.err != nil {
		s.mu.Lock()
		if s.conns[addr] == entry {
			delete(s.conns, addr)
		}
		s.mu.Unlock()
		return nil, entry.err
	}
	return entry.client, nil
}

// dead reports whether the entry finished dialing and is no longer usable.
// An entry still dialing is never considered dead.
func (c *conn) dead() bool {
	select {
	case <-c.ready:
		return c.err != nil || !c.client.IsConnectionOpen()
	default:
		return false
	}
}

func dial(addr string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker("tcp://" + addr).
		SetClientID("somiod-" + uuid.NewString()[:13]).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(false)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect to %s timed out", addr)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return client, nil
}

// brokerAddr extracts "host:port" from an mqtt:// endpoint, applying
// defaults for missing parts.
func brokerAddr(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing mqtt endpoint %q: %w", endpoint, err)
	}
	if !strings.EqualFold(u.Scheme, "mqtt") {
		return "", fmt.Errorf("endpoint %q is not an mqtt URL", endpoint)
	}

	host := u.Hostname()
	if host == "" {
		host = DefaultBroker
	}
	port := u.Port()
	if port == "" {
		port = DefaultPort
	}
	return host + ":" + port, nil
}

// Close disconnects every pooled client, best effort.
func (s *Sender) Close() error {
	s.mu.Lock()
	conns := s.conns
	s.conns = make(map[string]*conn)
	s.mu.Unlock()

	for _, entry := range conns {
		<-entry.ready
		if entry.err == nil && entry.client.IsConnected() {
			entry.client.Disconnect(disconnectQuiesce)
		}
	}
	return nil
}
