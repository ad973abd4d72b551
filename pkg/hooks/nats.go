package hooks

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/jkshenton/jasp/pkg/lifecycle"
)

// FinishedEvent is the payload published when a job is first observed
// finished.
type FinishedEvent struct {
	Dir      string    `json:"dir"`
	UUID     string    `json:"uuid,omitempty"`
	Hostname string    `json:"hostname,omitempty"`
	TS       time.Time `json:"ts"`
}

// NewFinishedEvent builds the event for a harvested handle.
func NewFinishedEvent(h *lifecycle.Handle) FinishedEvent {
	ev := FinishedEvent{
		Dir: h.Dir,
		TS:  time.Now().UTC(),
	}
	if h.Metadata != nil {
		ev.UUID = h.Metadata.UUID
		ev.Hostname = h.Metadata.Hostname
	}
	return ev
}

// Publisher publishes completion events to NATS.
type Publisher struct {
	nc      *nats.Conn
	subject string
	log     *zap.Logger
}

// NewPublisher connects to NATS. A nil logger is replaced with a no-op
// one.
func NewPublisher(url, subject string, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, subject: subject, log: log}, nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}

// Hook returns a lifecycle.Hook that publishes a FinishedEvent.
func (p *Publisher) Hook() lifecycle.Hook {
	return func(h *lifecycle.Handle) error {
		b, err := json.Marshal(NewFinishedEvent(h))
		if err != nil {
			return err
		}
		if err := p.nc.Publish(p.subject, b); err != nil {
			return err
		}
		p.log.Info("published completion event",
			zap.String("subject", p.subject),
			zap.String("dir", h.Dir))
		return nil
	}
}
