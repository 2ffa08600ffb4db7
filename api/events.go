package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	subjectProjectCreated = "project.created"
	subjectProjectDeleted = "project.deleted"
	subjectMemberAdded    = "project.member.added"
	subjectTaskCreated    = "task.created"
	subjectTaskUpdated    = "task.updated"
	subjectTaskDeleted    = "task.deleted"
)

type event struct {
	Subject    string    `json:"subject"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type publisher interface {
	publish(ctx context.Context, e event) error
	close()
}

type noopPublisher struct{}

func (noopPublisher) publish(context.Context, event) error { return nil }
func (noopPublisher) close() {}

type natsPublisher struct {
	conn *nats.Conn
}

func newNatsPublisher(url string) (*natsPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("taskboard"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	return &natsPublisher{conn: conn}, nil
}

func (p *natsPublisher) publish(_ context.Context, e event) error {
	if !p.conn.IsConnected() {
		return nats.ErrConnectionClosed
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.conn.Publish(e.Subject, data)
}

func (p *natsPublisher) close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// publishEvent publishes without failing the request; errors are logged.
func (app *application) publishEvent(ctx context.Context, subject string, actor *user, data any) {
	e := event{
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	if actor != nil {
		e.ActorID = actor.ID
	}
	if err := app.events.publish(ctx, e); err != nil {
		app.logger.Warn("publish event failed", "subject", subject, "error", err)
	}
}
