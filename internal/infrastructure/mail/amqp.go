package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/quillpost/blog-api/internal/core/ports"
)

// AMQPPublisher hands rendered mail to a durable queue for an external
// mailer to send.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	renderer *Renderer
}

type envelope struct {
	ID       string            `json:"id"`
	Template string            `json:"template"`
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	HTML     string            `json:"html"`
	Vars     map[string]string `json:"vars,omitempty"`
}

// DialAMQP connects to the broker and declares queue as durable.
func DialAMQP(url, queue string, renderer *Renderer) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, queue: queue, renderer: renderer}, nil
}

func (p *AMQPPublisher) Deliver(ctx context.Context, msg ports.OutboundMail) error {
	body, err := p.encode(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) encode(msg ports.OutboundMail) ([]byte, error) {
	subject, html, err := p.renderer.Render(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{
		ID:       msg.ID,
		Template: msg.Template,
		To:       msg.Recipient,
		Subject:  subject,
		HTML:     html,
		Vars:     msg.Vars,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ch.Close()
	return p.conn.Close()
}
