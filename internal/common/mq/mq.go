package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"laundry-system/internal/common/config"
	"laundry-system/internal/domain"
)

// ChangesExchange carries change notifications for the live displays.
// Routing key: unit.<unit_id>.<table>.
const ChangesExchange = "laundry.changes"

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(cfg config.MQ) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d%s", cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.VHost)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Client) DeclareAll() error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("nil channel")
	}
	return c.ch.ExchangeDeclare(ChangesExchange, "topic", true, false, false, false, nil)
}

// NotifyChange publishes a no-payload-semantics change notification. The body
// only scopes (unit, table, op); consumers refetch and never trust it as state.
func (c *Client) NotifyChange(ctx context.Context, n domain.ChangeNotification) error {
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("unit.%s.%s", n.UnitID, n.Table)
	return c.ch.PublishWithContext(ctx, ChangesExchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   n.OccurredAt,
		Body:        body,
	})
}

// Subscribe binds a fresh exclusive queue to all change topics of one unit and
// delivers decoded notifications until cancel is called or ctx ends. A nil
// error means the broker acknowledged the subscription (the display's
// "connected" flag).
func (c *Client) Subscribe(ctx context.Context, unitID uuid.UUID) (<-chan domain.ChangeNotification, func(), error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	if err := ch.QueueBind(q.Name, fmt.Sprintf("unit.%s.*", unitID), ChangesExchange, false, nil); err != nil {
		ch.Close()
		return nil, nil, err
	}
	tag := "display-" + uuid.NewString()
	deliveries, err := ch.Consume(q.Name, tag, true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}

	out := make(chan domain.ChangeNotification)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				var n domain.ChangeNotification
				if err := json.Unmarshal(d.Body, &n); err != nil {
					continue // malformed notification, the next poll covers it
				}
				select {
				case out <- n:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = ch.Cancel(tag, false)
			_ = ch.Close()
			close(done)
		})
	}
	return out, cancel, nil
}
