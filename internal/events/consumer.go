package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer subscribes to the domain-event exchange with a server-named
// exclusive queue. Each consumer instance sees every event.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	binding  string
	log      *zap.Logger
}

func NewConsumer(amqpURL, exchange, binding string, log *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		binding:  binding,
		log:      log,
	}, nil
}

// Run consumes events until the context is cancelled, invoking handle for
// each decoded envelope. Undecodable messages are logged and dropped.
func (c *Consumer) Run(ctx context.Context, handle func(Event)) error {
	q, err := c.channel.QueueDeclare(
		"",    // name (server generated)
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := c.channel.QueueBind(q.Name, c.binding, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	messages, err := c.channel.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.log.Info("event consumer started", zap.String("binding", c.binding))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			var evt Event
			if err := json.Unmarshal(msg.Body, &evt); err != nil {
				c.log.Error("undecodable event", zap.Error(err))
				continue
			}
			handle(evt)
		}
	}
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
