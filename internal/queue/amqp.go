package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// Job is the wire payload on the email_sends queue.
type Job struct {
	QueueItemID int `json:"queue_item_id"`
}

// AMQPPublisher publishes jobs onto a durable broker queue. The consuming
// side lives in cmd/worker, which owns ack/nack and the retry header.
type AMQPPublisher struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	queueName string
}

// NewAMQPPublisher connects and declares the durable queue.
func NewAMQPPublisher(url, queueName string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, queueName: queueName}, nil
}

// PublishJob enqueues one job.
func (p *AMQPPublisher) PublishJob(job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
