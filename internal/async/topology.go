package async

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeProcessing = "extrato.processamento"

	QueueProcessing = "extrato.processamento.fila"
	QueueStatus     = "extrato.status.fila"
	QueueDead       = "extrato.processamento.dlq"

	RoutingKeyProcess = "processar"
	RoutingKeyStatus  = "status"
	RoutingKeyDead    = "dlq"
)

// DeclareTopology declares the exchange, queues and bindings on the given
// channel. Declarations are idempotent, so every process declares on
// startup. Messages that expire or are rejected on the processing queue
// dead-letter into QueueDead.
func DeclareTopology(ch *amqp.Channel, messageTTL time.Duration) error {
	if err := ch.ExchangeDeclare(ExchangeProcessing, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueProcessing, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    ExchangeProcessing,
		"x-dead-letter-routing-key": RoutingKeyDead,
		"x-message-ttl":             messageTTL.Milliseconds(),
	}); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueProcessing, err)
	}

	if _, err := ch.QueueDeclare(QueueStatus, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueStatus, err)
	}

	if _, err := ch.QueueDeclare(QueueDead, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", QueueDead, err)
	}

	bindings := []struct {
		queue      string
		routingKey string
	}{
		{QueueProcessing, RoutingKeyProcess},
		{QueueStatus, RoutingKeyStatus},
		{QueueDead, RoutingKeyDead},
	}

	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.routingKey, ExchangeProcessing, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
		}
	}

	return nil
}
