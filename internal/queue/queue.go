package queue

import (
	"fmt"
	"time"

	"github.com/amber-ici/amber/backend/internal/util"
	"github.com/amber-ici/amber/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// IngestQueue carries batch document ingestion jobs.
const IngestQueue = "ingest_queue"

const retryTTLMs = 10000

// Broker startup often races ours; give it a few dial attempts before
// giving up.
const dialAttempts = 5

func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := util.Retry(dialAttempts, func() (*amqp091.Connection, error) {
		c, err := amqp091.Dial(connURL)
		if err != nil {
			logger.Warn("RabbitMQ not reachable, retrying", "err", err)
			time.Sleep(2 * time.Second)
		}
		return c, err
	})
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares each work queue together with its dead-letter and
// retry companions. Retry queues hold messages for a TTL and then route
// them back to the work queue.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("declaring queue %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("declaring queue %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(retryTTLMs),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("declaring queue %s: %w", retryName, err)
		}
	}

	return nil
}

func PublishFIFO(ch *amqp091.Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing,
	)
}

// HandleProcessingError requeues a failed message through the retry queue,
// moving it to the dead-letter queue after maxRetries attempts.
func HandleProcessingError(ch *amqp091.Channel, msg amqp091.Delivery, queueName string, maxRetries int) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	if retries >= maxRetries {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp091.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp091.Table{}
	}
	headers["x-retries"] = int32(retries + 1)

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
