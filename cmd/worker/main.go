// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"

	"github.com/unclebandit/leadgen-backend/internal/config"
	"github.com/unclebandit/leadgen-backend/internal/db"
	"github.com/unclebandit/leadgen-backend/internal/model"
	"github.com/unclebandit/leadgen-backend/internal/queue"
	"github.com/unclebandit/leadgen-backend/internal/repository"
	"github.com/unclebandit/leadgen-backend/internal/service"
)

const (
	retryHeader = "x-retry-count"
	maxRetries  = 3
)

// processor stores one relayed event.
type processor interface {
	Process(ctx context.Context, body []byte) (*model.CampaignEvent, error)
}

// republisher puts a failed delivery back on the queue with new headers.
type republisher interface {
	Republish(body []byte, headers amqp.Table) error
}

type outcome string

const (
	outcomeStored    outcome = "stored"
	outcomeDropped   outcome = "dropped"
	outcomeRetried   outcome = "retried"
	outcomeExhausted outcome = "exhausted"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadBackground("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.AMQPURL == "" {
		return errors.New("missing AMQP_URL")
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.RunMigrations(ctx, database); err != nil {
		return err
	}
	worker := service.NewEventWorker(&repository.EventRepository{DB: database})

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := queue.DeclareQueue(ch, cfg.AMQPEventsQueue)
	if err != nil {
		return err
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	pub := &channelRepublisher{ch: ch, queue: q.Name}
	slog.Info("worker running, waiting for events", "queue", q.Name)
	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			handleDelivery(ctx, worker, pub, d)
		}
	}
}

// handleDelivery settles d exactly once. Malformed bodies are dropped, other
// failures are republished with an incremented retry header up to maxRetries.
func handleDelivery(ctx context.Context, p processor, pub republisher, d amqp.Delivery) outcome {
	e, err := p.Process(ctx, d.Body)
	if err == nil {
		slog.Debug("event stored", "module", "worker", "campaign_id", e.CampaignID, "type", e.Type)
		ack(d)
		return outcomeStored
	}
	if errors.Is(err, service.ErrMalformedEvent) {
		slog.Warn("dropping malformed event", "module", "worker", "error", err)
		ack(d)
		return outcomeDropped
	}

	retries := retryCount(d.Headers)
	if retries >= maxRetries {
		slog.Error("event dropped after retries", "module", "worker", "retries", retries, "error", err)
		ack(d)
		return outcomeExhausted
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[retryHeader] = int32(retries + 1)
	if perr := pub.Republish(d.Body, headers); perr != nil {
		slog.Error("republish failed, requeueing", "module", "worker", "error", perr)
		if nerr := d.Nack(false, true); nerr != nil {
			slog.Error("nack failed", "module", "worker", "error", nerr)
		}
		return outcomeRetried
	}
	slog.Warn("event store failed, retrying", "module", "worker", "retry", retries+1, "error", err)
	ack(d)
	return outcomeRetried
}

func ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		slog.Error("ack failed", "module", "worker", "error", err)
	}
}

// retryCount reads the retry header. The wire decoder yields int32, but
// locally built tables may carry other integer types.
func retryCount(h amqp.Table) int {
	switch v := h[retryHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int16:
		return int(v)
	}
	return 0
}

type channelRepublisher struct {
	ch    *amqp.Channel
	queue string
}

func (p *channelRepublisher) Republish(body []byte, headers amqp.Table) error {
	return p.ch.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      headers,
		Body:         body,
	})
}
