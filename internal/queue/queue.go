package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/unclebandit/leadgen-backend/internal/model"
)

// TopicCampaignEvents carries model.Envelope payloads.
const TopicCampaignEvents = "campaign_events"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers every published payload to each subscriber of the topic.
// Each subscriber drains its own buffer on one goroutine, so it sees payloads in
// publish order. A failing handler is retried with linear backoff.
type InMemoryQueue struct {
	mu          sync.Mutex
	subscribers map[string][]*subscriber
	closed      bool
	wg          sync.WaitGroup

	MaxRetries   int
	RetryBackoff time.Duration
	BufferSize   int
}

type subscriber struct {
	topic   string
	handler func(payload any) error
	jobs    chan JobPayload
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		subscribers:  make(map[string][]*subscriber),
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
		BufferSize:   256,
	}
}

// Publish hands payload to all subscribers of topic. A subscriber whose buffer is
// full misses the payload.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue closed")
	}
	subs := q.subscribers[topic]
	if len(subs) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	job := JobPayload{Payload: payload, MaxRetries: q.MaxRetries}
	for _, s := range subs {
		select {
		case s.jobs <- job:
		default:
			slog.Warn("subscriber buffer full, dropping payload", "module", "queue", "topic", topic)
		}
	}
	return nil
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue closed")
	}
	s := &subscriber{topic: topic, handler: handler, jobs: make(chan JobPayload, q.BufferSize)}
	q.subscribers[topic] = append(q.subscribers[topic], s)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for job := range s.jobs {
			q.processJob(s, job)
		}
	}()
	return nil
}

// Close stops accepting payloads and waits for subscribers to drain their buffers.
func (q *InMemoryQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, subs := range q.subscribers {
		for _, s := range subs {
			close(s.jobs)
		}
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(s *subscriber, job JobPayload) {
	for {
		err := s.handler(job.Payload)
		if err == nil {
			return
		}

		job.RetryCount++
		if job.RetryCount > job.MaxRetries {
			slog.Error("job permanently failed", "module", "queue", "topic", s.topic, "attempts", job.RetryCount, "error", err)
			return
		}
		slog.Warn("job failed, retrying", "module", "queue", "topic", s.topic, "attempt", job.RetryCount, "max_retries", job.MaxRetries, "error", err)
		time.Sleep(time.Duration(job.RetryCount) * q.RetryBackoff)
	}
}

// Broadcaster pushes a serialized message to every connection of a user.
type Broadcaster interface {
	Broadcast(userID string, msg []byte) int
}

// StartBroadcastSubscriber fans campaign events out to the realtime connections.
func StartBroadcastSubscriber(q Queue, b Broadcaster) error {
	return q.Subscribe(TopicCampaignEvents, func(payload any) error {
		env, ok := payload.(model.Envelope)
		if !ok {
			slog.Warn("invalid payload type, expected model.Envelope", "module", "queue", "topic", TopicCampaignEvents)
			return nil
		}
		b.Broadcast(env.UserID, env.Message)
		return nil
	})
}

// Publisher ships a serialized envelope to an external broker.
type Publisher interface {
	Publish(body []byte) error
}

// StartRelaySubscriber mirrors campaign events to an external broker.
// Broker errors trigger the queue's retry.
func StartRelaySubscriber(q Queue, p Publisher) error {
	return q.Subscribe(TopicCampaignEvents, func(payload any) error {
		env, ok := payload.(model.Envelope)
		if !ok {
			return nil
		}
		body, err := json.Marshal(env)
		if err != nil {
			return nil
		}
		return p.Publish(body)
	})
}
