package authz

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/casbin/casbin/v2/persist"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 5 * time.Second

var _ persist.Watcher = (*RedisWatcher)(nil)

// RedisWatcher fans policy changes out to every instance subscribed to the
// same channel. The payload is the publishing instance's id, so an instance
// never reloads on its own notification.
type RedisWatcher struct {
	client     *redis.Client
	channel    string
	instanceID string
	pubsub     *redis.PubSub

	mu       sync.RWMutex
	callback func(string)

	closeOnce sync.Once
	done      chan struct{}
}

// NewRedisWatcher subscribes to channel and waits for the subscription to be
// confirmed before returning.
func NewRedisWatcher(ctx context.Context, client *redis.Client, channel string) (*RedisWatcher, error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf(errFailedSubscribeFmt, channel, err)
	}

	w := &RedisWatcher{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		pubsub:     pubsub,
		done:       make(chan struct{}),
	}
	go w.listen()

	return w, nil
}

func (w *RedisWatcher) InstanceID() string {
	return w.instanceID
}

func (w *RedisWatcher) SetUpdateCallback(callback func(string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.callback = callback
	return nil
}

func (w *RedisWatcher) Update() error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := w.client.Publish(ctx, w.channel, w.instanceID).Err(); err != nil {
		return errFailedPublish(err)
	}
	return nil
}

func (w *RedisWatcher) Close() {
	w.closeOnce.Do(func() {
		if err := w.pubsub.Close(); err != nil {
			log.Printf("authz: closing watcher subscription: %v", err)
		}
		<-w.done
	})
}

func (w *RedisWatcher) listen() {
	defer close(w.done)

	for msg := range w.pubsub.Channel() {
		if msg.Payload == w.instanceID {
			continue
		}

		w.mu.RLock()
		callback := w.callback
		w.mu.RUnlock()

		if callback != nil {
			callback(msg.Payload)
		}
	}
}
