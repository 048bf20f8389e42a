package redis

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

// ChangeFeed adapts a redis pub/sub subscription into the signal channel the
// sync engine consumes. Delivery is at-least-once; consumers reconcile
// idempotently so duplicates cost one extra fetch at worst.
type ChangeFeed struct {
	cartKey string
	sub     *redis.PubSub
	signals chan string

	closeOnce sync.Once
	done      chan struct{}
}

func newChangeFeed(sub *redis.PubSub, cartKey string) *ChangeFeed {
	feed := &ChangeFeed{
		cartKey: cartKey,
		sub:     sub,
		signals: make(chan string, 16),
		done:    make(chan struct{}),
	}
	go feed.pump()
	return feed
}

func (f *ChangeFeed) pump() {
	defer close(f.signals)
	ch := f.sub.Channel()
	for {
		select {
		case <-f.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			select {
			case f.signals <- msg.Payload:
			case <-f.done:
				return
			default:
				// a full buffer means a reconcile is already pending; the
				// next pass fetches full truth anyway
			}
		}
	}
}

// Signals returns the stream of cart keys that changed. The channel closes
// when the feed is closed or the connection drops.
func (f *ChangeFeed) Signals() <-chan string {
	return f.signals
}

// CartKey returns the key this feed is scoped to.
func (f *ChangeFeed) CartKey() string {
	return f.cartKey
}

// Close releases the subscription. Safe to call more than once.
func (f *ChangeFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.sub.Close()
	})
	return err
}
