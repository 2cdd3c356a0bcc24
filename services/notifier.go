package services

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"netdash/models"
)

const maxNotifications = 50

// Forwarder receives every notification after it is recorded
type Forwarder interface {
	Forward(n models.Notification) error
}

// Notifier keeps a bounded feed of transient notifications
type Notifier struct {
	mutex     sync.RWMutex
	items     []models.Notification
	ttl       time.Duration
	seq       atomic.Uint64
	forwarder Forwarder
	now       func() time.Time
}

func NewNotifier(ttl time.Duration, forwarder Forwarder) *Notifier {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return &Notifier{
		items:     make([]models.Notification, 0, maxNotifications),
		ttl:       ttl,
		forwarder: forwarder,
		now:       time.Now,
	}
}

func (n *Notifier) Info(msg string)    { n.Notify(models.LevelInfo, msg) }
func (n *Notifier) Success(msg string) { n.Notify(models.LevelSuccess, msg) }
func (n *Notifier) Warning(msg string) { n.Notify(models.LevelWarning, msg) }
func (n *Notifier) Error(msg string)   { n.Notify(models.LevelError, msg) }

func (n *Notifier) Notify(level, msg string) models.Notification {
	now := n.now()
	item := models.Notification{
		ID:        fmt.Sprintf("n-%d", n.seq.Add(1)),
		Level:     level,
		Message:   msg,
		CreatedAt: now,
		ExpiresAt: now.Add(n.ttl),
	}

	n.mutex.Lock()
	n.items = append(n.items, item)
	if len(n.items) > maxNotifications {
		n.items = append(n.items[:0:0], n.items[len(n.items)-maxNotifications:]...)
	}
	n.mutex.Unlock()

	if n.forwarder != nil {
		go func() {
			if err := n.forwarder.Forward(item); err != nil {
				log.Printf("⚠️  Failed to forward notification %s: %v", item.ID, err)
			}
		}()
	}
	return item
}

// Active returns notifications still inside their display window, oldest first
func (n *Notifier) Active() []models.Notification {
	now := n.now()

	n.mutex.RLock()
	defer n.mutex.RUnlock()

	out := make([]models.Notification, 0)
	for _, item := range n.items {
		if now.Before(item.ExpiresAt) {
			out = append(out, item)
		}
	}
	return out
}

// Recent returns the whole bounded feed, oldest first
func (n *Notifier) Recent() []models.Notification {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	out := make([]models.Notification, len(n.items))
	copy(out, n.items)
	return out
}

func (n *Notifier) TTL() time.Duration {
	return n.ttl
}
