package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netdash/models"
)

type recordingForwarder struct {
	mutex sync.Mutex
	got   []models.Notification
	done  chan struct{}
}

func (r *recordingForwarder) Forward(n models.Notification) error {
	r.mutex.Lock()
	r.got = append(r.got, n)
	r.mutex.Unlock()
	r.done <- struct{}{}
	return nil
}

func TestNotifier_ActiveRespectsTTL(t *testing.T) {
	// Setup
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	n := NewNotifier(3*time.Second, nil)
	n.now = func() time.Time { return now }

	// Execute
	n.Success("Device blocked")
	now = now.Add(2 * time.Second)
	n.Error("Failed to perform action")

	// Assert
	require.Len(t, n.Active(), 2)

	now = now.Add(2 * time.Second)
	active := n.Active()
	require.Len(t, active, 1)
	assert.Equal(t, models.LevelError, active[0].Level)
	assert.Len(t, n.Recent(), 2)
}

func TestNotifier_Bounded(t *testing.T) {
	n := NewNotifier(time.Second, nil)
	for i := 0; i < maxNotifications+10; i++ {
		n.Info("tick")
	}

	recent := n.Recent()
	require.Len(t, recent, maxNotifications)
	assert.Equal(t, "n-11", recent[0].ID)
}

func TestNotifier_Forwards(t *testing.T) {
	fwd := &recordingForwarder{done: make(chan struct{}, 1)}
	n := NewNotifier(0, fwd)
	assert.Equal(t, 3*time.Second, n.TTL())

	n.Warning("Scan interval must be at least 30 seconds")

	select {
	case <-fwd.done:
	case <-time.After(time.Second):
		t.Fatal("notification was not forwarded")
	}
	fwd.mutex.Lock()
	defer fwd.mutex.Unlock()
	require.Len(t, fwd.got, 1)
	assert.Equal(t, models.LevelWarning, fwd.got[0].Level)
}

func TestDiscordNotifier_Disabled(t *testing.T) {
	d, err := NewDiscordNotifier("", "")
	require.NoError(t, err)
	assert.False(t, d.Enabled())
	assert.NoError(t, d.Forward(models.Notification{Level: models.LevelError, Message: "x"}))
	d.Close()
}

func TestDiscordNotifier_CommandReply(t *testing.T) {
	d := &DiscordNotifier{}

	assert.Empty(t, d.commandReply("hello"))
	assert.Empty(t, d.commandReply("!netdash"))
	assert.Contains(t, d.commandReply("!netdash ping"), "Pong")
	assert.Equal(t, "No status available yet.", d.commandReply("!netdash status"))
	assert.Contains(t, d.commandReply("!netdash nope"), "Unknown command")

	d.SetStatusSource(func() string { return "Online: 3 / 5 devices" })
	assert.Equal(t, "Online: 3 / 5 devices", d.commandReply("!netdash status"))
}
