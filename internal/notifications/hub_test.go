package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	t.Parallel()
	hub := NewHub()

	a, err := hub.Register(10, nil)
	require.NoError(t, err)
	b, err := hub.Register(10, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.ConnectionCount(10))

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.Equal(t, 1, hub.ConnectionCount(10))

	hub.UnregisterClient(b)
	assert.Equal(t, 0, hub.ConnectionCount(10))
}

func TestHub_PerUserLimit(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserLimit)

	_, err = hub.Register(2, nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastTargetsOneUser(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	alice, _ := hub.Register(1, nil)
	bob, _ := hub.Register(2, nil)

	hub.Broadcast(1, []byte("hi"))

	assert.Equal(t, []byte("hi"), <-alice.Send)
	assert.Len(t, bob.Send, 0)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	c, _ := hub.Register(1, nil)
	for i := 0; i < sendBuffer; i++ {
		require.True(t, c.TrySend([]byte("x")))
	}
	assert.False(t, c.TrySend([]byte("overflow")))
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	t.Parallel()
	hub := NewHub()
	c, _ := hub.Register(5, nil)

	require.NoError(t, hub.Shutdown(context.Background()))
	_, ok := <-c.Send
	assert.False(t, ok)
	assert.False(t, c.TrySend([]byte("late")))

	_, err := hub.Register(5, nil)
	assert.ErrorIs(t, err, ErrHubShutdown)
	assert.NoError(t, hub.Shutdown(context.Background()))
}

func TestHub_StartWiringForwardsUserEvents(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	c, err := hub.Register(42, nil)
	require.NoError(t, err)

	require.NoError(t, n.PublishUser(context.Background(), 42, Event{Type: EventPostCreated, PostID: 9}))

	select {
	case msg := <-c.Send:
		assert.Contains(t, string(msg), `"type":"post_created"`)
		assert.Contains(t, string(msg), `"post_id":9`)
	case <-time.After(time.Second):
		t.Fatal("hub did not forward the event")
	}
}
