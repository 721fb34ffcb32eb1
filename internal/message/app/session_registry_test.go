package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionRegistry_Register(t *testing.T) {
	r := NewSessionRegistry()

	first := NewClient("user-1", nil)
	assert.Nil(t, r.Register(first))
	assert.True(t, r.IsOnline("user-1"))

	// a second connection replaces the first and hands it back
	second := NewClient("user-1", nil)
	old := r.Register(second)
	assert.Same(t, first, old)

	got, ok := r.Client("user-1")
	assert.True(t, ok)
	assert.Same(t, second, got)
}

func TestSessionRegistry_UnregisterStale(t *testing.T) {
	r := NewSessionRegistry()

	first := NewClient("user-1", nil)
	r.Register(first)
	second := NewClient("user-1", nil)
	r.Register(second)

	// the replaced connection's deferred cleanup must not kick out the new one
	r.Unregister(first)
	assert.True(t, r.IsOnline("user-1"))

	r.Unregister(second)
	assert.False(t, r.IsOnline("user-1"))
}

func TestSessionRegistry_Rooms(t *testing.T) {
	r := NewSessionRegistry()
	r.Register(NewClient("user-1", nil))
	r.Register(NewClient("user-2", nil))

	r.JoinRoom("conv-1", "user-1")
	r.JoinRoom("conv-1", "user-2")
	r.JoinRoom("conv-2", "user-1")

	// joining without a connection is a no-op
	r.JoinRoom("conv-1", "ghost")

	assert.Len(t, r.RoomClients("conv-1"), 2)
	assert.ElementsMatch(t, []string{"conv-1", "conv-2"}, r.Rooms("user-1"))

	r.LeaveRoom("conv-1", "user-1")
	assert.Len(t, r.RoomClients("conv-1"), 1)
	assert.ElementsMatch(t, []string{"conv-2"}, r.Rooms("user-1"))
}

func TestSessionRegistry_UnregisterClearsRooms(t *testing.T) {
	r := NewSessionRegistry()
	c := NewClient("user-1", nil)
	r.Register(c)
	r.JoinRoom("conv-1", "user-1")
	r.JoinRoom("conv-2", "user-1")

	r.Unregister(c)

	assert.Empty(t, r.RoomClients("conv-1"))
	assert.Empty(t, r.Rooms("user-1"))
}

func TestSessionRegistry_Concurrent(t *testing.T) {
	r := NewSessionRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := NewClient("user-1", nil)
			r.Register(c)
			r.JoinRoom("conv-1", "user-1")
			r.RoomClients("conv-1")
			r.IsOnline("user-1")
			r.Unregister(c)
		}()
	}
	wg.Wait()
}
