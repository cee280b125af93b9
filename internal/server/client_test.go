package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEnqueueOverflowDropsClientSafely(t *testing.T) {
	c := &Client{
		server: &Server{logger: zap.NewNop()},
		send:   make(chan []byte, 1),
		userID: "u1",
	}

	c.enqueue([]byte("a")) // fills the buffer
	c.enqueue([]byte("b")) // overflow drops the client

	// Broadcasts arriving after the drop are discarded, never a send on a
	// closed channel.
	assert.NotPanics(t, func() { c.enqueue([]byte("c")) })
	assert.NotPanics(t, func() { c.close() })

	got, ok := <-c.send
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), got)
	_, ok = <-c.send
	assert.False(t, ok, "send channel closed once drained")
}

func TestClientCloseIdempotent(t *testing.T) {
	c := &Client{server: &Server{logger: zap.NewNop()}, send: make(chan []byte, 1)}

	c.close()
	assert.NotPanics(t, func() { c.close() })
	assert.NotPanics(t, func() { c.enqueue([]byte("x")) })
}
