package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_FansOut(t *testing.T) {
	b := NewBroadcaster()
	a, unsubA := b.Subscribe()
	defer unsubA()
	c, unsubC := b.Subscribe()
	defer unsubC()

	b.Emit(EventRuleSaved, map[string]any{"id": 3})

	for _, ch := range []<-chan Event{a, c} {
		ev := <-ch
		assert.Equal(t, EventRuleSaved, ev.Type)
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, map[string]any{"id": 3}, ev.Data)
	}
}

func TestPublish_DropsForSlowClient(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < 100; i++ {
		b.Emit(EventTransactionUpdated, i)
	}
	assert.Len(t, ch, 64)
}

func TestUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	var counts []int
	b.OnClientsChanged(func(n int) { counts = append(counts, n) })

	ch, unsub := b.Subscribe()
	assert.Equal(t, 1, b.ClientCount())

	unsub()
	unsub()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, b.ClientCount())
	assert.Equal(t, []int{1, 0}, counts)

	assert.NotPanics(t, func() { b.Emit(EventRuleDeleted, nil) })
}

func TestClose(t *testing.T) {
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	b.Close()

	_, ok := <-ch
	require.False(t, ok)
	assert.NotPanics(t, unsub)
	assert.Equal(t, 0, b.ClientCount())
}
