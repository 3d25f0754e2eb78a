package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floatchat-be/pkg/store"
)

func TestGetCreatesEmptySession(t *testing.T) {
	r := NewSessionRepository()
	assert.Empty(t, r.Get("fresh"))
}

func TestAppendPreservesOrder(t *testing.T) {
	r := NewSessionRepository()
	r.Append("s", store.ConversationTurn{UserMessage: "one", BotResponse: "a"})
	r.Append("s", store.ConversationTurn{UserMessage: "two", BotResponse: "b"})

	transcript := r.Get("s")
	require.Len(t, transcript, 2)
	assert.Equal(t, "one", transcript[0].UserMessage)
	assert.Equal(t, "two", transcript[1].UserMessage)
}

func TestSessionsAreIsolated(t *testing.T) {
	r := NewSessionRepository()
	r.Append("a", store.ConversationTurn{UserMessage: "for a", BotResponse: "x"})
	r.Append("b", store.ConversationTurn{UserMessage: "for b", BotResponse: "y"})

	require.Len(t, r.Get("a"), 1)
	require.Len(t, r.Get("b"), 1)
	assert.Equal(t, "for a", r.Get("a")[0].UserMessage)

	assert.True(t, r.Clear("a"))
	assert.Empty(t, r.Get("a"))
	require.Len(t, r.Get("b"), 1, "clearing a must not affect b")
}

func TestConcurrentAppendAndGet(t *testing.T) {
	r := NewSessionRepository()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			r.Append("shared", store.ConversationTurn{
				UserMessage: fmt.Sprintf("msg %d", i),
				BotResponse: "ok",
			})
			r.Get("shared")
		}(i)
	}
	wg.Wait()

	require.Len(t, r.Get("shared"), workers)
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewSessionRepository()
	r.Append("s", store.ConversationTurn{UserMessage: "original", BotResponse: "a"})

	transcript := r.Get("s")
	transcript[0].UserMessage = "mutated"

	assert.Equal(t, "original", r.Get("s")[0].UserMessage)
}

func TestClearReportsExistence(t *testing.T) {
	r := NewSessionRepository()
	assert.False(t, r.Clear("never-seen"))

	r.Append("s", store.ConversationTurn{UserMessage: "hi", BotResponse: "hello"})
	assert.True(t, r.Clear("s"))
	assert.False(t, r.Clear("s"))
}
