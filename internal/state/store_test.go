package state_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyasprabhudev/Tranquil/internal/providers/llm"
	"github.com/shreyasprabhudev/Tranquil/internal/state"
)

func TestHistoryNeverStarted(t *testing.T) {
	s := state.NewStore()
	assert.Empty(t, s.History("u1"))
}

func TestStartSeedsSingleSystemTurn(t *testing.T) {
	s := state.NewStore()
	s.Start("u1", "")

	h := s.History("u1")
	require.Len(t, h, 1)
	assert.Equal(t, llm.RoleSystem, h[0].Role)
	assert.Equal(t, state.DefaultSystemPrompt, h[0].Content)
}

func TestStartCustomPrompt(t *testing.T) {
	s := state.NewStore()
	s.Start("u1", "be brief")

	h := s.History("u1")
	require.Len(t, h, 1)
	assert.Equal(t, "be brief", h[0].Content)
}

func TestStartIsIdempotent(t *testing.T) {
	s := state.NewStore()
	s.Start("u1", "")
	s.Append("u1", llm.RoleUser, "hi")
	s.Start("u1", "")
	s.Start("u1", "")

	h := s.History("u1")
	require.Len(t, h, 1, "restart must never stack system prompts")
	assert.Equal(t, llm.RoleSystem, h[0].Role)
}

func TestAppendImplicitlyStartsSession(t *testing.T) {
	s := state.NewStore()
	s.Append("u1", llm.RoleUser, "hello")

	h := s.History("u1")
	require.Len(t, h, 2)
	assert.Equal(t, llm.RoleSystem, h[0].Role)
	assert.Equal(t, state.DefaultSystemPrompt, h[0].Content)
	assert.Equal(t, llm.RoleUser, h[1].Role)
	assert.Equal(t, "hello", h[1].Content)
}

func TestAppendOrdering(t *testing.T) {
	s := state.NewStore()
	s.Start("u1", "")

	const pairs = 5
	for i := 0; i < pairs; i++ {
		s.Append("u1", llm.RoleUser, fmt.Sprintf("q%d", i))
		s.Append("u1", llm.RoleAssistant, fmt.Sprintf("a%d", i))
	}

	h := s.History("u1")
	require.Len(t, h, 1+2*pairs)
	for i := 0; i < pairs; i++ {
		assert.Equal(t, fmt.Sprintf("q%d", i), h[1+2*i].Content)
		assert.Equal(t, fmt.Sprintf("a%d", i), h[2+2*i].Content)
	}
}

func TestClearKeepsSystemTurnOnly(t *testing.T) {
	s := state.NewStore()
	s.Start("u1", "stay calm")
	for i := 0; i < 4; i++ {
		s.Append("u1", llm.RoleUser, "x")
		s.Append("u1", llm.RoleAssistant, "y")
	}

	s.Clear("u1")

	h := s.History("u1")
	require.Len(t, h, 1)
	assert.Equal(t, llm.Turn{Role: llm.RoleSystem, Content: "stay calm"}, h[0])
}

func TestClearWithoutSessionIsNoop(t *testing.T) {
	s := state.NewStore()
	s.Clear("ghost")
	assert.Empty(t, s.History("ghost"), "clear must not create a session")
}

func TestEndRemovesSession(t *testing.T) {
	s := state.NewStore()
	s.Start("u1", "")
	s.End("u1")
	assert.Empty(t, s.History("u1"))
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := state.NewStore()
	s.Start("u1", "")
	h := s.History("u1")
	h[0].Content = "mutated"

	assert.Equal(t, state.DefaultSystemPrompt, s.History("u1")[0].Content)
}

func TestUsersAreIndependent(t *testing.T) {
	s := state.NewStore()
	s.Append("a", llm.RoleUser, "from a")
	s.Append("b", llm.RoleUser, "from b")
	s.Clear("a")

	assert.Len(t, s.History("a"), 1)
	assert.Len(t, s.History("b"), 2)
}

func TestConcurrentAppendsSameUser(t *testing.T) {
	s := state.NewStore()
	s.Start("u1", "")

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			s.Append("u1", llm.RoleUser, fmt.Sprintf("m%d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.History("u1"), 1+n)
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	var km state.KeyedMutex
	var counter int

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			unlock := km.Lock("u1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, n, counter)
}
