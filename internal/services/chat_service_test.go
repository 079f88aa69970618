package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyasprabhudev/Tranquil/internal/providers/llm"
	"github.com/shreyasprabhudev/Tranquil/internal/utils"
)

func TestSendFirstMessage(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	reply, err := f.svc.Send(ctx, "u1", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "I hear you.", reply)

	// A conversation was created lazily with an auto-numbered title.
	conv, err := f.convos.FindActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Conversation 1", conv.Title)
	assert.False(t, conv.IsArchived)

	// Both turns are durable, in order.
	msgs, err := f.messages.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello", msgs[0].Content)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "I hear you.", msgs[1].Content)

	// In-memory history holds system + user + assistant.
	h := f.svc.History("u1")
	require.Len(t, h, 3)
	assert.Equal(t, llm.RoleSystem, h[0].Role)
	assert.Equal(t, llm.RoleUser, h[1].Role)
	assert.Equal(t, llm.RoleAssistant, h[2].Role)
}

func TestSendReusesActiveConversation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "u1", "first")
	require.NoError(t, err)
	conv, err := f.convos.FindActive(ctx, "u1")
	require.NoError(t, err)
	before := conv.UpdatedAt

	time.Sleep(10 * time.Millisecond)
	_, err = f.svc.Send(ctx, "u1", "second")
	require.NoError(t, err)

	after, err := f.convos.FindActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, after.ID, "active conversation is reused")
	assert.True(t, after.UpdatedAt.After(before), "updated_at advances on every message")

	msgs, err := f.messages.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
}

func TestSendInferenceFailureKeepsUserTurn(t *testing.T) {
	f := newChatFixture(t)
	f.provider.err = llm.ErrUnavailable
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "u1", "Hello")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))

	// The caller only ever sees the generic text.
	var ae *utils.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Failed to process your message. Please try again.", ae.Message)

	// User turn stays persisted, no assistant turn exists.
	conv, err := f.convos.FindActive(ctx, "u1")
	require.NoError(t, err)
	msgs, err := f.messages.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
}

func TestSendTimeoutMapsToTimeoutCode(t *testing.T) {
	f := newChatFixture(t)
	f.provider.err = llm.ErrTimeout

	_, err := f.svc.Send(context.Background(), "u1", "Hello")
	assert.True(t, utils.IsCode(err, utils.CodeTimeout))
}

func TestSendInjectsJournalContext(t *testing.T) {
	f := newChatFixture(t)
	now := time.Now().UTC()

	// Five entries inside the 3-day window plus one outside it.
	f.seedEntry(t, "u1", "day minus four", now.Add(-4*24*time.Hour))
	f.seedEntry(t, "u1", "oldest in window", now.Add(-60*time.Hour))
	f.seedEntry(t, "u1", "third", now.Add(-30*time.Hour))
	f.seedEntry(t, "u1", "second", now.Add(-2*time.Hour))
	f.seedEntry(t, "u1", "newest", now.Add(-time.Hour))

	_, err := f.svc.Send(context.Background(), "u1", "how am I doing?")
	require.NoError(t, err)

	require.Len(t, f.provider.prompts, 1)
	prompt := f.provider.prompts[0]
	require.Len(t, prompt, 3, "system, injected context, user")

	assert.Equal(t, llm.RoleSystem, prompt[0].Role)
	assert.Equal(t, llm.RoleSystem, prompt[1].Role)
	assert.Equal(t, "Context from user's journal: newest\nsecond\nthird", prompt[1].Content,
		"three most recent entries, newest first")
	assert.Equal(t, llm.RoleUser, prompt[2].Role)

	// The injected context never enters the stored history.
	h := f.svc.History("u1")
	require.Len(t, h, 3)
	assert.NotContains(t, h[1].Content, "newest")
}

func TestSendWithoutContextStillInfers(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.Send(context.Background(), "u1", "hi")
	require.NoError(t, err)

	require.Len(t, f.provider.prompts, 1)
	prompt := f.provider.prompts[0]
	require.Len(t, prompt, 2, "no second system turn without qualifying entries")
	assert.Equal(t, llm.RoleSystem, prompt[0].Role)
	assert.Equal(t, llm.RoleUser, prompt[1].Role)
}

func TestSendValidation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "u1", "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = f.svc.Send(ctx, "u1", strings.Repeat("x", 2001))
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	// Rejected before any backend or persistence work.
	assert.Zero(t, f.provider.calls)
	_, err = f.convos.FindActive(ctx, "u1")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestClearHistoryLeavesMessagesDurable(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "u1", "Hello")
	require.NoError(t, err)

	f.svc.ClearHistory("u1")

	h := f.svc.History("u1")
	require.Len(t, h, 1)
	assert.Equal(t, llm.RoleSystem, h[0].Role)

	conv, err := f.convos.FindActive(ctx, "u1")
	require.NoError(t, err)
	msgs, err := f.messages.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2, "clearing in-memory history must not delete persisted messages")
}

func TestArchiveExcludesConversationFromResolution(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "u1", "first")
	require.NoError(t, err)
	first, err := f.convos.FindActive(ctx, "u1")
	require.NoError(t, err)

	conv, err := f.svc.ToggleArchive(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.True(t, conv.IsArchived)

	_, err = f.svc.Send(ctx, "u1", "second")
	require.NoError(t, err)

	second, err := f.convos.FindActive(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "Conversation 2", second.Title)
}

func TestToggleArchiveHidesForeignConversations(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "owner", "mine")
	require.NoError(t, err)
	conv, err := f.convos.FindActive(ctx, "owner")
	require.NoError(t, err)

	_, err = f.svc.ToggleArchive(ctx, "intruder", conv.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestGetConversationChecksOwnership(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "owner", "mine")
	require.NoError(t, err)
	active, err := f.convos.FindActive(ctx, "owner")
	require.NoError(t, err)

	conv, err := f.svc.GetConversation(ctx, "owner", active.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, conv.ID)
	assert.Equal(t, "Conversation 1", conv.Title)

	_, err = f.svc.GetConversation(ctx, "intruder", active.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestListMessagesChecksOwnership(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "owner", "mine")
	require.NoError(t, err)
	conv, err := f.convos.FindActive(ctx, "owner")
	require.NoError(t, err)

	msgs, err := f.svc.ListMessages(ctx, "owner", conv.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	_, err = f.svc.ListMessages(ctx, "intruder", conv.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
