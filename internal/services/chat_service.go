package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shreyasprabhudev/Tranquil/internal/models"
	"github.com/shreyasprabhudev/Tranquil/internal/providers/llm"
	pgrepo "github.com/shreyasprabhudev/Tranquil/internal/repositories/postgres"
	"github.com/shreyasprabhudev/Tranquil/internal/state"
	"github.com/shreyasprabhudev/Tranquil/internal/utils"
)

const (
	maxMessageChars = 2000

	// genericChatFailure is the only text a caller ever sees for backend
	// failures; the real cause goes to the log.
	genericChatFailure = "Failed to process your message. Please try again."

	contextPrefix = "Context from user's journal: "
)

type ChatService interface {
	// Send runs one full chat turn: resolve conversation, persist the user
	// message, assemble context, infer, persist the reply. The persisted
	// user message is never rolled back when inference fails.
	Send(ctx context.Context, userID, message string) (string, error)

	// History reads the in-memory turn history, not persisted Messages.
	History(userID string) []llm.Turn
	// ClearHistory resets the in-memory history to its system prompt.
	// Persisted Messages are untouched.
	ClearHistory(userID string)

	ListConversations(ctx context.Context, userID string, archived *bool) ([]models.Conversation, error)
	GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error)
	ListMessages(ctx context.Context, userID, conversationID string) ([]models.Message, error)
	ToggleArchive(ctx context.Context, userID, conversationID string) (*models.Conversation, error)
}

type chatService struct {
	convos   pgrepo.ConversationRepo
	messages pgrepo.MessageRepo
	builder  ContextBuilder
	store    *state.Store
	provider llm.Provider
	locks    state.KeyedMutex
	log      *logrus.Logger
}

func NewChatService(
	convos pgrepo.ConversationRepo,
	messages pgrepo.MessageRepo,
	builder ContextBuilder,
	store *state.Store,
	provider llm.Provider,
	log *logrus.Logger,
) ChatService {
	if log == nil {
		log = logrus.New()
	}
	return &chatService{
		convos:   convos,
		messages: messages,
		builder:  builder,
		store:    store,
		provider: provider,
		log:      log,
	}
}

func (s *chatService) Send(ctx context.Context, userID, message string) (string, error) {
	const op = "ChatService.Send"

	if userID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if n := utf8.RuneCountInString(message); n == 0 || n > maxMessageChars {
		return "", utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("message must be between 1 and %d characters", maxMessageChars), nil)
	}

	// One chat turn per user at a time; overlapping requests apply in
	// arrival order.
	unlock := s.locks.Lock(userID)
	defer unlock()

	conv, err := s.resolveConversation(ctx, userID)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, genericChatFailure, err)
	}

	now := time.Now().UTC()
	userMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           llm.RoleUser,
		Content:        message,
		CreatedAt:      now,
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return "", utils.E(utils.CodeInternal, op, genericChatFailure, err)
	}

	snippet, err := s.builder.BuildContext(ctx, userID, now)
	if err != nil {
		s.logFailure(userID, conv.ID, "context assembly failed", err)
		return "", utils.E(utils.CodeInternal, op, genericChatFailure, err)
	}

	s.store.Ensure(userID)
	s.store.Append(userID, llm.RoleUser, message)

	reply, err := s.provider.Chat(ctx, s.prompt(userID, snippet))
	if err != nil {
		s.logFailure(userID, conv.ID, "inference failed", err)
		return "", s.chatError(op, err)
	}

	asstMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           llm.RoleAssistant,
		Content:        reply,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, asstMsg); err != nil {
		s.logFailure(userID, conv.ID, "persisting reply failed", err)
		return "", utils.E(utils.CodeInternal, op, genericChatFailure, err)
	}

	s.store.Append(userID, llm.RoleAssistant, reply)

	if err := s.convos.Touch(ctx, conv.ID, time.Now().UTC()); err != nil {
		// Reply is already durable; a stale updated_at is not worth failing for.
		s.logFailure(userID, conv.ID, "touch conversation failed", err)
	}

	return reply, nil
}

// resolveConversation finds the latest non-archived conversation, creating
// an auto-numbered one when the user has no active conversation.
func (s *chatService) resolveConversation(ctx context.Context, userID string) (*models.Conversation, error) {
	conv, err := s.convos.FindActive(ctx, userID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return nil, err
	}

	count, err := s.convos.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conv = &models.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     fmt.Sprintf("Conversation %d", count+1),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.convos.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// prompt snapshots the in-memory history and, when a journal snippet is
// present, inserts it as a second system turn right after the original
// system prompt rather than merging the two.
func (s *chatService) prompt(userID, snippet string) []llm.Turn {
	history := s.store.History(userID)
	if snippet == "" || len(history) == 0 {
		return history
	}

	out := make([]llm.Turn, 0, len(history)+1)
	out = append(out, history[0])
	out = append(out, llm.Turn{Role: llm.RoleSystem, Content: contextPrefix + snippet})
	out = append(out, history[1:]...)
	return out
}

func (s *chatService) chatError(op string, err error) error {
	code := utils.CodeInternal
	switch {
	case errors.Is(err, llm.ErrTimeout):
		code = utils.CodeTimeout
	case errors.Is(err, llm.ErrUnavailable):
		code = utils.CodeUnavailable
	}
	return utils.E(code, op, genericChatFailure, err)
}

func (s *chatService) logFailure(userID, conversationID, msg string, err error) {
	s.log.WithFields(logrus.Fields{
		"user_id":         userID,
		"conversation_id": conversationID,
	}).WithError(err).Error(msg)
}

func (s *chatService) History(userID string) []llm.Turn {
	return s.store.History(userID)
}

func (s *chatService) ClearHistory(userID string) {
	s.store.Clear(userID)
}

func (s *chatService) ListConversations(ctx context.Context, userID string, archived *bool) ([]models.Conversation, error) {
	const op = "ChatService.ListConversations"

	rows, err := s.convos.ListByUser(ctx, userID, archived)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list conversations", err)
	}
	return rows, nil
}

func (s *chatService) GetConversation(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	const op = "ChatService.GetConversation"
	return s.ownedConversation(ctx, op, userID, conversationID)
}

func (s *chatService) ListMessages(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	const op = "ChatService.ListMessages"

	if _, err := s.ownedConversation(ctx, op, userID, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list messages", err)
	}
	return rows, nil
}

func (s *chatService) ToggleArchive(ctx context.Context, userID, conversationID string) (*models.Conversation, error) {
	const op = "ChatService.ToggleArchive"

	conv, err := s.ownedConversation(ctx, op, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if err := s.convos.SetArchived(ctx, conversationID, !conv.IsArchived); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update conversation", err)
	}
	conv.IsArchived = !conv.IsArchived
	return conv, nil
}

// ownedConversation hides other users' conversations behind not-found.
func (s *chatService) ownedConversation(ctx context.Context, op, userID, conversationID string) (*models.Conversation, error) {
	if conversationID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "conversation id is required", nil)
	}

	conv, err := s.convos.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "conversation not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get conversation", err)
	}
	if conv.UserID != userID {
		return nil, utils.E(utils.CodeNotFound, op, "conversation not found", nil)
	}
	return conv, nil
}
