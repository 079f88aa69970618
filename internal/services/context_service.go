package services

import (
	"context"
	"strings"
	"time"

	pgrepo "github.com/shreyasprabhudev/Tranquil/internal/repositories/postgres"
	"github.com/shreyasprabhudev/Tranquil/internal/utils"
)

const (
	// contextWindow is how far back journal entries qualify as grounding
	// context for a chat turn.
	contextWindow = 72 * time.Hour
	// contextMaxEntries caps how many entries are concatenated.
	contextMaxEntries = 3
)

// ContextBuilder assembles the journal snippet injected into a prompt.
type ContextBuilder interface {
	// BuildContext returns the newest-first concatenation of the user's
	// recent entry contents, or "" when nothing qualifies. Absence of
	// context is not an error.
	BuildContext(ctx context.Context, userID string, ref time.Time) (string, error)
}

type contextBuilder struct {
	entries pgrepo.EntryRepo
}

func NewContextBuilder(entries pgrepo.EntryRepo) ContextBuilder {
	return &contextBuilder{entries: entries}
}

func (b *contextBuilder) BuildContext(ctx context.Context, userID string, ref time.Time) (string, error) {
	const op = "ContextBuilder.BuildContext"

	rows, err := b.entries.RecentSince(ctx, userID, ref.Add(-contextWindow), contextMaxEntries)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to load recent entries", err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(rows))
	for _, e := range rows {
		parts = append(parts, e.Content)
	}
	return strings.Join(parts, "\n"), nil
}
