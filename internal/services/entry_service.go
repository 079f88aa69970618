package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/shreyasprabhudev/Tranquil/internal/cache"
	"github.com/shreyasprabhudev/Tranquil/internal/models"
	pgrepo "github.com/shreyasprabhudev/Tranquil/internal/repositories/postgres"
	"github.com/shreyasprabhudev/Tranquil/internal/utils"
)

const (
	recentEntryWindow = 7 * 24 * time.Hour
	statsCacheTTL     = 5 * time.Minute
)

type EntryInput struct {
	Title          string
	Content        string
	Mood           string
	EntryType      string
	Tags           []string
	IsPrivate      *bool
	SentimentScore *float64
}

// EntryUpdate carries partial updates; nil fields are left untouched.
type EntryUpdate struct {
	Title          *string
	Content        *string
	Mood           *string
	EntryType      *string
	Tags           *[]string
	IsPrivate      *bool
	SentimentScore *float64
}

type EntryService interface {
	Create(ctx context.Context, userID string, in EntryInput) (*models.JournalEntry, error)
	Get(ctx context.Context, userID, id string) (*models.JournalEntry, error)
	Update(ctx context.Context, userID, id string, in EntryUpdate) (*models.JournalEntry, error)
	// Delete succeeds when the entry is gone afterwards: deleting an entry
	// that never existed is not an error, deleting someone else's entry is
	// reported as not found.
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string, f pgrepo.EntryFilter) ([]models.JournalEntry, int64, error)
	// Recent lists entries from the trailing 7 days, paginated.
	Recent(ctx context.Context, userID string, page, pageSize int) ([]models.JournalEntry, int64, error)
	Stats(ctx context.Context, userID string) (*pgrepo.EntryStats, error)
}

type entryService struct {
	entries pgrepo.EntryRepo
	cache   cache.Cache // optional; nil disables stats caching
}

func NewEntryService(entries pgrepo.EntryRepo, c cache.Cache) EntryService {
	return &entryService{entries: entries, cache: c}
}

func (s *entryService) Create(ctx context.Context, userID string, in EntryInput) (*models.JournalEntry, error) {
	const op = "EntryService.Create"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "content is required", nil)
	}

	mood := in.Mood
	if mood == "" {
		mood = models.DefaultMood
	} else if !models.ValidMood(mood) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid mood", nil)
	}

	entryType := in.EntryType
	if entryType == "" {
		entryType = models.DefaultEntryType
	} else if !models.ValidEntryType(entryType) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid entry type", nil)
	}

	tags, err := marshalTags(in.Tags)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid tags", err)
	}

	isPrivate := true
	if in.IsPrivate != nil {
		isPrivate = *in.IsPrivate
	}

	now := time.Now().UTC()
	entry := &models.JournalEntry{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          in.Title,
		Content:        in.Content,
		Mood:           mood,
		EntryType:      entryType,
		Tags:           tags,
		WordCount:      len(strings.Fields(in.Content)),
		IsPrivate:      isPrivate,
		SentimentScore: in.SentimentScore,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create entry", err)
	}

	s.invalidateStats(ctx, userID)
	return entry, nil
}

func (s *entryService) Get(ctx context.Context, userID, id string) (*models.JournalEntry, error) {
	const op = "EntryService.Get"

	entry, err := s.entries.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "entry not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get entry", err)
	}
	return entry, nil
}

func (s *entryService) Update(ctx context.Context, userID, id string, in EntryUpdate) (*models.JournalEntry, error) {
	const op = "EntryService.Update"

	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		entry.Title = *in.Title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "content is required", nil)
		}
		entry.Content = *in.Content
		entry.WordCount = len(strings.Fields(*in.Content))
	}
	if in.Mood != nil {
		if !models.ValidMood(*in.Mood) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "invalid mood", nil)
		}
		entry.Mood = *in.Mood
	}
	if in.EntryType != nil {
		if !models.ValidEntryType(*in.EntryType) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "invalid entry type", nil)
		}
		entry.EntryType = *in.EntryType
	}
	if in.Tags != nil {
		tags, err := marshalTags(*in.Tags)
		if err != nil {
			return nil, utils.E(utils.CodeInvalidArgument, op, "invalid tags", err)
		}
		entry.Tags = tags
	}
	if in.IsPrivate != nil {
		entry.IsPrivate = *in.IsPrivate
	}
	if in.SentimentScore != nil {
		entry.SentimentScore = in.SentimentScore
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update entry", err)
	}

	s.invalidateStats(ctx, userID)
	return entry, nil
}

func (s *entryService) Delete(ctx context.Context, userID, id string) error {
	const op = "EntryService.Delete"

	n, err := s.entries.Delete(ctx, userID, id)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete entry", err)
	}
	if n == 0 {
		exists, err := s.entries.ExistsAnywhere(ctx, id)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to delete entry", err)
		}
		if exists {
			// Someone else's entry: hidden behind not-found.
			return utils.E(utils.CodeNotFound, op, "entry not found", nil)
		}
		// Already gone: deleting again is a success.
		return nil
	}

	s.invalidateStats(ctx, userID)
	return nil
}

func (s *entryService) List(ctx context.Context, userID string, f pgrepo.EntryFilter) ([]models.JournalEntry, int64, error) {
	const op = "EntryService.List"

	rows, total, err := s.entries.List(ctx, userID, f)
	if err != nil {
		return nil, 0, utils.E(utils.CodeInternal, op, "failed to list entries", err)
	}
	return rows, total, nil
}

func (s *entryService) Recent(ctx context.Context, userID string, page, pageSize int) ([]models.JournalEntry, int64, error) {
	since := time.Now().UTC().Add(-recentEntryWindow)
	return s.List(ctx, userID, pgrepo.EntryFilter{
		StartDate: &since,
		Page:      page,
		PageSize:  pageSize,
	})
}

func (s *entryService) Stats(ctx context.Context, userID string) (*pgrepo.EntryStats, error) {
	const op = "EntryService.Stats"

	key := statsCacheKey(userID)
	if s.cache != nil {
		var cached pgrepo.EntryStats
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	stats, err := s.entries.Stats(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to aggregate stats", err)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, stats, statsCacheTTL)
	}
	return stats, nil
}

func (s *entryService) invalidateStats(ctx context.Context, userID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, statsCacheKey(userID))
	}
}

func statsCacheKey(userID string) string { return "entries:stats:" + userID }

func marshalTags(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
