package models

import (
	"time"

	"gorm.io/datatypes"
)

// Mood and entry type values accepted on journal entries. Moods are the
// emoji themselves, not labels, to match what the client renders.
var (
	Moods = []string{"😊", "😢", "😐", "😡", "😴", "😨", "😌", "😔", "😤", "🤗"}

	EntryTypes = []string{"text", "voice", "quick"}
)

const (
	DefaultMood      = "😐"
	DefaultEntryType = "text"
)

type JournalEntry struct {
	ID             string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID         string         `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Title          string         `gorm:"column:title;type:text" json:"title"`
	Content        string         `gorm:"column:content;type:text" json:"content"`
	Mood           string         `gorm:"column:mood;type:text" json:"mood"`
	EntryType      string         `gorm:"column:entry_type;type:text" json:"entry_type"`
	Tags           datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags"`
	WordCount      int            `gorm:"column:word_count" json:"word_count"`
	IsPrivate      bool           `gorm:"column:is_private;default:true" json:"is_private"`
	SentimentScore *float64       `gorm:"column:sentiment_score" json:"sentiment_score"`
	CreatedAt      time.Time      `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (JournalEntry) TableName() string { return "journal_entries" }

func ValidMood(m string) bool {
	for _, v := range Moods {
		if v == m {
			return true
		}
	}
	return false
}

func ValidEntryType(t string) bool {
	for _, v := range EntryTypes {
		if v == t {
			return true
		}
	}
	return false
}
