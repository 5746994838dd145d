package domain

import (
	"fmt"
	"time"
)

// TranslationEntryKey identifies a vocabulary entry
type TranslationEntryKey struct {
	Text       string
	SourceLang string
	TargetLang string
}

func (k TranslationEntryKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Text, k.SourceLang, k.TargetLang)
}

// LearningInfo holds learning progress of one vocabulary entry
type LearningInfo struct {
	Key              TranslationEntryKey
	RepeatType       RepeatType
	ShowCount        int
	IsFavorited      bool
	LastCardShowTime *time.Time
	NextCardShowTime time.Time
	CreatedDate      time.Time
	ModifiedDate     time.Time
}

// NewLearningInfo creates a record at the ladder floor, eligible immediately
func NewLearningInfo(key TranslationEntryKey, now time.Time) *LearningInfo {
	return &LearningInfo{
		Key:              key,
		RepeatType:       RepeatTypeFloor,
		NextCardShowTime: now,
		CreatedDate:      now,
		ModifiedDate:     now,
	}
}

// MarkShown records that a card for this entry has just been shown
func (li *LearningInfo) MarkShown(now time.Time) {
	shown := now
	li.LastCardShowTime = &shown
	li.ShowCount++
	li.reschedule(now)
}

// Promote moves the entry one level up and reschedules it
func (li *LearningInfo) Promote(now time.Time) {
	li.RepeatType = li.RepeatType.Promote()
	li.reschedule(now)
}

// Demote moves the entry one level down and reschedules it
func (li *LearningInfo) Demote(now time.Time) {
	li.RepeatType = li.RepeatType.Demote()
	li.reschedule(now)
}

// ToggleFavorite flips the favorite flag
func (li *LearningInfo) ToggleFavorite(now time.Time) {
	li.IsFavorited = !li.IsFavorited
	li.ModifiedDate = now
}

// NextCardShowTime = LastCardShowTime + interval, or now when never shown
func (li *LearningInfo) reschedule(now time.Time) {
	base := now
	if li.LastCardShowTime != nil {
		base = *li.LastCardShowTime
	}
	li.NextCardShowTime = base.Add(li.RepeatType.Interval())
	li.ModifiedDate = now
}

// IsDue reports whether the entry may be shown at now
func (li *LearningInfo) IsDue(now time.Time) bool {
	return !li.NextCardShowTime.After(now)
}
