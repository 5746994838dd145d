package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a bot user
type User struct {
	UserID     int64
	Authorized bool
	CreatedAt  time.Time
}

// UserState represents user's current interaction state
type UserState string

const (
	StateIdle               UserState = "idle"
	StateWaitingWord        UserState = "waiting_word"
	StateWaitingTranslation UserState = "waiting_translation"
	StateWaitingImport      UserState = "waiting_import"
	StateWaitingAnswer      UserState = "waiting_answer"
)

// StateData holds temporary data for user's current state
type StateData struct {
	State       UserState
	CurrentWord string
	CardID      uuid.UUID // Set while a card waits for an answer
}
