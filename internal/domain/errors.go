package domain

import "errors"

var (
	// ErrNoTranslations is returned when no quiz candidates remain for an entry
	ErrNoTranslations = errors.New("no translations available")
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("not found")
	// ErrCardNotActive is returned when an answer arrives for a closed card
	ErrCardNotActive = errors.New("card is not active")
	// ErrInvalidRepeatType is returned for values outside the ladder
	ErrInvalidRepeatType = errors.New("invalid repeat type")
)
