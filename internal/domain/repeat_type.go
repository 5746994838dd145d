package domain

import (
	"fmt"
	"time"
)

// RepeatType is a position on the proficiency ladder
type RepeatType int

const (
	RepeatTypeElementary RepeatType = iota
	RepeatTypeBeginner
	RepeatTypeNovice
	RepeatTypePreIntermediate
	RepeatTypeIntermediate
	RepeatTypeUpperIntermediate
	RepeatTypeAdvanced
	RepeatTypeProficient
	RepeatTypeExpert
)

// Ladder bounds
const (
	RepeatTypeFloor = RepeatTypeElementary
	RepeatTypeTop   = RepeatTypeExpert
)

var repeatTypeNames = [...]string{
	"Elementary",
	"Beginner",
	"Novice",
	"PreIntermediate",
	"Intermediate",
	"UpperIntermediate",
	"Advanced",
	"Proficient",
	"Expert",
}

// Intervals grow with the level: a well known word is asked rarely
var repeatTypeIntervals = [...]time.Duration{
	20 * time.Minute,
	1 * time.Hour,
	3 * time.Hour,
	8 * time.Hour,
	24 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
	30 * 24 * time.Hour,
}

// RepeatTypes returns all ladder levels from floor to top
func RepeatTypes() []RepeatType {
	levels := make([]RepeatType, 0, len(repeatTypeNames))
	for rt := RepeatTypeFloor; rt <= RepeatTypeTop; rt++ {
		levels = append(levels, rt)
	}
	return levels
}

// Valid reports whether rt is a ladder position
func (rt RepeatType) Valid() bool {
	return rt >= RepeatTypeFloor && rt <= RepeatTypeTop
}

// Clamp returns the nearest valid ladder position
func (rt RepeatType) Clamp() RepeatType {
	switch {
	case rt < RepeatTypeFloor:
		return RepeatTypeFloor
	case rt > RepeatTypeTop:
		return RepeatTypeTop
	default:
		return rt
	}
}

// Promote moves one step up; saturates at the top level
func (rt RepeatType) Promote() RepeatType {
	rt = rt.Clamp()
	if rt == RepeatTypeTop {
		return rt
	}
	return rt + 1
}

// Demote moves one step down; saturates at the floor
func (rt RepeatType) Demote() RepeatType {
	rt = rt.Clamp()
	if rt == RepeatTypeFloor {
		return rt
	}
	return rt - 1
}

// Interval returns how long to wait before the entry is shown again
func (rt RepeatType) Interval() time.Duration {
	return repeatTypeIntervals[rt.Clamp()]
}

func (rt RepeatType) String() string {
	if !rt.Valid() {
		return fmt.Sprintf("RepeatType(%d)", int(rt))
	}
	return repeatTypeNames[rt]
}

// ParseRepeatType converts a stored value into a ladder position
func ParseRepeatType(v int) (RepeatType, error) {
	rt := RepeatType(v)
	if !rt.Valid() {
		return rt.Clamp(), fmt.Errorf("%w: %d", ErrInvalidRepeatType, v)
	}
	return rt, nil
}
