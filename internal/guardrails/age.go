package guardrails

import (
	"errors"
	"fmt"
	"strings"
)

// AgeGroup is the audience band a story is written for.
type AgeGroup string

const (
	AgePreschool AgeGroup = "3-5"
	AgeEarly     AgeGroup = "6-8"
	AgeMiddle    AgeGroup = "9-12"
)

var ErrUnknownAgeGroup = errors.New("unknown age group")

// AgeGroups lists every supported band, youngest first.
func AgeGroups() []AgeGroup {
	return []AgeGroup{AgePreschool, AgeEarly, AgeMiddle}
}

func (a AgeGroup) Valid() bool {
	switch a {
	case AgePreschool, AgeEarly, AgeMiddle:
		return true
	}
	return false
}

func (a AgeGroup) String() string { return string(a) }

// ParseAgeGroup accepts "3-5", "6-8" or "9-12" with surrounding spaces.
func ParseAgeGroup(s string) (AgeGroup, error) {
	a := AgeGroup(strings.TrimSpace(s))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAgeGroup, s)
	}
	return a, nil
}
