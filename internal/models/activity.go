package models

import (
	"errors"
	"fmt"
)

var ErrUnknownActivity = errors.New("unknown activity type")

// ActivityType is the closed set of activities that can earn reputation.
type ActivityType string

const (
	ActivityMarket ActivityType = "market"
	ActivityTaxi   ActivityType = "taxi"
)

func (a ActivityType) Valid() bool {
	switch a {
	case ActivityMarket, ActivityTaxi:
		return true
	}
	return false
}

func (a ActivityType) String() string { return string(a) }

// ParseActivityType rejects anything outside the closed set so that a typo
// can never open an unthrottled category.
func ParseActivityType(s string) (ActivityType, error) {
	a := ActivityType(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownActivity, s)
	}
	return a, nil
}
