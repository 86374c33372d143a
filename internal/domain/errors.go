package domain

import "errors"

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidPersonID    = errors.New("invalid person id")
	ErrInvalidHouseholdID = errors.New("invalid household id")
	ErrInvalidCategory    = errors.New("invalid work category")
	ErrInvalidActivity    = errors.New("invalid activity type")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrInvalidName        = errors.New("invalid name")
	ErrNoInputData        = errors.New("no self-reports or activity records available")
)
