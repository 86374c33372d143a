package domain

import (
	"slices"
	"strings"
	"time"
)

// ActivityType identifies one kind of recorded household activity.
type ActivityType string

// ActivityType values.
const (
	ActivityMessage ActivityType = "message"
	ActivityTask    ActivityType = "task"
	ActivityEvent   ActivityType = "event"
)

// validActivityTypes stores supported activity types.
var validActivityTypes = []ActivityType{ActivityMessage, ActivityTask, ActivityEvent}

// IsValidActivityType reports whether an activity type is supported.
func IsValidActivityType(t ActivityType) bool {
	return slices.Contains(validActivityTypes, ActivityType(strings.TrimSpace(strings.ToLower(string(t)))))
}

// BurdenTag values recognized on activity records. Unknown tags are ignored by
// the engine rather than rejected, since upstream collectors evolve freely.
const (
	BurdenMultitasking    = "multitasking"
	BurdenInterruption    = "interruption"
	BurdenNovelty         = "novelty"
	BurdenEmotionalCharge = "emotional_charge"
)

// ActivityRecord stores one observed message, task, or calendar event supplied
// by the collection layer. Records are read-only inputs; only fields present
// for the record's type are populated.
type ActivityRecord struct {
	ID           string            `json:"id"`
	PersonID     string            `json:"person_id"`
	Type         ActivityType      `json:"type"`
	Timestamp    time.Time         `json:"timestamp"`
	Content      string            `json:"content,omitempty"`
	Participants int               `json:"participants,omitempty"`
	Duration     time.Duration     `json:"duration,omitempty"`
	Deadline     *time.Time        `json:"deadline,omitempty"`
	Ambiguous    bool              `json:"ambiguous,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// Valid reports whether a record carries the fields every analysis pass needs.
// Invalid records are skipped and counted, never fatal.
func (r ActivityRecord) Valid() bool {
	if strings.TrimSpace(r.ID) == "" {
		return false
	}
	if strings.TrimSpace(r.PersonID) == "" {
		return false
	}
	if !IsValidActivityType(r.Type) {
		return false
	}
	return !r.Timestamp.IsZero()
}

// AttributeCount returns the number of distinct variables the record touches:
// populated typed fields plus free-form attributes. Used for complexity
// bucketing during evidence extraction.
func (r ActivityRecord) AttributeCount() int {
	count := 0
	if strings.TrimSpace(r.Content) != "" {
		count++
	}
	if r.Participants > 0 {
		count++
	}
	if r.Duration > 0 {
		count++
	}
	if r.Deadline != nil {
		count++
	}
	if r.Ambiguous {
		count++
	}
	count += len(r.Tags)
	count += len(r.Attributes)
	return count
}

// HasTag reports whether the record carries one normalized burden tag.
func (r ActivityRecord) HasTag(tag string) bool {
	tag = strings.TrimSpace(strings.ToLower(tag))
	for _, t := range r.Tags {
		if strings.TrimSpace(strings.ToLower(t)) == tag {
			return true
		}
	}
	return false
}

// NormalizeActivityRecord canonicalizes identifier, type, and timestamp fields.
func NormalizeActivityRecord(r ActivityRecord) ActivityRecord {
	r.ID = strings.TrimSpace(r.ID)
	r.PersonID = strings.TrimSpace(r.PersonID)
	r.Type = ActivityType(strings.TrimSpace(strings.ToLower(string(r.Type))))
	if !r.Timestamp.IsZero() {
		r.Timestamp = r.Timestamp.UTC()
	}
	if r.Deadline != nil {
		ts := r.Deadline.UTC()
		r.Deadline = &ts
	}
	return r
}
