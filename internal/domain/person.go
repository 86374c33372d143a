package domain

import "strings"

// Person stores one household member referenced by reports and activity records.
type Person struct {
	ID          string `json:"id"`
	HouseholdID string `json:"household_id"`
	Name        string `json:"name"`
}

// NewPerson validates and normalizes one household-member record.
func NewPerson(id, householdID, name string) (Person, error) {
	id = strings.TrimSpace(id)
	householdID = strings.TrimSpace(householdID)
	name = strings.TrimSpace(name)

	if id == "" {
		return Person{}, ErrInvalidPersonID
	}
	if householdID == "" {
		return Person{}, ErrInvalidHouseholdID
	}
	if name == "" {
		return Person{}, ErrInvalidName
	}
	return Person{ID: id, HouseholdID: householdID, Name: name}, nil
}
