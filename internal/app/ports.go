package app

import (
	"context"

	"github.com/hylla/balans/internal/domain"
)

// Repository persists household input data and archived analysis results.
// Reports and records are keyed by the household they were collected for.
type Repository interface {
	SavePerson(context.Context, domain.Person) error
	ListPeople(context.Context, string) ([]domain.Person, error)

	SaveSelfReport(context.Context, string, domain.SelfReport) error
	ListSelfReports(context.Context, string) ([]domain.SelfReport, error)

	SaveActivityRecord(context.Context, string, domain.ActivityRecord) error
	ListActivityRecords(context.Context, string) ([]domain.ActivityRecord, error)

	SaveResult(context.Context, domain.AnalysisResult) error
	LatestResult(context.Context, string) (domain.AnalysisResult, error)
	ListHouseholdIDs(context.Context) ([]string, error)
}
