package presenter

import (
	"github.com/ca-srg/saferestart/domain/entity"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

// ConsolePresenter handles console output formatting
type ConsolePresenter interface {
	PrintVersion(version string)
	PrintError(err error)

	// Restart run output
	PrintOutcome(outcome *entity.RestartOutcome) error
	PrintTriggered(location, reason string) error

	// Status and history output
	PrintStatus(status *usecase.StatusInfo) error
	PrintHistory(runs []*entity.RunRecord) error
	PrintExported(count int, path string) error
	PrintConfigCreated(path string) error
}

// JSONPresenter handles JSON output formatting
type JSONPresenter interface {
	PrintOutcome(outcome *entity.RestartOutcome) error
	PrintStatus(status *usecase.StatusInfo) error
	PrintHistory(runs []*entity.RunRecord) error
}
