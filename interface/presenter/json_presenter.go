package presenter

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/ca-srg/saferestart/domain/entity"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

// JSONPresenterImpl implements JSONPresenter for JSON output
type JSONPresenterImpl struct {
	encoder *json.Encoder
}

// NewJSONPresenter creates a new JSON presenter
func NewJSONPresenter() *JSONPresenterImpl {
	return newJSONPresenter(os.Stdout)
}

func newJSONPresenter(w io.Writer) *JSONPresenterImpl {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return &JSONPresenterImpl{encoder: encoder}
}

type runJSON struct {
	ID              string  `json:"id"`
	StartedAt       string  `json:"startedAt"`
	FinishedAt      string  `json:"finishedAt"`
	DurationSeconds float64 `json:"durationSeconds"`
	Outcome         string  `json:"outcome"`
	Step            string  `json:"step,omitempty"`
	ExitStatus      int     `json:"exitStatus"`
	ClosedCount     int     `json:"closedCount"`
	Failures        int     `json:"failures"`
	Message         string  `json:"message,omitempty"`
}

func toRunJSON(r *entity.RunRecord) runJSON {
	return runJSON{
		ID:              r.ID,
		StartedAt:       r.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:      r.FinishedAt.UTC().Format(time.RFC3339),
		DurationSeconds: r.Duration().Seconds(),
		Outcome:         string(r.Outcome),
		Step:            r.Step,
		ExitStatus:      r.ExitStatus,
		ClosedCount:     r.ClosedCount,
		Failures:        r.Failures,
		Message:         r.Message,
	}
}

// PrintOutcome prints a restart outcome as JSON
func (p *JSONPresenterImpl) PrintOutcome(outcome *entity.RestartOutcome) error {
	states := make([]string, 0, len(outcome.States))
	for _, s := range outcome.States {
		states = append(states, string(s))
	}

	data := map[string]interface{}{
		"outcome":         string(outcome.Kind),
		"exitStatus":      outcome.ExitCode(),
		"summary":         outcome.Summary(),
		"states":          states,
		"durationSeconds": outcome.Duration().Seconds(),
	}
	if outcome.Step != "" {
		data["step"] = outcome.Step
	}
	if outcome.Close != nil {
		data["close"] = map[string]interface{}{
			"closedCount": outcome.Close.ClosedCount,
			"failures":    outcome.Close.Failures,
			"openBefore":  outcome.Close.OpenBefore,
			"nothingToDo": outcome.Close.NothingToDo,
		}
	}
	if outcome.Err != nil {
		data["error"] = outcome.Err.Error()
	}
	return p.encoder.Encode(data)
}

// PrintStatus prints status as JSON
func (p *JSONPresenterImpl) PrintStatus(status *usecase.StatusInfo) error {
	flag := map[string]interface{}{
		"pending":  false,
		"location": status.FlagLocation,
	}
	if req := status.Request; req != nil && req.Pending {
		flag["pending"] = true
		if !req.RequestedAt.IsZero() {
			flag["requestedAt"] = req.RequestedAt.UTC().Format(time.RFC3339)
		}
		if req.Reason != "" {
			flag["reason"] = req.Reason
		}
	}

	data := map[string]interface{}{
		"configPath":     status.ConfigPath,
		"config":         status.Config,
		"restartFlag":    flag,
		"historyEnabled": status.HistoryEnabled,
	}
	if status.LastRun != nil {
		data["lastRun"] = toRunJSON(status.LastRun)
	}
	return p.encoder.Encode(data)
}

// PrintHistory prints recorded runs as a JSON array
func (p *JSONPresenterImpl) PrintHistory(runs []*entity.RunRecord) error {
	out := make([]runJSON, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunJSON(r))
	}
	return p.encoder.Encode(out)
}

var _ JSONPresenter = (*JSONPresenterImpl)(nil)
