package presenter

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ca-srg/saferestart/domain/entity"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// ConsolePresenterImpl implements ConsolePresenter for terminal output
type ConsolePresenterImpl struct {
	writer    io.Writer
	errWriter io.Writer
}

// NewConsolePresenter creates a new console presenter
func NewConsolePresenter() *ConsolePresenterImpl {
	return newConsolePresenter(os.Stdout, os.Stderr)
}

func newConsolePresenter(out, errOut io.Writer) *ConsolePresenterImpl {
	return &ConsolePresenterImpl{
		writer:    out,
		errWriter: errOut,
	}
}

// PrintVersion prints version information
func (p *ConsolePresenterImpl) PrintVersion(version string) {
	_, _ = fmt.Fprintf(p.writer, "saferestart version %s\n", version)
}

// PrintError prints an error message
func (p *ConsolePresenterImpl) PrintError(err error) {
	_, _ = fmt.Fprintf(p.errWriter, "Error: %v\n", err)
}

// PrintOutcome prints the result of a restart run
func (p *ConsolePresenterImpl) PrintOutcome(outcome *entity.RestartOutcome) error {
	_, _ = fmt.Fprintln(p.writer, outcome.Summary())

	states := make([]string, 0, len(outcome.States))
	for _, s := range outcome.States {
		states = append(states, string(s))
	}
	_, _ = fmt.Fprintf(p.writer, "States: %s\n", strings.Join(states, " -> "))

	if outcome.Close != nil {
		_, _ = fmt.Fprintf(p.writer, "Closed: %d", outcome.Close.ClosedCount)
		if outcome.Close.Failures > 0 {
			_, _ = fmt.Fprintf(p.writer, " (%d not reported closed)", outcome.Close.Failures)
		}
		_, _ = fmt.Fprintln(p.writer)
	}
	_, _ = fmt.Fprintf(p.writer, "Duration: %s\n", outcome.Duration().Round(time.Millisecond))

	if outcome.Kind == entity.OutcomeFailedAtStep && outcome.Err != nil {
		_, _ = fmt.Fprintf(p.errWriter, "Error: %v\n", outcome.Err)
	}
	return nil
}

// PrintTriggered confirms a restart request
func (p *ConsolePresenterImpl) PrintTriggered(location, reason string) error {
	if reason == "" {
		_, _ = fmt.Fprintf(p.writer, "Restart requested (%s)\n", location)
		return nil
	}
	_, _ = fmt.Fprintf(p.writer, "Restart requested: %s (%s)\n", reason, location)
	return nil
}

// PrintStatus prints the restart flag, last run and resolved configuration
func (p *ConsolePresenterImpl) PrintStatus(status *usecase.StatusInfo) error {
	_, _ = fmt.Fprintln(p.writer, "Restart Controller Status")
	_, _ = fmt.Fprintln(p.writer, strings.Repeat("=", 50))

	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Restart pending:\t%s\n", pendingText(status.Request))
	_, _ = fmt.Fprintf(w, "Flag location:\t%s\n", status.FlagLocation)
	_, _ = fmt.Fprintf(w, "Config file:\t%s\n", status.ConfigPath)

	switch {
	case !status.HistoryEnabled:
		_, _ = fmt.Fprintf(w, "Last run:\thistory disabled\n")
	case status.LastRun == nil:
		_, _ = fmt.Fprintf(w, "Last run:\tnone recorded\n")
	default:
		_, _ = fmt.Fprintf(w, "Last run:\t%s, %s (exit %d)\n",
			status.LastRun.StartedAt.Local().Format(timeLayout),
			status.LastRun.Outcome,
			status.LastRun.ExitStatus)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(p.writer)
	_, _ = fmt.Fprintln(p.writer, "Configuration:")
	printConfigSection(p.writer, "  ", status.Config)
	return nil
}

// PrintHistory prints recorded runs as a table
func (p *ConsolePresenterImpl) PrintHistory(runs []*entity.RunRecord) error {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(p.writer, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Started\tOutcome\tStep\tExit\tClosed\tDuration\n")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 23),
		strings.Repeat("-", 25),
		strings.Repeat("-", 17),
		strings.Repeat("-", 4),
		strings.Repeat("-", 6),
		strings.Repeat("-", 8))

	for _, run := range runs {
		step := run.Step
		if step == "" {
			step = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.StartedAt.Local().Format(timeLayout),
			run.Outcome,
			step,
			run.ExitStatus,
			run.ClosedCount,
			run.Duration().Round(time.Second))
	}
	return w.Flush()
}

// PrintExported confirms a CSV export
func (p *ConsolePresenterImpl) PrintExported(count int, path string) error {
	_, _ = fmt.Fprintf(p.writer, "Exported %d runs to %s\n", count, path)
	return nil
}

// PrintConfigCreated confirms template creation
func (p *ConsolePresenterImpl) PrintConfigCreated(path string) error {
	_, _ = fmt.Fprintf(p.writer, "Configuration template written to %s\n", path)
	return nil
}

func pendingText(req *entity.RestartRequest) string {
	if req == nil || !req.Pending {
		return "no"
	}
	var parts []string
	if !req.RequestedAt.IsZero() {
		parts = append(parts, "since "+req.RequestedAt.Local().Format(timeLayout))
	}
	if req.Reason != "" {
		parts = append(parts, req.Reason)
	}
	if len(parts) == 0 {
		return "yes"
	}
	return "yes (" + strings.Join(parts, ", ") + ")"
}

// printConfigSection prints nested maps in key order; "_sources" is skipped
func printConfigSection(w io.Writer, indent string, section map[string]interface{}) {
	keys := make([]string, 0, len(section))
	for k := range section {
		if k == "_sources" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if nested, ok := section[k].(map[string]interface{}); ok {
			_, _ = fmt.Fprintf(w, "%s%s:\n", indent, k)
			printConfigSection(w, indent+"  ", nested)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s%s: %v\n", indent, k, section[k])
	}
}

var _ ConsolePresenter = (*ConsolePresenterImpl)(nil)

