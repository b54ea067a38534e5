package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
)

const redactedPassword = "****"

// AdminCredentials are the resolved values the admin tool is invoked with
type AdminCredentials struct {
	ExecutablePath string
	Username       string
	Password       string
}

// AdminVerbs are the admin tool arguments for each operation. Subsystem
// verbs receive the subsystem's tool name as an extra argument.
type AdminVerbs struct {
	ListClients       []string
	ListOpenResources []string
	CloseAll          []string
	ForceFlag         string
	Stop              []string
	Start             []string
	NonInteractive    string
}

// DefaultAdminVerbs returns the verbs of an fmsadmin-compatible tool
func DefaultAdminVerbs() AdminVerbs {
	return AdminVerbs{
		ListClients:       []string{"list", "clients"},
		ListOpenResources: []string{"list", "files"},
		CloseAll:          []string{"close"},
		ForceFlag:         "-y",
		Stop:              []string{"stop"},
		Start:             []string{"start"},
		NonInteractive:    "-y",
	}
}

// ExecAdminRepository drives the admin command-line tool through a CommandRunner.
// It is the only place admin output text is interpreted.
type ExecAdminRepository struct {
	runner         repository.CommandRunner
	creds          AdminCredentials
	verbs          AdminVerbs
	subsystemNames map[entity.Subsystem]string
	commandTimeout time.Duration
	logger         domain.Logger
}

// ExecAdminOption configures an ExecAdminRepository
type ExecAdminOption func(*ExecAdminRepository)

// WithAdminVerbs overrides the default verbs
func WithAdminVerbs(verbs AdminVerbs) ExecAdminOption {
	return func(r *ExecAdminRepository) {
		r.verbs = verbs
	}
}

// WithSubsystemNames sets the tool's names for the two subsystems
func WithSubsystemNames(adminServer, mainServer string) ExecAdminOption {
	return func(r *ExecAdminRepository) {
		r.subsystemNames[entity.SubsystemAdminServer] = adminServer
		r.subsystemNames[entity.SubsystemMainServer] = mainServer
	}
}

// WithCommandTimeout bounds each invocation; zero disables the bound
func WithCommandTimeout(d time.Duration) ExecAdminOption {
	return func(r *ExecAdminRepository) {
		r.commandTimeout = d
	}
}

// NewExecAdminRepository creates a new ExecAdminRepository
func NewExecAdminRepository(runner repository.CommandRunner, creds AdminCredentials, logger domain.Logger, opts ...ExecAdminOption) *ExecAdminRepository {
	r := &ExecAdminRepository{
		runner: runner,
		creds:  creds,
		verbs:  DefaultAdminVerbs(),
		subsystemNames: map[entity.Subsystem]string{
			entity.SubsystemAdminServer: "adminserver",
			entity.SubsystemMainServer:  "server",
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SubsystemName returns the tool's name for subsystem
func (r *ExecAdminRepository) SubsystemName(subsystem entity.Subsystem) string {
	if name, ok := r.subsystemNames[subsystem]; ok && name != "" {
		return name
	}
	return string(subsystem)
}

// ListClients returns every non-blank row of the client listing
func (r *ExecAdminRepository) ListClients(ctx context.Context) ([]entity.ClientSession, error) {
	out, err := r.run(ctx, r.verbs.ListClients...)
	if err != nil {
		return nil, err
	}

	lines := splitNonBlank(out)
	sessions := make([]entity.ClientSession, 0, len(lines))
	for _, line := range lines {
		sessions = append(sessions, entity.ClientSession{Raw: line})
	}
	return sessions, nil
}

// ListOpenResources returns one open resource per non-blank line of the file listing
func (r *ExecAdminRepository) ListOpenResources(ctx context.Context) ([]entity.OpenResource, error) {
	out, err := r.run(ctx, r.verbs.ListOpenResources...)
	if err != nil {
		return nil, err
	}

	lines := splitNonBlank(out)
	resources := make([]entity.OpenResource, 0, len(lines))
	for _, line := range lines {
		resources = append(resources, entity.OpenResource{
			Identifier: strings.TrimSpace(line),
			IsOpen:     true,
		})
	}
	return resources, nil
}

// CloseAll closes every open resource
func (r *ExecAdminRepository) CloseAll(ctx context.Context, force bool) (*entity.CloseLog, error) {
	args := append([]string{}, r.verbs.CloseAll...)
	if force && r.verbs.ForceFlag != "" {
		args = append(args, r.verbs.ForceFlag)
	}

	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return entity.NewCloseLog(out), nil
}

// StopSubsystem stops subsystem without prompting
func (r *ExecAdminRepository) StopSubsystem(ctx context.Context, subsystem entity.Subsystem) error {
	args := append([]string{}, r.verbs.Stop...)
	args = append(args, r.SubsystemName(subsystem))
	if r.verbs.NonInteractive != "" {
		args = append(args, r.verbs.NonInteractive)
	}

	_, err := r.run(ctx, args...)
	return err
}

// StartSubsystem starts subsystem
func (r *ExecAdminRepository) StartSubsystem(ctx context.Context, subsystem entity.Subsystem) error {
	args := append([]string{}, r.verbs.Start...)
	args = append(args, r.SubsystemName(subsystem))

	_, err := r.run(ctx, args...)
	return err
}

func (r *ExecAdminRepository) run(ctx context.Context, verb ...string) (string, error) {
	if r.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.commandTimeout)
		defer cancel()
	}

	args := append([]string{"-u", r.creds.Username, "-p", r.creds.Password}, verb...)
	display := r.displayCommand(verb)

	r.logger.Debug(ctx, "Running admin command", domain.NewField("command", display))

	out, status, err := r.runner.Run(ctx, r.creds.ExecutablePath, args...)
	if err != nil {
		return "", fmt.Errorf("failed to run %q: %w", display, err)
	}
	if status != 0 {
		return "", domain.NewAdminCommandError(display, status, out)
	}
	return out, nil
}

// displayCommand renders the command line with the password redacted
func (r *ExecAdminRepository) displayCommand(verb []string) string {
	parts := []string{r.creds.ExecutablePath, "-u", r.creds.Username, "-p", redactedPassword}
	parts = append(parts, verb...)
	return strings.Join(parts, " ")
}

func splitNonBlank(output string) []string {
	output = strings.ReplaceAll(output, "\r\n", "\n")
	lines := make([]string, 0)
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

var _ repository.AdminRepository = (*ExecAdminRepository)(nil)
