// Package shell provides the exec builder kind, which runs shell commands.
package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// KindName is the builder kind name used in workspace configuration.
const KindName = "exec"

// Builder arguments.
const (
	ArgCmd     = "cmd"
	ArgClean   = "clean"
	ArgDir     = "dir"
	ArgRule    = "rule"
	ArgObserve = "observe"
	ArgShell   = "shell"
	argEnvPref = "env."
)

// Control file directives a command may write to $KILN_CONTROL.
const (
	directiveRebuild = "rebuild"
	directiveForget  = "forget"
)

var _ ports.BuilderKind = (*Kind)(nil)

// Kind implements ports.BuilderKind for shell commands.
type Kind struct {
	logger ports.Logger
}

// NewKind creates the exec builder kind.
func NewKind(logger ports.Logger) *Kind {
	return &Kind{logger: logger}
}

// Name returns the kind name.
func (k *Kind) Name() string {
	return KindName
}

// New validates the command's arguments and creates a builder for target.
func (k *Kind) New(target domain.ConfigRef, cmd domain.BuildCommand) (ports.Builder, error) {
	command := strings.TrimSpace(cmd.Args[ArgCmd])
	if command == "" {
		err := zerr.With(zerr.Wrap(domain.ErrMissingBuilderArg, "invalid exec builder"), "arg", ArgCmd)
		return nil, zerr.With(err, "config", target.String())
	}

	rule, err := parseRule(target.Project, cmd.Args[ArgRule])
	if err != nil {
		return nil, zerr.With(err, "config", target.String())
	}

	observe, err := parseRefs(cmd.Args[ArgObserve])
	if err != nil {
		return nil, zerr.With(err, "config", target.String())
	}

	shell := cmd.Args[ArgShell]
	if shell == "" {
		shell = "sh"
	}

	env := make(map[string]string)
	for k, v := range cmd.Args {
		if name, ok := strings.CutPrefix(k, argEnvPref); ok && name != "" {
			env[name] = v
		}
	}

	return &Executor{
		logger:  k.logger,
		target:  target,
		command: command,
		clean:   strings.TrimSpace(cmd.Args[ArgClean]),
		dir:     cmd.Args[ArgDir],
		shell:   shell,
		env:     env,
		observe: observe,
		rule:    rule,
	}, nil
}

// parseRule maps the rule argument to a scheduling rule. The default locks
// the target's project.
func parseRule(project, arg string) (domain.SchedulingRule, error) {
	switch {
	case arg == "" || arg == "project":
		return domain.ProjectRule(project), nil
	case arg == "workspace":
		return domain.WorkspaceRule(), nil
	case arg == "none":
		return nil, nil
	case strings.HasPrefix(arg, "path:"):
		dir := strings.TrimPrefix(arg, "path:")
		if dir == "" {
			break
		}
		return domain.PathRule(path.Join("/", project, filepath.ToSlash(dir))), nil
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrInvalidRule, "invalid exec builder"), "rule", arg)
}

func parseRefs(arg string) ([]domain.ConfigRef, error) {
	var refs []domain.ConfigRef
	for field := range strings.FieldsFuncSeq(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
		ref, err := domain.ParseConfigRef(field)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Executor implements ports.Builder by running a shell command.
type Executor struct {
	logger  ports.Logger
	target  domain.ConfigRef
	command string
	clean   string
	dir     string
	shell   string
	env     map[string]string
	observe []domain.ConfigRef
	rule    domain.SchedulingRule
}

// Rule returns the rule selected by the rule argument for every trigger.
func (e *Executor) Rule(domain.TriggerKind, map[string]string) domain.SchedulingRule {
	return e.rule
}

// Build runs the command. Besides the configured variables the command sees
// the KILN_* variables describing the unit, and it may write the directives
// "rebuild" and "forget" to the file named by KILN_CONTROL.
func (e *Executor) Build(ctx context.Context, req ports.BuildRequest) ([]domain.ConfigRef, error) {
	control, err := os.CreateTemp("", "kiln-control-*")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create control file")
	}
	controlPath := control.Name()
	_ = control.Close()
	defer os.Remove(controlPath) //nolint:errcheck // Best effort cleanup

	env := e.unitEnv(req)
	env["KILN_CONTROL"] = controlPath
	// Directives written before a failure still apply.
	runErr := e.run(ctx, e.command, req, env)
	if err := e.applyDirectives(controlPath, req.Session); err != nil {
		return nil, errors.Join(runErr, err)
	}
	if runErr != nil {
		return nil, runErr
	}
	return slices.Clone(e.observe), nil
}

// Clean runs the clean command, if one is configured.
func (e *Executor) Clean(ctx context.Context, req ports.BuildRequest) error {
	if e.clean == "" {
		return nil
	}
	return e.run(ctx, e.clean, req, e.unitEnv(req))
}

func (e *Executor) unitEnv(req ports.BuildRequest) map[string]string {
	env := map[string]string{
		"KILN_PROJECT":           req.Config.Project,
		"KILN_CONFIG":            req.Config.Name,
		"KILN_TRIGGER":           req.Trigger.String(),
		"KILN_REQUESTED_TRIGGER": req.RequestedTrigger.String(),
	}
	if req.Delta != nil {
		env["KILN_CHANGED"] = strings.Join(req.Delta.Paths(), "\n")
	}
	if req.Trigger == domain.TriggerFull {
		env["KILN_FULL"] = "1"
	}
	return env
}

func (e *Executor) run(ctx context.Context, command string, req ports.BuildRequest, unitEnv map[string]string) error {
	cmd := exec.CommandContext(ctx, e.shell, "-c", command) //nolint:gosec // user provided command
	cmd.Dir = e.workingDir(req.Project)
	cmd.Env = resolveEnvironment(os.Environ(), unitEnv, e.env)
	cmd.Stdout = req.Output
	cmd.Stderr = req.Output

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode), "command", command)
	}
	return nil
}

func (e *Executor) workingDir(project *domain.Project) string {
	var base string
	if project != nil {
		base = project.Location
	}
	switch {
	case e.dir == "":
		return base
	case filepath.IsAbs(e.dir):
		return filepath.Clean(e.dir)
	default:
		return filepath.Join(base, e.dir)
	}
}

func (e *Executor) applyDirectives(controlPath string, session ports.Session) error {
	data, err := os.ReadFile(controlPath) //nolint:gosec // Path is created by Build
	if err != nil {
		return zerr.Wrap(err, "failed to read control file")
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		switch line := strings.TrimSpace(scanner.Text()); line {
		case "":
		case directiveRebuild:
			session.RequestRebuild()
		case directiveForget:
			session.ForgetLastBuiltState()
		default:
			e.logger.Warn("ignoring unknown directive " + line + " from " + e.target.String())
		}
	}
	return nil
}

// resolveEnvironment merges environment variables, later sources overriding
// earlier ones. The result is sorted.
func resolveEnvironment(sysEnv []string, overrides ...map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	for _, m := range overrides {
		for k, v := range m {
			envMap[k] = v
		}
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}
