package domain

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

const (
	// ActiveConfig is the sentinel configuration name that resolves to a
	// project's active configuration at use time.
	ActiveConfig = "@active"

	// DefaultConfig is the configuration every project has when it declares none.
	DefaultConfig = "default"
)

// ConfigRef identifies a build configuration of a project.
// Name may be ActiveConfig, in which case the reference follows the project's
// active configuration whenever it is resolved.
type ConfigRef struct {
	Project string
	Name    string
}

// NewConfigRef returns a reference to a named configuration.
func NewConfigRef(project, name string) ConfigRef {
	return ConfigRef{Project: project, Name: name}
}

// ActiveConfigOf returns a reference that follows the project's active configuration.
func ActiveConfigOf(project string) ConfigRef {
	return ConfigRef{Project: project, Name: ActiveConfig}
}

// IsActive reports whether the reference is the active-configuration sentinel.
func (r ConfigRef) IsActive() bool {
	return r.Name == ActiveConfig || r.Name == ""
}

// String renders the reference as project:config.
func (r ConfigRef) String() string {
	if r.IsActive() {
		return r.Project
	}
	return r.Project + ":" + r.Name
}

// Compare orders references by project, then configuration name.
func (r ConfigRef) Compare(other ConfigRef) int {
	if c := strings.Compare(r.Project, other.Project); c != 0 {
		return c
	}
	return strings.Compare(r.Name, other.Name)
}

// ParseConfigRef parses "project" (active configuration) or "project:config".
func ParseConfigRef(s string) (ConfigRef, error) {
	project, name, found := strings.Cut(s, ":")
	if project == "" || (found && name == "") {
		return ConfigRef{}, zerr.With(zerr.Wrap(ErrInvalidConfigRef, "malformed reference"), "reference", s)
	}
	if !found {
		return ActiveConfigOf(project), nil
	}
	return NewConfigRef(project, name), nil
}

// BuildCommand is one builder invocation declared by a project.
type BuildCommand struct {
	// Builder is the identifier the registry resolves to a factory.
	Builder string
	// Args is passed verbatim to the builder.
	Args map[string]string
	// Configurable enables per-trigger filtering through Triggers.
	Configurable bool
	// Triggers lists the enabled trigger kinds when Configurable is set.
	Triggers TriggerSet
}

// Builds reports whether the command runs for the given trigger kind.
func (c BuildCommand) Builds(kind TriggerKind) bool {
	return !c.Configurable || c.Triggers.Has(kind)
}

// Clone returns a deep copy of the command.
func (c BuildCommand) Clone() BuildCommand {
	c.Args = maps.Clone(c.Args)
	return c
}

// Project is the build description of one workspace project.
type Project struct {
	// Name identifies the project in the workspace.
	Name string
	// Location is the project's directory on disk, if any.
	Location string
	// Configs lists the project's build configurations in declaration order.
	Configs []string
	// Active names the active configuration.
	Active string
	// Commands lists the build commands in execution order.
	Commands []BuildCommand
	// References maps a configuration name to the configurations it depends on.
	References map[string][]ConfigRef
	// DynamicReferences names projects whose active configuration every
	// configuration of this project depends on.
	DynamicReferences []string
	// Ignore holds glob patterns excluded from the project's resource tree.
	Ignore []string
	// Open reports whether the project participates in builds.
	Open bool
}

// NewProject returns an open project with the default configuration.
func NewProject(name string) *Project {
	return &Project{
		Name:    name,
		Configs: []string{DefaultConfig},
		Active:  DefaultConfig,
		Open:    true,
	}
}

// ConfigIndex returns the declaration position of the configuration, or -1.
func (p *Project) ConfigIndex(name string) int {
	return slices.Index(p.Configs, name)
}

// HasConfig reports whether the project declares the configuration.
func (p *Project) HasConfig(name string) bool {
	return p.ConfigIndex(name) >= 0
}

// ActiveRef returns a resolved reference to the project's active configuration.
func (p *Project) ActiveRef() ConfigRef {
	return NewConfigRef(p.Name, p.Active)
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	c := *p
	c.Configs = slices.Clone(p.Configs)
	c.DynamicReferences = slices.Clone(p.DynamicReferences)
	c.Ignore = slices.Clone(p.Ignore)
	c.Commands = make([]BuildCommand, len(p.Commands))
	for i, cmd := range p.Commands {
		c.Commands[i] = cmd.Clone()
	}
	if p.References != nil {
		c.References = make(map[string][]ConfigRef, len(p.References))
		for k, v := range p.References {
			c.References[k] = slices.Clone(v)
		}
	}
	return &c
}

// normalize fills in the default configuration and active selection.
func (p *Project) normalize() error {
	if len(p.Configs) == 0 {
		p.Configs = []string{DefaultConfig}
	}
	seen := make(map[string]bool, len(p.Configs))
	for _, c := range p.Configs {
		if seen[c] {
			return zerr.With(zerr.With(zerr.Wrap(ErrDuplicateConfigName, "invalid project"), "project", p.Name), "config", c)
		}
		seen[c] = true
	}
	if p.Active == "" {
		p.Active = p.Configs[0]
	}
	if !seen[p.Active] {
		return zerr.With(zerr.With(zerr.Wrap(ErrConfigNotDeclared, "invalid active configuration"), "project", p.Name), "config", p.Active)
	}
	return nil
}
