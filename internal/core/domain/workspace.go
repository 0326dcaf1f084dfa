package domain

import (
	"regexp"
	"slices"
	"sync"

	"go.trai.ch/zerr"
)

var validNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// ValidateName reports whether s is a valid project or configuration name.
func ValidateName(s string) bool {
	return validNameRegex.MatchString(s)
}

// BuilderSpec binds a builder identifier to the builder kind that implements it.
type BuilderSpec struct {
	ID               string
	Kind             string
	CallOnEmptyDelta bool
}

// WorkspaceSpec is the loaded description of a workspace before it is registered.
type WorkspaceSpec struct {
	Root       string
	Projects   []*Project
	BuildOrder []string
	Builders   []BuilderSpec
	Settings   Settings
}

// Workspace is the registry of project descriptions the engine builds from.
// It is safe for concurrent use; every accessor hands out copies.
type Workspace struct {
	mu         sync.RWMutex
	root       string
	projects   map[string]*Project
	order      []string
	buildOrder []string
}

// NewWorkspace creates an empty workspace rooted at root.
func NewWorkspace(root string) *Workspace {
	return &Workspace{
		root:     root,
		projects: make(map[string]*Project),
	}
}

// NewWorkspaceFromSpec registers every project of spec in declaration order.
func NewWorkspaceFromSpec(spec *WorkspaceSpec) (*Workspace, error) {
	ws := NewWorkspace(spec.Root)
	for _, p := range spec.Projects {
		if err := ws.AddProject(p); err != nil {
			return nil, err
		}
	}
	ws.SetBuildOrder(spec.BuildOrder)
	return ws, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// AddProject registers a new project. Registration order is the build
// order tie-break for projects without an explicit position.
func (w *Workspace) AddProject(p *Project) error {
	if !ValidateName(p.Name) {
		return zerr.With(zerr.Wrap(ErrInvalidProjectName, "cannot add project"), "project", p.Name)
	}

	c := p.Clone()
	if err := c.normalize(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.projects[c.Name]; exists {
		return zerr.With(zerr.Wrap(ErrDuplicateProjectName, "cannot add project"), "project", c.Name)
	}
	w.projects[c.Name] = c
	w.order = append(w.order, c.Name)
	return nil
}

// SetDescription replaces the description of an existing project.
// The open state is kept; descriptions do not open or close projects.
func (w *Workspace) SetDescription(p *Project) error {
	c := p.Clone()
	if err := c.normalize(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	cur, ok := w.projects[c.Name]
	if !ok {
		return zerr.With(zerr.Wrap(ErrProjectNotFound, "cannot set description"), "project", c.Name)
	}
	c.Open = cur.Open
	w.projects[c.Name] = c
	return nil
}

// SetActive switches the active configuration of a project.
func (w *Workspace) SetActive(project, config string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.projects[project]
	if !ok {
		return zerr.With(zerr.Wrap(ErrProjectNotFound, "cannot set active configuration"), "project", project)
	}
	if !p.HasConfig(config) {
		err := zerr.With(zerr.Wrap(ErrConfigNotDeclared, "cannot set active configuration"), "project", project)
		return zerr.With(err, "config", config)
	}
	c := p.Clone()
	c.Active = config
	w.projects[project] = c
	return nil
}

// SetOpen opens or closes a project.
func (w *Workspace) SetOpen(project string, open bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.projects[project]
	if !ok {
		return zerr.With(zerr.Wrap(ErrProjectNotFound, "cannot change project state"), "project", project)
	}
	c := p.Clone()
	c.Open = open
	w.projects[project] = c
	return nil
}

// Delete removes a project from the workspace.
func (w *Workspace) Delete(project string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.projects[project]; !ok {
		return zerr.With(zerr.Wrap(ErrProjectNotFound, "cannot delete project"), "project", project)
	}
	delete(w.projects, project)
	w.order = slices.DeleteFunc(w.order, func(n string) bool { return n == project })
	return nil
}

// SetBuildOrder sets the explicit project build order. Projects absent from
// the list are ordered after the listed ones.
func (w *Workspace) SetBuildOrder(order []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buildOrder = slices.Clone(order)
}

// BuildOrder returns the explicit project build order.
func (w *Workspace) BuildOrder() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.buildOrder)
}

// Project returns a copy of the named project.
func (w *Workspace) Project(name string) (*Project, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	p, ok := w.projects[name]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Projects returns copies of every project in registration order.
func (w *Workspace) Projects() []*Project {
	w.mu.RLock()
	defer w.mu.RUnlock()

	res := make([]*Project, 0, len(w.order))
	for _, name := range w.order {
		res = append(res, w.projects[name].Clone())
	}
	return res
}

// Resolve maps a reference to a concrete configuration of an open project.
// The active sentinel is resolved against the project's current active configuration.
func (w *Workspace) Resolve(ref ConfigRef) (ConfigRef, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return resolveIn(w.projects, ref)
}

// Same reports whether two references resolve to the same configuration.
func (w *Workspace) Same(a, b ConfigRef) bool {
	ra, okA := w.Resolve(a)
	rb, okB := w.Resolve(b)
	return okA && okB && ra == rb
}

// view is a consistent copy of the workspace used for one build order computation.
type view struct {
	projects   map[string]*Project
	order      []string
	buildOrder []string
}

func (w *Workspace) view() view {
	w.mu.RLock()
	defer w.mu.RUnlock()

	v := view{
		projects:   make(map[string]*Project, len(w.projects)),
		order:      slices.Clone(w.order),
		buildOrder: slices.Clone(w.buildOrder),
	}
	for name, p := range w.projects {
		v.projects[name] = p
	}
	return v
}

func (v view) resolve(ref ConfigRef) (ConfigRef, bool) {
	return resolveIn(v.projects, ref)
}

func resolveIn(projects map[string]*Project, ref ConfigRef) (ConfigRef, bool) {
	p, ok := projects[ref.Project]
	if !ok || !p.Open {
		return ConfigRef{}, false
	}
	if ref.IsActive() {
		return p.ActiveRef(), true
	}
	if !p.HasConfig(ref.Name) {
		return ConfigRef{}, false
	}
	return ref, true
}
