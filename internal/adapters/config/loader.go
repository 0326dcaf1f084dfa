// Package config provides the workspace configuration loader for kiln.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Mode represents the configuration mode of kiln.
type Mode string

const (
	// ModeWorkspace indicates that kiln has a workfile.
	ModeWorkspace Mode = "workspace"
	// ModeStandalone indicates that kiln has only one project file.
	ModeStandalone Mode = "standalone"
)

// Loader implements ports.WorkspaceLoader using YAML files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds the nearest kiln.work.yaml above cwd, or failing that the nearest
// kiln.yaml, and reads the workspace it describes.
func (l *Loader) Load(cwd string) (*domain.WorkspaceSpec, error) {
	configPath, mode, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeStandalone:
		return l.loadStandalone(configPath)
	default:
		return l.loadWorkfile(configPath)
	}
}

func findConfiguration(cwd string) (string, Mode, error) {
	currentDir := cwd
	var standaloneCandidate string

	for {
		workfilePath := filepath.Join(currentDir, domain.WorkFileName)
		if _, err := os.Stat(workfilePath); err == nil {
			return workfilePath, ModeWorkspace, nil
		}

		if standaloneCandidate == "" {
			projectPath := filepath.Join(currentDir, domain.ProjectFileName)
			if _, err := os.Stat(projectPath); err == nil {
				standaloneCandidate = projectPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	if standaloneCandidate != "" {
		return standaloneCandidate, ModeStandalone, nil
	}
	return "", "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no configuration"), "cwd", cwd)
}

func (l *Loader) loadStandalone(configPath string) (*domain.WorkspaceSpec, error) {
	var file Projectfile
	if err := readAndUnmarshalYAML(configPath, &file); err != nil {
		return nil, err
	}

	root := resolveRoot(configPath, file.Root)
	if file.Project == "" {
		file.Project = filepath.Base(filepath.Dir(configPath))
	}

	project, err := buildProject(&file, filepath.Dir(configPath), ".")
	if err != nil {
		return nil, err
	}
	settings, err := buildSettings(file.Settings)
	if err != nil {
		return nil, err
	}

	return &domain.WorkspaceSpec{
		Root:     root,
		Projects: []*domain.Project{project},
		Settings: settings,
	}, nil
}

func (l *Loader) loadWorkfile(configPath string) (*domain.WorkspaceSpec, error) {
	var workfile Workfile
	if err := readAndUnmarshalYAML(configPath, &workfile); err != nil {
		return nil, err
	}

	root := resolveRoot(configPath, workfile.Root)
	projectPaths, err := resolveProjectPaths(root, workfile.Projects)
	if err != nil {
		return nil, err
	}

	settings, err := buildSettings(workfile.Settings)
	if err != nil {
		return nil, zerr.With(err, "file", domain.WorkFileName)
	}

	spec := &domain.WorkspaceSpec{
		Root:       root,
		BuildOrder: workfile.BuildOrder,
		Builders:   buildBuilderSpecs(workfile.Builders),
		Settings:   settings,
	}

	projectNames := make(map[string]string)
	for _, projectPath := range projectPaths {
		project, err := l.processProject(root, projectPath, projectNames)
		if err != nil {
			return nil, err
		}
		if project != nil {
			spec.Projects = append(spec.Projects, project)
		}
	}
	return spec, nil
}

func resolveProjectPaths(root string, patterns []string) ([]string, error) {
	projectPaths := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "glob pattern failed"), "pattern", pattern)
		}
		for _, match := range matches {
			projectPaths[match] = struct{}{}
		}
	}

	sortedPaths := make([]string, 0, len(projectPaths))
	for p := range projectPaths {
		sortedPaths = append(sortedPaths, p)
	}
	slices.Sort(sortedPaths)
	return sortedPaths, nil
}

func (l *Loader) processProject(root, projectPath string, projectNames map[string]string) (*domain.Project, error) {
	relPath, _ := filepath.Rel(root, projectPath)

	// Glob returns files too.
	info, err := os.Stat(projectPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "directory", relPath)
	}
	if !info.IsDir() {
		return nil, nil
	}

	filePath := filepath.Join(projectPath, domain.ProjectFileName)
	if _, statErr := os.Stat(filePath); os.IsNotExist(statErr) {
		l.Logger.Warn(fmt.Sprintf("%s missing in project %s, skipping", domain.ProjectFileName, relPath))
		return nil, nil
	}

	var file Projectfile
	if err := readAndUnmarshalYAML(filePath, &file); err != nil {
		return nil, zerr.With(err, "directory", relPath)
	}
	if file.Project == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrMissingProjectName, "invalid project file"), "directory", relPath)
	}

	if existing, exists := projectNames[file.Project]; exists {
		err := zerr.With(zerr.Wrap(domain.ErrDuplicateProjectName, "invalid workspace"), "project", file.Project)
		err = zerr.With(err, "first_occurrence", existing)
		return nil, zerr.With(err, "duplicate_at", relPath)
	}
	projectNames[file.Project] = relPath

	if file.Root != "" {
		l.Logger.Warn(fmt.Sprintf("'root' defined in %s is ignored in workspace mode", relPath))
	}
	if file.Settings != nil {
		l.Logger.Warn(fmt.Sprintf("'settings' defined in %s is ignored in workspace mode", relPath))
	}

	return buildProject(&file, projectPath, relPath)
}

func buildProject(file *Projectfile, location, relPath string) (*domain.Project, error) {
	if !domain.ValidateName(file.Project) {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidProjectName, "invalid project file"), "project", file.Project)
		return nil, zerr.With(err, "directory", relPath)
	}
	for _, c := range file.Configs {
		if !domain.ValidateName(c) {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidConfigName, "invalid project file"), "project", file.Project)
			return nil, zerr.With(err, "config", c)
		}
	}

	p := domain.NewProject(file.Project)
	p.Location = location
	p.Ignore = file.Ignore
	p.DynamicReferences = file.DynamicReferences
	if len(file.Configs) > 0 {
		p.Configs = file.Configs
		p.Active = file.Configs[0]
	}
	if file.Active != "" {
		if !slices.Contains(p.Configs, file.Active) {
			err := zerr.With(zerr.Wrap(domain.ErrConfigNotDeclared, "invalid active configuration"), "project", file.Project)
			return nil, zerr.With(err, "config", file.Active)
		}
		p.Active = file.Active
	}

	refs, err := buildReferences(file)
	if err != nil {
		return nil, err
	}
	p.References = refs

	for i, dto := range file.Builders {
		cmd, err := buildCommand(dto)
		if err != nil {
			err = zerr.With(err, "project", file.Project)
			return nil, zerr.With(err, "command", i)
		}
		p.Commands = append(p.Commands, cmd)
	}
	return p, nil
}

func buildReferences(file *Projectfile) (map[string][]domain.ConfigRef, error) {
	if len(file.References) == 0 {
		return nil, nil
	}

	refs := make(map[string][]domain.ConfigRef, len(file.References))
	for config, targets := range file.References {
		for _, target := range targets {
			ref, err := domain.ParseConfigRef(target)
			if err != nil {
				err = zerr.With(err, "project", file.Project)
				return nil, zerr.With(err, "config", config)
			}
			refs[config] = append(refs[config], ref)
		}
	}
	return refs, nil
}

func buildCommand(dto CommandDTO) (domain.BuildCommand, error) {
	if dto.Builder == "" {
		return domain.BuildCommand{}, zerr.Wrap(domain.ErrMissingBuilder, "invalid build command")
	}

	cmd := domain.BuildCommand{Builder: dto.Builder, Args: dto.Args}
	if dto.Triggers != nil {
		cmd.Configurable = true
		for _, name := range *dto.Triggers {
			kind, err := domain.ParseTriggerKind(name)
			if err != nil {
				return domain.BuildCommand{}, zerr.With(err, "builder", dto.Builder)
			}
			cmd.Triggers |= domain.NewTriggerSet(kind)
		}
	}
	return cmd, nil
}

// buildBuilderSpecs lists the declarations sorted by identifier.
func buildBuilderSpecs(dtos map[string]BuilderDTO) []domain.BuilderSpec {
	if len(dtos) == 0 {
		return nil
	}

	specs := make([]domain.BuilderSpec, 0, len(dtos))
	for id, dto := range dtos {
		kind := dto.Kind
		if kind == "" {
			kind = id
		}
		specs = append(specs, domain.BuilderSpec{ID: id, Kind: kind, CallOnEmptyDelta: dto.CallOnEmptyDelta})
	}
	slices.SortFunc(specs, func(a, b domain.BuilderSpec) int {
		return strings.Compare(a.ID, b.ID)
	})
	return specs
}

func buildSettings(dto *SettingsDTO) (domain.Settings, error) {
	s := domain.DefaultSettings()
	if dto == nil {
		return s, nil
	}

	if dto.MaxConcurrentBuilds != nil {
		s.MaxConcurrentBuilds = *dto.MaxConcurrentBuilds
	}
	if dto.MaxBuildIterations != nil {
		s.MaxBuildIterations = *dto.MaxBuildIterations
	}
	if dto.AutoBuilding != nil {
		s.AutoBuilding = *dto.AutoBuilding
	}
	if dto.AutoBuildDelay != "" {
		d, err := time.ParseDuration(dto.AutoBuildDelay)
		if err != nil {
			return domain.Settings{}, zerr.With(zerr.Wrap(domain.ErrInvalidDuration, "invalid settings"), "autoBuildDelay", dto.AutoBuildDelay)
		}
		s.AutoBuildDelay = d
	}
	return s.Normalize(), nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "file", configPath)
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.With(zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error()), "file", configPath)
	}
	return nil
}
