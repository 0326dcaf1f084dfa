package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func createFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), domain.FilePerm))
}

func newLoader(t *testing.T) (*config.Loader, *[]string) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	var warnings []string
	mockLogger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		warnings = append(warnings, msg)
	}).AnyTimes()
	return config.NewLoader(mockLogger), &warnings
}

func TestLoader_Load_Workspace(t *testing.T) {
	loader, warnings := newLoader(t)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.WorkFileName, `
version: "1"
projects:
  - "libs/*"
  - "app"
buildOrder: [app]
builders:
  exec:
    kind: exec
  codegen:
    kind: exec
    callOnEmptyDelta: true
settings:
  maxConcurrentBuilds: 4
  maxBuildIterations: 3
  autoBuildDelay: 250ms
  autoBuilding: false
`)
	createFile(t, filepath.Join(rootDir, "libs", "core"), domain.ProjectFileName, `
project: core
configs: [debug, release]
active: release
ignore: ["*.tmp"]
builders:
  - builder: exec
    args:
      cmd: make
`)
	createFile(t, filepath.Join(rootDir, "app"), domain.ProjectFileName, `
project: app
references:
  default: ["core", "core:debug"]
dynamicReferences: [core]
builders:
  - builder: codegen
    triggers: [full, clean]
  - builder: exec
    args:
      cmd: go build ./...
`)
	// Directories without a project file are skipped with a warning.
	require.NoError(t, os.MkdirAll(filepath.Join(rootDir, "libs", "empty"), domain.DirPerm))

	spec, err := loader.Load(filepath.Join(rootDir, "libs", "core"))
	require.NoError(t, err)

	assert.Equal(t, rootDir, spec.Root)
	assert.Equal(t, []string{"app"}, spec.BuildOrder)
	assert.Equal(t, []domain.BuilderSpec{
		{ID: "codegen", Kind: "exec", CallOnEmptyDelta: true},
		{ID: "exec", Kind: "exec"},
	}, spec.Builders)
	assert.Equal(t, domain.Settings{
		MaxConcurrentBuilds: 4,
		MaxBuildIterations:  3,
		AutoBuildDelay:      250 * time.Millisecond,
		AutoBuilding:        false,
	}, spec.Settings)

	require.Len(t, spec.Projects, 2)
	app, core := spec.Projects[0], spec.Projects[1]

	assert.Equal(t, "app", app.Name)
	assert.Equal(t, filepath.Join(rootDir, "app"), app.Location)
	assert.Equal(t, []string{domain.DefaultConfig}, app.Configs)
	assert.Equal(t, []domain.ConfigRef{
		domain.ActiveConfigOf("core"),
		domain.NewConfigRef("core", "debug"),
	}, app.References[domain.DefaultConfig])
	assert.Equal(t, []string{"core"}, app.DynamicReferences)
	require.Len(t, app.Commands, 2)
	assert.True(t, app.Commands[0].Configurable)
	assert.True(t, app.Commands[0].Builds(domain.TriggerFull))
	assert.True(t, app.Commands[0].Builds(domain.TriggerClean))
	assert.False(t, app.Commands[0].Builds(domain.TriggerAuto))
	assert.False(t, app.Commands[1].Configurable)
	assert.Equal(t, map[string]string{"cmd": "go build ./..."}, app.Commands[1].Args)

	assert.Equal(t, "core", core.Name)
	assert.Equal(t, []string{"debug", "release"}, core.Configs)
	assert.Equal(t, "release", core.Active)
	assert.Equal(t, []string{"*.tmp"}, core.Ignore)
	assert.True(t, core.Open)

	assert.Len(t, *warnings, 1)
	assert.Contains(t, (*warnings)[0], filepath.Join("libs", "empty"))
}

func TestLoader_Load_Standalone(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	projectDir := filepath.Join(rootDir, "tool")

	createFile(t, projectDir, domain.ProjectFileName, `
builders:
  - builder: exec
    args:
      cmd: ./build.sh
settings:
  maxBuildIterations: 2
`)

	spec, err := loader.Load(projectDir)
	require.NoError(t, err)

	assert.Equal(t, projectDir, spec.Root)
	assert.Nil(t, spec.Builders)
	require.Len(t, spec.Projects, 1)
	assert.Equal(t, "tool", spec.Projects[0].Name)
	assert.Equal(t, projectDir, spec.Projects[0].Location)
	assert.Equal(t, 2, spec.Settings.MaxBuildIterations)
	assert.Equal(t, domain.DefaultAutoBuildDelay, spec.Settings.AutoBuildDelay)
	assert.True(t, spec.Settings.AutoBuilding)
}

func TestLoader_Load_WorkfileWinsOverNearerProjectFile(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.WorkFileName, `projects: ["p"]`)
	createFile(t, filepath.Join(rootDir, "p"), domain.ProjectFileName, `project: p`)

	spec, err := loader.Load(filepath.Join(rootDir, "p"))
	require.NoError(t, err)
	assert.Equal(t, rootDir, spec.Root)
}

func TestLoader_Load_NotFound(t *testing.T) {
	loader, _ := newLoader(t)

	_, err := loader.Load(t.TempDir())
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoader_Load_ProjectWarnings(t *testing.T) {
	loader, warnings := newLoader(t)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.WorkFileName, `projects: ["p"]`)
	createFile(t, filepath.Join(rootDir, "p"), domain.ProjectFileName, `
project: p
root: ..
settings:
  autoBuilding: false
`)

	_, err := loader.Load(rootDir)
	require.NoError(t, err)
	assert.Len(t, *warnings, 2)
}

func TestLoader_Load_Validation(t *testing.T) {
	tests := []struct {
		name    string
		project string
		errIs   error
		errMsg  string
	}{
		{
			name:    "missing project name",
			project: `configs: [a]`,
			errIs:   domain.ErrMissingProjectName,
		},
		{
			name:    "invalid project name",
			project: `project: "my app"`,
			errIs:   domain.ErrInvalidProjectName,
		},
		{
			name:    "invalid config name",
			project: "project: p\nconfigs: [\"a:b\"]",
			errIs:   domain.ErrInvalidConfigName,
		},
		{
			name:    "unknown active config",
			project: "project: p\nconfigs: [a]\nactive: b",
			errIs:   domain.ErrConfigNotDeclared,
		},
		{
			name:    "unknown trigger",
			project: "project: p\nbuilders:\n  - builder: exec\n    triggers: [sometimes]",
			errIs:   domain.ErrInvalidTrigger,
		},
		{
			name:    "missing builder",
			project: "project: p\nbuilders:\n  - args: {cmd: make}",
			errIs:   domain.ErrMissingBuilder,
		},
		{
			name:    "malformed reference",
			project: "project: p\nreferences:\n  default: [\":x\"]",
			errIs:   domain.ErrInvalidConfigRef,
		},
		{
			name:    "malformed yaml",
			project: "project: [",
			errMsg:  domain.ErrConfigParseFailed.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _ := newLoader(t)
			rootDir := t.TempDir()
			createFile(t, rootDir, domain.WorkFileName, `projects: ["p"]`)
			createFile(t, filepath.Join(rootDir, "p"), domain.ProjectFileName, tt.project)

			_, err := loader.Load(rootDir)
			require.Error(t, err)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			}
			if tt.errMsg != "" {
				require.ErrorContains(t, err, tt.errMsg)
			}
		})
	}
}

func TestLoader_Load_DuplicateProjectName(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.WorkFileName, `projects: ["a", "b"]`)
	createFile(t, filepath.Join(rootDir, "a"), domain.ProjectFileName, `project: same`)
	createFile(t, filepath.Join(rootDir, "b"), domain.ProjectFileName, `project: same`)

	_, err := loader.Load(rootDir)
	require.ErrorIs(t, err, domain.ErrDuplicateProjectName)
}

func TestLoader_Load_InvalidDuration(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()

	createFile(t, rootDir, domain.WorkFileName, "settings:\n  autoBuildDelay: soon")

	_, err := loader.Load(rootDir)
	require.ErrorIs(t, err, domain.ErrInvalidDuration)
}
