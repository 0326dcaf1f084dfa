package config

// Workfile represents the structure of the kiln.work.yaml configuration file.
type Workfile struct {
	Version    string                `yaml:"version"`
	Root       string                `yaml:"root"`
	Projects   []string              `yaml:"projects"`
	BuildOrder []string              `yaml:"buildOrder"`
	Builders   map[string]BuilderDTO `yaml:"builders"`
	Settings   *SettingsDTO          `yaml:"settings"`
}

// BuilderDTO binds a builder identifier to a builder kind.
type BuilderDTO struct {
	Kind             string `yaml:"kind"`
	CallOnEmptyDelta bool   `yaml:"callOnEmptyDelta"`
}

// SettingsDTO holds the engine settings. Unset fields keep their defaults.
type SettingsDTO struct {
	MaxConcurrentBuilds *int   `yaml:"maxConcurrentBuilds"`
	MaxBuildIterations  *int   `yaml:"maxBuildIterations"`
	AutoBuildDelay      string `yaml:"autoBuildDelay"`
	AutoBuilding        *bool  `yaml:"autoBuilding"`
}

// Projectfile represents the structure of the kiln.yaml configuration file.
type Projectfile struct {
	Version           string              `yaml:"version"`
	Project           string              `yaml:"project"`
	Root              string              `yaml:"root"`
	Configs           []string            `yaml:"configs"`
	Active            string              `yaml:"active"`
	References        map[string][]string `yaml:"references"`
	DynamicReferences []string            `yaml:"dynamicReferences"`
	Ignore            []string            `yaml:"ignore"`
	Builders          []CommandDTO        `yaml:"builders"`
	Settings          *SettingsDTO        `yaml:"settings"`
}

// CommandDTO represents a build command in the configuration. A command
// listing triggers only runs for those trigger kinds.
type CommandDTO struct {
	Builder  string            `yaml:"builder"`
	Args     map[string]string `yaml:"args"`
	Triggers *[]string         `yaml:"triggers"`
}
