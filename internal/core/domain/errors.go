package domain

import "go.trai.ch/zerr"

var (
	// ErrMissingProjectName is returned when a project file does not declare a project name.
	ErrMissingProjectName = zerr.New("missing project name")

	// ErrInvalidProjectName is returned when a project name is invalid.
	ErrInvalidProjectName = zerr.New("project name can only contain alphanumeric characters, hyphens and underscores")

	// ErrInvalidConfigName is returned when a build configuration name is invalid.
	ErrInvalidConfigName = zerr.New("configuration name can only contain alphanumeric characters, hyphens and underscores")

	// ErrDuplicateProjectName is returned when multiple projects share the same name in a workspace.
	ErrDuplicateProjectName = zerr.New("duplicate project name")

	// ErrDuplicateConfigName is returned when a project declares the same configuration twice.
	ErrDuplicateConfigName = zerr.New("duplicate configuration name")

	// ErrProjectNotFound is returned when a project is not registered in the workspace.
	ErrProjectNotFound = zerr.New("project not found")

	// ErrConfigNotDeclared is returned when a project does not declare the requested configuration.
	ErrConfigNotDeclared = zerr.New("configuration not declared by project")

	// ErrInvalidConfigRef is returned when a configuration reference cannot be parsed.
	ErrInvalidConfigRef = zerr.New("invalid configuration reference, expected project or project:config")

	// ErrInvalidTrigger is returned when a trigger kind name is not recognized.
	ErrInvalidTrigger = zerr.New("invalid trigger, expected one of auto, full, incremental, clean")

	// ErrMissingBuilder is returned when a build command has no builder identifier.
	ErrMissingBuilder = zerr.New("build command is missing a builder")

	// ErrBuilderNotFound is returned when no factory is registered for a builder identifier.
	ErrBuilderNotFound = zerr.New("builder not registered")

	// ErrBuilderAlreadyRegistered is returned when a builder identifier is registered twice.
	ErrBuilderAlreadyRegistered = zerr.New("builder already registered")

	// ErrInvalidRegistration is returned when a builder registration lacks an identifier or factory.
	ErrInvalidRegistration = zerr.New("builder registration requires an identifier and a factory")

	// ErrBuilderKindNotFound is returned when a workspace names a builder kind that is not available.
	ErrBuilderKindNotFound = zerr.New("builder kind not available")

	// ErrBuilderInstantiation is returned when a builder factory fails to create an instance.
	ErrBuilderInstantiation = zerr.New("failed to instantiate builder")

	// ErrMissingBuilderArg is returned when a builder is configured without a required argument.
	ErrMissingBuilderArg = zerr.New("missing required builder argument")

	// ErrInvalidRule is returned when a builder argument names an unknown scheduling rule.
	ErrInvalidRule = zerr.New("invalid scheduling rule, expected workspace, project, path:<dir> or none")

	// ErrUnitFailed is returned when a single builder invocation fails.
	ErrUnitFailed = zerr.New("builder failed")

	// ErrBuildFailed is returned when at least one unit of an invocation failed.
	ErrBuildFailed = zerr.New("build failed")

	// ErrBuildCanceled is returned when an invocation was stopped by its caller.
	ErrBuildCanceled = zerr.New("build canceled")

	// ErrSchedulerSuspended is returned by waiters when the scheduler is suspended with work pending.
	ErrSchedulerSuspended = zerr.New("scheduler is suspended")

	// ErrWaitTimeout is returned when waiting for the auto-build exceeds the caller's timeout.
	ErrWaitTimeout = zerr.New("timed out waiting for auto-build")

	// ErrSnapshotFailed is returned when the resource tree of a project cannot be captured.
	ErrSnapshotFailed = zerr.New("failed to snapshot project tree")

	// ErrStoreCreateFailed is returned when the build state store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build state store directory")

	// ErrStoreReadFailed is returned when persisted build state cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build state")

	// ErrStoreDecodeFailed is returned when persisted build state cannot be decoded.
	ErrStoreDecodeFailed = zerr.New("failed to decode build state")

	// ErrStoreEncodeFailed is returned when build state cannot be encoded.
	ErrStoreEncodeFailed = zerr.New("failed to encode build state")

	// ErrStoreWriteFailed is returned when build state cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build state")

	// ErrStoreDeleteFailed is returned when persisted build state cannot be removed.
	ErrStoreDeleteFailed = zerr.New("failed to delete build state")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when the config file cannot be found.
	ErrConfigNotFound = zerr.New("could not find kiln.yaml or kiln.work.yaml")

	// ErrInvalidDuration is returned when a settings duration cannot be parsed.
	ErrInvalidDuration = zerr.New("invalid duration")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrWatcherFailed is returned when the file system watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to watch workspace")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")
)
