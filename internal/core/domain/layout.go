package domain

import "path/filepath"

const (
	// KilnDirName is the name of the internal workspace directory.
	KilnDirName = ".kiln"

	// StateDirName is the name of the persisted build state directory.
	StateDirName = "state"

	// ProjectFileName is the name of the project configuration file.
	ProjectFileName = "kiln.yaml"

	// WorkFileName is the name of the workspace configuration file.
	WorkFileName = "kiln.work.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultKilnPath returns the default root directory for kiln metadata.
func DefaultKilnPath() string {
	return KilnDirName
}

// DefaultStatePath returns the default path for persisted build state.
// It joins .kiln and state.
func DefaultStatePath() string {
	return filepath.Join(KilnDirName, StateDirName)
}
