// Package provider abstracts file system access so scans can run
// against the real disk or an in-memory tree in tests.
package provider

// Provider defines the interface for file system operations
type Provider interface {
	// ListDir returns the contents of a directory
	ListDir(path string) ([]File, error)

	// Exists checks if a file or directory exists
	Exists(path string) (bool, error)

	// IsDir checks if a path is a directory
	IsDir(path string) (bool, error)

	// ReadFile reads file content as bytes
	ReadFile(path string) ([]byte, error)

	// RealPath resolves symlinks to a canonical path. Paths that do
	// not resolve are returned unchanged.
	RealPath(path string) string

	// GetBasePath returns the base path for this provider
	GetBasePath() string
}

// File represents a file or directory entry
type File struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"` // "file" or "dir"
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
}
