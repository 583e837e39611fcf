package provider

import (
	"os"
	"path/filepath"
	"strings"
)

// FSProvider implements the Provider interface for local file systems
type FSProvider struct {
	rootPath string
}

// NewFSProvider creates a new file system provider
func NewFSProvider(rootPath string) *FSProvider {
	return &FSProvider{
		rootPath: strings.TrimSuffix(rootPath, "/"),
	}
}

// ListDir returns the contents of a directory
func (p *FSProvider) ListDir(path string) ([]File, error) {
	fullPath := p.getFullPath(path)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(entries))

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // Skip entries we can't get info for
		}

		fileType := "file"
		if entry.IsDir() {
			fileType = "dir"
		} else if info.Mode()&os.ModeSymlink != 0 {
			// a symlinked directory walks like a directory
			if target, err := os.Stat(fullPath + string(os.PathSeparator) + entry.Name()); err == nil && target.IsDir() {
				fileType = "dir"
			}
		}

		files = append(files, File{
			Name:     entry.Name(),
			Path:     filepath.Join(path, entry.Name()),
			Type:     fileType,
			Size:     info.Size(),
			Modified: info.ModTime().Unix(),
		})
	}

	return files, nil
}

// ReadFile reads file content as bytes
func (p *FSProvider) ReadFile(path string) ([]byte, error) {
	fullPath := p.getFullPath(path)
	return os.ReadFile(fullPath)
}

// Exists checks if a file or directory exists
func (p *FSProvider) Exists(path string) (bool, error) {
	fullPath := p.getFullPath(path)
	_, err := os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsDir checks if a path is a directory
func (p *FSProvider) IsDir(path string) (bool, error) {
	fullPath := p.getFullPath(path)
	info, err := os.Stat(fullPath)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// RealPath resolves symlinks to a canonical absolute path
func (p *FSProvider) RealPath(path string) string {
	fullPath := p.getFullPath(path)
	resolved, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		return fullPath
	}
	return resolved
}

// getFullPath converts a relative path to an absolute path
func (p *FSProvider) getFullPath(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}

	if path == "." || path == "" {
		return p.rootPath
	}

	return filepath.Join(p.rootPath, path)
}

// GetBasePath returns the base path for this provider
func (p *FSProvider) GetBasePath() string {
	return p.rootPath
}
