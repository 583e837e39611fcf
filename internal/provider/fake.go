package provider

import (
	"path/filepath"
	"sort"
)

// FakeProvider implements the Provider interface for testing
type FakeProvider struct {
	files   map[string][]File
	content map[string]string
	aliases map[string]string
}

// NewFakeProvider creates a new fake provider
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		files:   make(map[string][]File),
		content: make(map[string]string),
		aliases: make(map[string]string),
	}
}

// AddFile adds a file to the fake provider, creating parent
// directories as needed
func (p *FakeProvider) AddFile(path, content string) {
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	p.ensureDir(dir)

	filename := filepath.Base(path)
	p.files[dir] = append(p.files[dir], File{
		Name: filename,
		Path: path,
		Type: "file",
		Size: int64(len(content)),
	})

	p.content[path] = content
}

// AddDir adds a directory to the fake provider
func (p *FakeProvider) AddDir(path string) {
	p.ensureDir(path)
}

// AddDirAlias makes alias behave like a symlink to target, sharing
// target's listing and canonical path. Used to simulate link cycles.
func (p *FakeProvider) AddDirAlias(alias, target string) {
	dir := filepath.Dir(alias)
	if dir == "" {
		dir = "."
	}
	p.ensureDir(dir)
	p.files[dir] = append(p.files[dir], File{
		Name: filepath.Base(alias),
		Path: alias,
		Type: "dir",
	})
	p.aliases[alias] = target
}

func (p *FakeProvider) ensureDir(path string) {
	if path == "" {
		path = "."
	}
	if _, ok := p.files[path]; ok {
		return
	}
	p.files[path] = make([]File, 0)

	// register the directory with its parent so walks can reach it
	if path != "." && path != "/" {
		parent := filepath.Dir(path)
		p.ensureDir(parent)
		p.files[parent] = append(p.files[parent], File{
			Name: filepath.Base(path),
			Path: path,
			Type: "dir",
		})
	}
}

// ListDir returns the contents of a directory
func (p *FakeProvider) ListDir(path string) ([]File, error) {
	files, exists := p.files[p.resolve(path)]
	if !exists {
		return nil, nil // Directory doesn't exist
	}
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted, nil
}

// ReadFile reads file content as bytes
func (p *FakeProvider) ReadFile(path string) ([]byte, error) {
	content, exists := p.content[p.resolve(path)]
	if !exists {
		return nil, nil
	}
	return []byte(content), nil
}

// Exists checks if a file or directory exists
func (p *FakeProvider) Exists(path string) (bool, error) {
	resolved := p.resolve(path)
	_, fileExists := p.content[resolved]
	_, dirExists := p.files[resolved]
	return fileExists || dirExists, nil
}

// IsDir checks if a path is a directory
func (p *FakeProvider) IsDir(path string) (bool, error) {
	_, exists := p.files[p.resolve(path)]
	return exists, nil
}

// RealPath resolves directory aliases to their target path
func (p *FakeProvider) RealPath(path string) string {
	return p.resolve(path)
}

// GetBasePath returns the base path for this provider
func (p *FakeProvider) GetBasePath() string {
	return "."
}

func (p *FakeProvider) resolve(path string) string {
	seen := map[string]bool{}
	for {
		target, ok := p.aliases[path]
		if !ok || seen[path] {
			return path
		}
		seen[path] = true
		path = target
	}
}
