package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/midgard-thumbnails/pkg/grf"
)

// ErrNotFound is returned when no source holds the requested file.
var ErrNotFound = errors.New("asset not found")

// Source reads files by their archive-style path (forward or back slashes,
// for example "data/model/prontera/fountain.rsm"). *grf.Archive is a Source.
type Source interface {
	Read(path string) ([]byte, error)
}

var _ Source = (*grf.Archive)(nil)

// DirSource reads files below a directory on disk.
type DirSource struct {
	Root string
}

// Read reads path relative to Root. Paths that leave Root are not found.
func (d DirSource) Read(path string) ([]byte, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(path, "\\", "/"))
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	data, err := os.ReadFile(filepath.Join(d.Root, rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, err
}

func (d DirSource) String() string {
	return d.Root
}

// MultiSource searches its sources in order and returns the first hit.
type MultiSource []Source

// Read returns the file from the first source that has it. When every
// source misses, the error wraps ErrNotFound; other failures are returned
// only if no later source succeeds.
func (m MultiSource) Read(path string) ([]byte, error) {
	var firstErr error
	for _, src := range m {
		data, err := src.Read(path)
		if err == nil {
			return data, nil
		}
		if !isNotFound(err) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, grf.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// OpenSources builds the search order used by the tools: directories
// first, then GRF archives, each in the given order. The returned close
// function closes every opened archive.
func OpenSources(dirs, grfPaths []string) (MultiSource, func() error, error) {
	var src MultiSource
	var archives []*grf.Archive
	closeAll := func() error {
		var errs []error
		for _, a := range archives {
			errs = append(errs, a.Close())
		}
		return errors.Join(errs...)
	}

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening data dir: %w", err)
		}
		if !info.IsDir() {
			closeAll()
			return nil, nil, fmt.Errorf("opening data dir: %s is not a directory", dir)
		}
		src = append(src, DirSource{Root: dir})
	}

	for _, p := range grfPaths {
		a, err := grf.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening archive %s: %w", p, err)
		}
		archives = append(archives, a)
	}
	for _, a := range archives {
		src = append(src, a)
	}

	return src, closeAll, nil
}
