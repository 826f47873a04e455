// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"strings"

	"github.com/spf13/afero"
)

// FindFilesByExtension recursively searches the given root path for all files
// ending with the specified extension. A path pointing at a single matching
// file is returned as-is. It returns a slice of full paths.
func FindFilesByExtension(fsys afero.Fs, rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	info, err := fsys.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if strings.HasSuffix(rootPath, extension) {
			return []string{rootPath}, nil
		}
		return nil, nil
	}

	var files []string
	err = afero.Walk(fsys, rootPath, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
