package collector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrRead wraps failures to open or read an input file.
	ErrRead = errors.New("read input file")
	// ErrNoInput is returned when a folder holds no eligible file.
	ErrNoInput = errors.New("no input files")
)

// InputFile is one case file reduced to text, keyed by its display name.
type InputFile struct {
	Name string
	Text string
}

// ReadFiles reads the given paths in order. PDFs are converted to text;
// everything else is read as-is.
func ReadFiles(paths []string) ([]InputFile, error) {
	files := make([]InputFile, 0, len(paths))
	for _, p := range paths {
		f, err := readFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ReadFolder reads every .txt and .pdf regular file directly inside dir,
// ordered by file name. Subdirectories and other extensions are skipped.
func ReadFolder(dir string) ([]InputFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	var files []InputFile
	for _, e := range entries {
		if !Included(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		// Stat follows symlinks, so a link to a regular file is kept.
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRead, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		f, err := readFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .txt or .pdf files in %s", ErrNoInput, dir)
	}
	return files, nil
}

// Included reports whether a folder entry is picked up by ReadFolder.
func Included(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".pdf":
		return true
	default:
		return false
	}
}

// Decode turns raw bytes into an InputFile, extracting text from PDFs.
func Decode(name string, data []byte) (InputFile, error) {
	if isPDF(name) {
		text, err := extractPDF(data)
		if err != nil {
			return InputFile{}, fmt.Errorf("%s: %w", name, err)
		}
		return InputFile{Name: name, Text: text}, nil
	}
	return InputFile{Name: name, Text: string(data)}, nil
}

func readFile(path string) (InputFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return InputFile{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return Decode(filepath.Base(path), data)
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
