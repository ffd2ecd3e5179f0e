// Package loader turns raw file bytes into tables. Each supported format is a
// Handler; the handler is chosen from the file name's extension.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/koba/table-diff/internal/schema"
)

var (
	// ErrUnsupportedFileType is returned when no handler accepts the file extension
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrMalformedRow is returned when a delimited row cannot be parsed or has the wrong width
	ErrMalformedRow = errors.New("malformed row")

	// ErrNoColumns is returned when the input yields no columns at all
	ErrNoColumns = errors.New("no columns to parse from file")

	// ErrSheetRequired is returned when a multi-sheet source is read without a sheet name
	ErrSheetRequired = errors.New("sheet name is required")

	// ErrSheetNotFound is returned when the requested sheet does not exist
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrUnsupportedJSON is returned when a JSON document has no tabular reading
	ErrUnsupportedJSON = errors.New("unsupported JSON document")
)

// File is a named byte source, typically an uploaded or local file
type File struct {
	Name string
	Data []byte
}

// ReadFile reads a local file into a File
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Options is format-specific metadata available before a read
type Options struct {
	Sheets []string `json:"sheets,omitempty" yaml:"sheets,omitempty"`
}

// ReadOptions selects what to read from a file
type ReadOptions struct {
	Sheet string
}

// Handler reads one file format
type Handler interface {
	Name() string
	Extensions() []string
	CanHandle(name string) bool
	Options(f File) (Options, error)
	Read(f File, opts ReadOptions) (*schema.Table, error)
}

// handlers in lookup priority order
var handlers = []Handler{
	CSV{},
	Excel{},
	JSON{},
	Parquet{},
	SQLite{},
}

// Handlers returns the registered handlers in lookup order
func Handlers() []Handler {
	return append([]Handler(nil), handlers...)
}

// HandlerFor returns the first handler accepting the file name
func HandlerFor(name string) (Handler, error) {
	for _, h := range handlers {
		if h.CanHandle(name) {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(name))
}

// FileOptions returns the pre-read metadata of a file, such as its sheet list
func FileOptions(f File) (Options, error) {
	h, err := HandlerFor(f.Name)
	if err != nil {
		return Options{}, err
	}
	return h.Options(f)
}

// Load reads a file with the handler matching its name
func Load(f File, opts ReadOptions) (*schema.Table, error) {
	h, err := HandlerFor(f.Name)
	if err != nil {
		return nil, err
	}

	t, err := h.Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s as %s: %w", f.Name, h.Name(), err)
	}
	if t.ColumnCount() == 0 {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, ErrNoColumns)
	}
	return t, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func tableName(f File, sheet string) string {
	if sheet == "" {
		return f.Name
	}
	return f.Name + ":" + sheet
}

// uniqueHeaders names blank headers "Unnamed: i" and suffixes repeated
// names with ".1", ".2", ...
func uniqueHeaders(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for n := 1; seen[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}
