// Package reader parses flat-file payloads into normalized tabular datasets.
//
// Each supported encoding registers a Format; new encodings are added by
// registration rather than by extending a conditional chain.
package reader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for an unrecognized format tag.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParseError wraps a format-specific parse failure.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Format parses raw bytes of one encoding into a dataset.
type Format interface {
	// Tags lists the file-type tags this format handles.
	Tags() []string
	Read(raw []byte) (*Dataset, error)
}

// Registry maps format tags to implementations.
type Registry struct {
	formats map[string]Format
}

// NewRegistry returns a registry with all built-in formats registered.
func NewRegistry() *Registry {
	r := &Registry{formats: make(map[string]Format)}
	r.Register(csvFormat{})
	r.Register(parquetFormat{})
	r.Register(excelFormat{})
	r.Register(xmlFormat{})
	r.Register(yamlFormat{})
	r.Register(jsonFormat{})
	return r
}

// Register adds a format under each of its tags.
func (r *Registry) Register(f Format) {
	for _, tag := range f.Tags() {
		r.formats[tag] = f
	}
}

// Read parses raw into a dataset using the format registered for tag.
func (r *Registry) Read(raw []byte, tag string) (*Dataset, error) {
	key := strings.ToLower(strings.TrimSpace(tag))
	f, ok := r.formats[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, tag)
	}
	ds, err := f.Read(raw)
	if err != nil {
		return nil, &ParseError{Format: key, Err: err}
	}
	return ds, nil
}
