package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrImageMapping is returned for image mapping JSON that is not an
// object of strings.
var ErrImageMapping = errors.New("convert: image mapping must be a JSON object of marker to path strings")

// ImageEntry maps one marker to an image file.
type ImageEntry struct {
	Marker string
	Path   string
}

// ImageMapping is an ordered marker to image path mapping. Markers are
// resolved in the order they appear in the source JSON.
type ImageMapping struct {
	entries []ImageEntry
	index   map[string]int
}

// NewImageMapping builds a mapping from entries in order. A repeated
// marker keeps its first position and takes the last path.
func NewImageMapping(entries ...ImageEntry) *ImageMapping {
	m := &ImageMapping{index: make(map[string]int)}
	for _, e := range entries {
		m.Set(e.Marker, e.Path)
	}
	return m
}

// Set maps marker to path.
func (m *ImageMapping) Set(marker, path string) {
	if i, ok := m.index[marker]; ok {
		m.entries[i].Path = path
		return
	}
	m.index[marker] = len(m.entries)
	m.entries = append(m.entries, ImageEntry{Marker: marker, Path: path})
}

// Entries returns the entries in order.
func (m *ImageMapping) Entries() []ImageEntry {
	if m == nil {
		return nil
	}
	out := make([]ImageEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of markers.
func (m *ImageMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// ParseImageMappingJSON decodes a JSON object of marker to path strings,
// keeping key order. A null document yields an empty mapping.
func ParseImageMappingJSON(data []byte) (*ImageMapping, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageMapping, err)
	}
	m := NewImageMapping()
	if tok == nil {
		return m, trailing(dec)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrImageMapping
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImageMapping, err)
		}
		marker := tok.(string)

		var path string
		if err := dec.Decode(&path); err != nil {
			return nil, fmt.Errorf("%w: value for %q: %v", ErrImageMapping, marker, err)
		}
		m.Set(marker, path)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageMapping, err)
	}
	return m, trailing(dec)
}

func trailing(dec *json.Decoder) error {
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data", ErrImageMapping)
	}
	return nil
}
