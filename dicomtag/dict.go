package dicomtag

import (
	"fmt"
	"io"

	dcmtag "github.com/suyashkumar/dicom/pkg/tag"
	"gopkg.in/yaml.v3"
)

// UnknownName is the label given to tags that no dictionary knows.
const UnknownName = "UNKNOWN"

// Dictionary maps a tag to a human-readable element name. Lookup returns
// UnknownName for absent tags.
type Dictionary interface {
	Lookup(t Tag) string
}

type standardDictionary struct{}

// Standard is the DICOM data dictionary shipped with github.com/suyashkumar/dicom.
var Standard Dictionary = standardDictionary{}

func (standardDictionary) Lookup(t Tag) string {
	info, err := dcmtag.Find(dcmtag.Tag{Group: t.Group, Element: t.Element})
	if err != nil || info.Name == "" {
		return UnknownName
	}
	return info.Name
}

// MapDictionary is a dictionary held in memory, e.g. loaded from a
// dicom_elements.json style file.
type MapDictionary map[Tag]string

func (m MapDictionary) Lookup(t Tag) string {
	if name, ok := m[t]; ok && name != "" {
		return name
	}
	return UnknownName
}

// LoadDictionary reads a mapping from 8 hex digit tags to names:
//
//	{"00280010": "Rows", "00280011": "Columns"}
//
// JSON is accepted as well as YAML.
func LoadDictionary(r io.Reader) (MapDictionary, error) {
	var raw map[string]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("dicomtag.LoadDictionary: %w", err)
	}
	dict := make(MapDictionary, len(raw))
	for key, name := range raw {
		t, err := ParseTag(key)
		if err != nil {
			return nil, fmt.Errorf("dicomtag.LoadDictionary: key %q: %w", key, err)
		}
		dict[t] = name
	}
	return dict, nil
}

type chain []Dictionary

// Chain returns a dictionary that asks each of dicts in order and keeps the
// first known name.
func Chain(dicts ...Dictionary) Dictionary {
	return chain(dicts)
}

func (c chain) Lookup(t Tag) string {
	for _, d := range c {
		if d == nil {
			continue
		}
		if name := d.Lookup(t); name != UnknownName {
			return name
		}
	}
	return UnknownName
}
