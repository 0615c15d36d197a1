package sources

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NotFoundError reports an unknown source or page type identifier. It is
// the first validation gate of a scrape job and fires before any browser
// or store resource is touched.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

// IsNotFound reports whether err is a registry lookup failure.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Registry is the immutable catalog of configured sources, loaded once at
// process start.
type Registry struct {
	sources []Source
	index   map[string]int
}

// NewRegistry validates the catalog and builds the lookup index.
func NewRegistry(catalog []Source) (*Registry, error) {
	index := make(map[string]int, len(catalog))
	for i, src := range catalog {
		if err := src.Validate(); err != nil {
			return nil, err
		}
		if _, dup := index[src.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %s", src.ID)
		}
		index[src.ID] = i
	}
	return &Registry{sources: catalog, index: index}, nil
}

// Default returns a registry over the built-in catalog.
func Default() *Registry {
	reg, err := NewRegistry(DefaultCatalog())
	if err != nil {
		// The built-in catalog is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return reg
}

// LoadCatalog reads a source catalog from a YAML file.
func LoadCatalog(path string) ([]Source, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer fh.Close()

	var doc struct {
		Sources []Source `yaml:"sources"`
	}
	dec := yaml.NewDecoder(fh)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode sources file: %w", err)
	}
	return doc.Sources, nil
}

// Lookup returns the source configuration for the given id.
func (r *Registry) Lookup(sourceID string) (Source, error) {
	i, ok := r.index[sourceID]
	if !ok {
		return Source{}, &NotFoundError{Kind: "source", ID: sourceID}
	}
	return r.sources[i], nil
}

// LookupType returns the source and one of its page types.
func (r *Registry) LookupType(sourceID, typeID string) (Source, PageType, error) {
	src, err := r.Lookup(sourceID)
	if err != nil {
		return Source{}, PageType{}, err
	}
	for _, pt := range src.Types {
		if pt.ID == typeID {
			return src, pt, nil
		}
	}
	return Source{}, PageType{}, &NotFoundError{Kind: "page type", ID: typeID}
}

// TypeSummary is the listing projection of one page type.
type TypeSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Summary is the listing projection of one source.
type Summary struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Types []TypeSummary `json:"types"`
}

// List projects the catalog for the listing endpoint. No job execution.
func (r *Registry) List() []Summary {
	out := make([]Summary, 0, len(r.sources))
	for _, src := range r.sources {
		s := Summary{ID: src.ID, Name: src.Name, Types: make([]TypeSummary, 0, len(src.Types))}
		for _, pt := range src.Types {
			s.Types = append(s.Types, TypeSummary{ID: pt.ID, Name: pt.Name})
		}
		out = append(out, s)
	}
	return out
}
