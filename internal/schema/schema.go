// Package schema charge les définitions d'entités (YAML) et les expose via un registre.
package schema

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

//go:embed radiko.yaml
var radikoYAML []byte

type document struct {
	Definitions []domain.Definition `yaml:"definitions"`
}

type Registry struct {
	byName map[string]*domain.Definition
}

// Radiko renvoie le registre des trois définitions radiko embarquées.
func Radiko() *Registry {
	r, err := Parse(radikoYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded radiko schema: %v", err))
	}
	return r
}

func Load(r io.Reader) (*Registry, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func Parse(b []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	reg := &Registry{byName: map[string]*domain.Definition{}}
	for i := range doc.Definitions {
		if err := reg.Register(doc.Definitions[i]); err != nil {
			return nil, err
		}
	}
	if err := reg.checkReferences(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) Register(def domain.Definition) error {
	if err := def.Check(); err != nil {
		return err
	}
	if _, exists := r.byName[def.Name]; exists {
		return fmt.Errorf("duplicate definition %q", def.Name)
	}
	d := def
	r.byName[def.Name] = &d
	return nil
}

func (r *Registry) Lookup(name string) (*domain.Definition, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrUnknownDefinition, name)
	}
	return d, nil
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) checkReferences() error {
	for _, d := range r.byName {
		for _, p := range d.Properties {
			if p.Type != domain.TypeReference {
				continue
			}
			target, ok := r.byName[p.ReferenceTo]
			if !ok {
				return fmt.Errorf("%s.%s: unknown referenceTo %q", d.Name, p.Name, p.ReferenceTo)
			}
			if p.MappedBy == "" {
				continue
			}
			back, ok := target.Property(p.MappedBy)
			if !ok || back.Type != domain.TypeReference || back.ReferenceTo != d.Name || back.Multiple {
				return fmt.Errorf("%s.%s: mappedBy %q is not a single reference back to %s", d.Name, p.Name, p.MappedBy, d.Name)
			}
		}
	}
	return nil
}
