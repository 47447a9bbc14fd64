package domain

import (
	"fmt"
	"regexp"
)

// Les noms de propriétés finissent dans des chemins JSON: identifiants simples uniquement.
var propertyNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type PropertyType string

const (
	TypeString    PropertyType = "string"
	TypeLong      PropertyType = "long"
	TypeFloat     PropertyType = "float"
	TypeBoolean   PropertyType = "boolean"
	TypeDateTime  PropertyType = "datetime"
	TypeTime      PropertyType = "time"
	TypeSelect    PropertyType = "select"
	TypeReference PropertyType = "reference"
)

func (t PropertyType) Valid() bool {
	switch t {
	case TypeString, TypeLong, TypeFloat, TypeBoolean, TypeDateTime, TypeTime, TypeSelect, TypeReference:
		return true
	}
	return false
}

type PropertyDefinition struct {
	Name        string        `yaml:"name"`
	DisplayName string        `yaml:"displayName,omitempty"`
	Type        PropertyType  `yaml:"type"`
	Multiple    bool          `yaml:"multiple,omitempty"`
	Required    bool          `yaml:"required,omitempty"`
	MaxLength   int           `yaml:"maxLength,omitempty"`
	Options     []SelectValue `yaml:"options,omitempty"`

	// ReferenceTo est la définition ciblée (type reference).
	ReferenceTo string `yaml:"referenceTo,omitempty"`
	// MappedBy rend la référence inverse: calculée au load, jamais stockée.
	MappedBy string `yaml:"mappedBy,omitempty"`
}

func (p PropertyDefinition) Option(value string) (SelectValue, bool) {
	for _, o := range p.Options {
		if o.Value == value {
			return o, true
		}
	}
	return SelectValue{}, false
}

// Stored indique si la propriété a une colonne JSON.
func (p PropertyDefinition) Stored() bool {
	return p.MappedBy == ""
}

type Definition struct {
	Name        string               `yaml:"name"`
	DisplayName string               `yaml:"displayName,omitempty"`
	Properties  []PropertyDefinition `yaml:"properties"`
}

func (d *Definition) Property(name string) (PropertyDefinition, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDefinition{}, false
}

func (d *Definition) Check() error {
	if d.Name == "" {
		return fmt.Errorf("definition without name")
	}
	seen := map[string]bool{}
	for _, p := range d.Properties {
		if !propertyNameRE.MatchString(p.Name) || p.Name == PropOID {
			return fmt.Errorf("%s: invalid property name %q", d.Name, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%s: duplicate property %q", d.Name, p.Name)
		}
		seen[p.Name] = true
		if !p.Type.Valid() {
			return fmt.Errorf("%s.%s: unknown type %q", d.Name, p.Name, p.Type)
		}
		if p.Type == TypeReference && p.ReferenceTo == "" {
			return fmt.Errorf("%s.%s: reference without referenceTo", d.Name, p.Name)
		}
		if p.Type == TypeSelect && len(p.Options) == 0 {
			return fmt.Errorf("%s.%s: select without options", d.Name, p.Name)
		}
		if p.MappedBy != "" && (p.Type != TypeReference || !p.Multiple) {
			return fmt.Errorf("%s.%s: mappedBy requires a multiple reference", d.Name, p.Name)
		}
	}
	return nil
}
