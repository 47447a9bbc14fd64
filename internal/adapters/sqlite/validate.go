package sqlite

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

// Validate contrôle e contre sa définition. Sans properties, toutes les
// propriétés de la définition sont contrôlées.
func (m *EntityManager) Validate(ctx context.Context, e *domain.Entity, properties ...string) (domain.ValidateResult, error) {
	if e == nil {
		return domain.ValidateResult{}, errors.New("validate: nil entity")
	}
	def, err := m.registry.Lookup(e.DefinitionName)
	if err != nil {
		return domain.ValidateResult{}, err
	}
	return m.validate(ctx, def, e, properties)
}

func (m *EntityManager) validate(ctx context.Context, def *domain.Definition, e *domain.Entity, properties []string) (domain.ValidateResult, error) {
	var res domain.ValidateResult

	props := def.Properties
	if len(properties) > 0 {
		props = make([]domain.PropertyDefinition, 0, len(properties))
		for _, name := range properties {
			p, ok := def.Property(name)
			if !ok {
				res.Add(name, "unknown property")
				continue
			}
			props = append(props, p)
		}
	}

	for _, p := range props {
		if !p.Stored() {
			continue
		}
		v := e.Value(p.Name)
		if isBlankValue(v) {
			if p.Required {
				res.Add(p.Name, "required")
			}
			continue
		}
		enc, err := encodeValue(p, v)
		if err != nil {
			res.Add(p.Name, "%v", err)
			continue
		}
		switch p.Type {
		case domain.TypeString:
			if s, ok := enc.(string); ok && p.MaxLength > 0 && utf8.RuneCountInString(s) > p.MaxLength {
				res.Add(p.Name, "must be at most %d characters", p.MaxLength)
			}
		case domain.TypeSelect:
			if s, ok := enc.(string); ok {
				if _, known := p.Option(s); !known {
					res.Add(p.Name, "unknown option %q", s)
				}
			} else if p.Required {
				res.Add(p.Name, "required")
			}
		case domain.TypeReference:
			oids := []string{}
			switch x := enc.(type) {
			case string:
				oids = append(oids, x)
			case []string:
				oids = x
			}
			if len(oids) == 0 && p.Required {
				res.Add(p.Name, "required")
			}
			for _, oid := range oids {
				if _, err := m.getRow(ctx, m.db, oid, p.ReferenceTo); err != nil {
					if errors.Is(err, ports.ErrNotFound) {
						res.Add(p.Name, "%s %s does not exist", p.ReferenceTo, oid)
						continue
					}
					return res, err
				}
			}
		}
	}
	return res, nil
}
