package sqlite

import (
	"fmt"
	"strings"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

// whereBuilder traduit une domain.Condition en clause SQL sur la table entities.
// Seules les propriétés directes et "<ref>.oid" sont filtrables.
type whereBuilder struct {
	def  *domain.Definition
	args []any
}

func jsonColumn(prop string) string {
	return "json_extract(properties, '$." + prop + "')"
}

// column renvoie l'expression SQL et la définition de propriété d'un chemin filtrable.
func (b *whereBuilder) column(path string) (string, domain.PropertyDefinition, error) {
	if path == domain.PropOID {
		return "oid", domain.PropertyDefinition{Name: domain.PropOID, Type: domain.TypeString}, nil
	}
	head, tail := domain.SplitPath(path)
	p, ok := b.def.Property(head)
	if !ok {
		return "", p, fmt.Errorf("%w: unknown property %s.%s", ports.ErrUnsupportedQuery, b.def.Name, head)
	}
	if !p.Stored() || p.Multiple {
		return "", p, fmt.Errorf("%w: %s.%s is not filterable", ports.ErrUnsupportedQuery, b.def.Name, head)
	}
	if tail != "" && (p.Type != domain.TypeReference || tail != domain.PropOID) {
		return "", p, fmt.Errorf("%w: path %s", ports.ErrUnsupportedQuery, path)
	}
	return jsonColumn(p.Name), p, nil
}

func (b *whereBuilder) arg(p domain.PropertyDefinition, v any) error {
	a, err := sqlArg(p, v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ports.ErrUnsupportedQuery, p.Name, err)
	}
	b.args = append(b.args, a)
	return nil
}

func (b *whereBuilder) build(c domain.Condition) (string, error) {
	switch x := c.(type) {
	case nil:
		return "", nil
	case domain.Comparison:
		col, p, err := b.column(x.Property)
		if err != nil {
			return "", err
		}
		switch x.Op {
		case domain.OpEq, domain.OpNe, domain.OpLt, domain.OpLe, domain.OpGt, domain.OpGe:
		default:
			return "", fmt.Errorf("%w: operator %q", ports.ErrUnsupportedQuery, x.Op)
		}
		if x.Value == nil {
			if x.Op == domain.OpEq {
				return col + " IS NULL", nil
			}
			if x.Op == domain.OpNe {
				return col + " IS NOT NULL", nil
			}
			return "", fmt.Errorf("%w: %s %s NULL", ports.ErrUnsupportedQuery, x.Property, x.Op)
		}
		if err := b.arg(p, x.Value); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s ?", col, x.Op), nil
	case domain.Range:
		col, p, err := b.column(x.Property)
		if err != nil {
			return "", err
		}
		if err := b.arg(p, x.From); err != nil {
			return "", err
		}
		if err := b.arg(p, x.To); err != nil {
			return "", err
		}
		return col + " BETWEEN ? AND ?", nil
	case domain.InList:
		col, p, err := b.column(x.Property)
		if err != nil {
			return "", err
		}
		if len(x.Values) == 0 {
			return "0", nil
		}
		marks := make([]string, 0, len(x.Values))
		for _, v := range x.Values {
			if err := b.arg(p, v); err != nil {
				return "", err
			}
			marks = append(marks, "?")
		}
		return col + " IN (" + strings.Join(marks, ", ") + ")", nil
	case domain.NullCheck:
		col, _, err := b.column(x.Property)
		if err != nil {
			return "", err
		}
		if x.Not {
			return col + " IS NOT NULL", nil
		}
		return col + " IS NULL", nil
	case domain.Junction:
		parts := make([]string, 0, len(x.Conditions))
		for _, sub := range x.Conditions {
			s, err := b.build(sub)
			if err != nil {
				return "", err
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", nil
		}
		sep := " AND "
		if x.Or {
			sep = " OR "
		}
		return "(" + strings.Join(parts, sep) + ")", nil
	}
	return "", fmt.Errorf("%w: condition %T", ports.ErrUnsupportedQuery, c)
}

// orderBy: les listes de choix sont triées dans l'ordre de leurs options.
func orderBy(def *domain.Definition, sorts []domain.Sort) (string, error) {
	parts := make([]string, 0, len(sorts)+2)
	for _, s := range sorts {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		if s.Property == domain.PropOID {
			parts = append(parts, "oid "+dir)
			continue
		}
		p, ok := def.Property(s.Property)
		if !ok || !p.Stored() || p.Multiple {
			return "", fmt.Errorf("%w: cannot sort on %s.%s", ports.ErrUnsupportedQuery, def.Name, s.Property)
		}
		col := jsonColumn(p.Name)
		if p.Type == domain.TypeSelect {
			var cases strings.Builder
			cases.WriteString("CASE " + col)
			for i, o := range p.Options {
				fmt.Fprintf(&cases, " WHEN '%s' THEN %d", strings.ReplaceAll(o.Value, "'", "''"), i)
			}
			fmt.Fprintf(&cases, " ELSE %d END", len(p.Options))
			col = cases.String()
		}
		parts = append(parts, col+" "+dir)
	}
	parts = append(parts, "created_at ASC", "oid ASC")
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func limitOffset(limit, offset int) (string, []any) {
	switch {
	case limit > 0 && offset > 0:
		return " LIMIT ? OFFSET ?", []any{limit, offset}
	case limit > 0:
		return " LIMIT ?", []any{limit}
	case offset > 0:
		return " LIMIT -1 OFFSET ?", []any{offset}
	}
	return "", nil
}
