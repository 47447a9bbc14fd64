package sqlite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
)

// Largeur fixe: l'ordre lexicographique des chaînes suit l'ordre chronologique.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// encodeValue convertit une valeur Go vers sa forme JSON stockée.
func encodeValue(p domain.PropertyDefinition, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if p.Type == domain.TypeReference && p.Multiple {
		return encodeReferences(v)
	}
	switch p.Type {
	case domain.TypeString:
		switch x := v.(type) {
		case string:
			return x, nil
		case *string:
			if x == nil {
				return nil, nil
			}
			return *x, nil
		}
	case domain.TypeLong:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		case uint32:
			return int64(x), nil
		case float64:
			if x == math.Trunc(x) {
				return int64(x), nil
			}
		case json.Number:
			return x.Int64()
		}
	case domain.TypeFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case json.Number:
			return x.Float64()
		}
	case domain.TypeBoolean:
		if x, ok := v.(bool); ok {
			return x, nil
		}
	case domain.TypeDateTime:
		switch x := v.(type) {
		case time.Time:
			return formatTime(x), nil
		case *time.Time:
			if x == nil {
				return nil, nil
			}
			return formatTime(*x), nil
		case string:
			t, err := parseTime(x)
			if err != nil {
				return nil, err
			}
			return formatTime(t), nil
		}
	case domain.TypeTime:
		switch x := v.(type) {
		case domain.TimeOfDay:
			return x.String(), nil
		case string:
			t, err := domain.ParseTimeOfDay(x)
			if err != nil {
				return nil, err
			}
			return t.String(), nil
		}
	case domain.TypeSelect:
		switch x := v.(type) {
		case domain.SelectValue:
			return nilIfEmpty(x.Value), nil
		case *domain.SelectValue:
			if x == nil {
				return nil, nil
			}
			return nilIfEmpty(x.Value), nil
		case string:
			return nilIfEmpty(x), nil
		}
	case domain.TypeReference:
		oid, ok := referenceOID(v)
		if ok {
			return nilIfEmpty(oid), nil
		}
	}
	return nil, fmt.Errorf("value of type %T is not a %s", v, p.Type)
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func referenceOID(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case *domain.Entity:
		if x == nil {
			return "", true
		}
		return x.OID, true
	case domain.Record:
		e := x.Base()
		if e == nil {
			return "", true
		}
		return e.OID, true
	}
	return "", false
}

func encodeReferences(v any) (any, error) {
	var oids []string
	switch x := v.(type) {
	case []*domain.Entity:
		for _, e := range x {
			if e != nil && e.OID != "" {
				oids = append(oids, e.OID)
			}
		}
	case []string:
		for _, s := range x {
			if s != "" {
				oids = append(oids, s)
			}
		}
	default:
		return nil, fmt.Errorf("value of type %T is not a reference list", v)
	}
	if len(oids) == 0 {
		return nil, nil
	}
	return oids, nil
}

// decodeValue reconstruit la valeur Go d'une propriété stockée.
// Les références sont renvoyées sous forme de talons (oid seul).
func decodeValue(p domain.PropertyDefinition, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if p.Type == domain.TypeReference && p.Multiple {
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected array, got %T", p.Name, raw)
		}
		out := make([]*domain.Entity, 0, len(items))
		for _, it := range items {
			if s, ok := it.(string); ok && s != "" {
				out = append(out, domain.Ref(p.ReferenceTo, s))
			}
		}
		return out, nil
	}
	switch p.Type {
	case domain.TypeString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case domain.TypeLong:
		if n, ok := raw.(json.Number); ok {
			return n.Int64()
		}
	case domain.TypeFloat:
		if n, ok := raw.(json.Number); ok {
			return n.Float64()
		}
	case domain.TypeBoolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case domain.TypeDateTime:
		if s, ok := raw.(string); ok {
			return parseTime(s)
		}
	case domain.TypeTime:
		if s, ok := raw.(string); ok {
			return domain.ParseTimeOfDay(s)
		}
	case domain.TypeSelect:
		if s, ok := raw.(string); ok {
			if opt, ok := p.Option(s); ok {
				return opt, nil
			}
			return domain.SelectValue{Value: s}, nil
		}
	case domain.TypeReference:
		if s, ok := raw.(string); ok {
			return domain.Ref(p.ReferenceTo, s), nil
		}
	}
	return nil, fmt.Errorf("%s: cannot decode %T as %s", p.Name, raw, p.Type)
}

func unmarshalProps(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	out := map[string]any{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
	}
	return out, nil
}

// encodeEntity sérialise les propriétés stockées renseignées sur e.
// Les propriétés inconnues ou calculées (mappedBy) sont ignorées.
func encodeEntity(def *domain.Definition, e *domain.Entity) (map[string]any, error) {
	out := map[string]any{}
	for _, p := range def.Properties {
		if !p.Stored() || !e.Has(p.Name) {
			continue
		}
		v, err := encodeValue(p, e.Value(p.Name))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", def.Name, p.Name, err)
		}
		if v != nil {
			out[p.Name] = v
		}
	}
	return out, nil
}

// sqlArg encode une valeur de condition pour un paramètre SQL comparé à json_extract.
func sqlArg(p domain.PropertyDefinition, v any) (any, error) {
	if p.Type == domain.TypeReference && p.Multiple {
		return nil, fmt.Errorf("multiple reference %s", p.Name)
	}
	enc, err := encodeValue(p, v)
	if err != nil {
		return nil, err
	}
	if b, ok := enc.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return enc, nil
}

func isBlankValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []*domain.Entity:
		return len(x) == 0
	case []string:
		return len(x) == 0
	}
	return false
}
