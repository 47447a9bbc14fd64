package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// PropOID est le chemin réservé pour l'identifiant (ex: "radikoStation.oid").
const PropOID = "oid"

// Record est implémenté par *Entity et, par embarquement, par les entités typées.
type Record interface {
	Base() *Entity
}

// Entity est un sac de propriétés rattaché à une définition.
type Entity struct {
	OID            string
	DefinitionName string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// LockToken est renseigné par LoadAndLock et doit accompagner Update/Delete.
	LockToken string

	values map[string]any
}

func NewEntity(definitionName string) *Entity {
	return &Entity{DefinitionName: definitionName, values: map[string]any{}}
}

// Ref construit une référence vers une entité existante (oid seul).
func Ref(definitionName, oid string) *Entity {
	e := NewEntity(definitionName)
	e.OID = oid
	return e
}

func (e *Entity) Base() *Entity { return e }

func (e *Entity) Value(name string) any {
	if e == nil || e.values == nil {
		return nil
	}
	return e.values[name]
}

func (e *Entity) SetValue(name string, v any) {
	if e.values == nil {
		e.values = map[string]any{}
	}
	e.values[name] = v
}

func (e *Entity) Has(name string) bool {
	if e == nil || e.values == nil {
		return false
	}
	_, ok := e.values[name]
	return ok
}

func (e *Entity) Unset(name string) {
	if e == nil || e.values == nil {
		return
	}
	delete(e.values, name)
}

// PropertyNames renvoie les propriétés renseignées, triées.
func (e *Entity) PropertyNames() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.values))
	for k := range e.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone copie l'entité; les références restent partagées.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := *e
	c.values = make(map[string]any, len(e.values))
	for k, v := range e.values {
		c.values[k] = v
	}
	return &c
}

func (e *Entity) String() string {
	if e == nil {
		return "<nil>"
	}
	return e.DefinitionName + "#" + e.OID
}

func (e *Entity) StringValue(name string) string {
	switch v := e.Value(name).(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

func (e *Entity) Int64Value(name string) (int64, bool) {
	switch v := e.Value(name).(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func (e *Entity) TimeValue(name string) (time.Time, bool) {
	switch v := e.Value(name).(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	default:
		return time.Time{}, false
	}
}

func (e *Entity) TimeOfDayValue(name string) (TimeOfDay, bool) {
	switch v := e.Value(name).(type) {
	case TimeOfDay:
		return v, true
	case string:
		t, err := ParseTimeOfDay(v)
		return t, err == nil
	default:
		return TimeOfDay{}, false
	}
}

func (e *Entity) SelectValueOf(name string) (SelectValue, bool) {
	switch v := e.Value(name).(type) {
	case SelectValue:
		return v, true
	case *SelectValue:
		if v == nil {
			return SelectValue{}, false
		}
		return *v, true
	case string:
		return SelectValue{Value: v}, v != ""
	default:
		return SelectValue{}, false
	}
}

func (e *Entity) Reference(name string) *Entity {
	switch v := e.Value(name).(type) {
	case *Entity:
		return v
	case Record:
		return v.Base()
	default:
		return nil
	}
}

func (e *Entity) References(name string) []*Entity {
	switch v := e.Value(name).(type) {
	case []*Entity:
		return v
	case *Entity:
		if v == nil {
			return nil
		}
		return []*Entity{v}
	default:
		return nil
	}
}

// SelectValue est la valeur d'une propriété de type liste de choix.
type SelectValue struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

func (s SelectValue) String() string { return s.Value }

// TimeOfDay est une heure murale sans date (HH:MM:SS).
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On place l'heure sur la date de d, dans le fuseau de d.
func (t TimeOfDay) On(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, t.Hour, t.Minute, t.Second, 0, d.Location())
}

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
