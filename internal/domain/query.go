package domain

import "strings"

// Query décrit une recherche sur une seule définition.
//
// Select accepte des chemins pointés vers une référence ("radikoStation.callSign").
// Where n'accepte que des propriétés directes, plus "<ref>.oid".
type Query struct {
	Select    []string
	SelectAll bool
	From      string
	Where     Condition
	OrderBy   []Sort
	Limit     int
	Offset    int
}

// WithFrom renvoie une copie de q ciblant la définition def.
func (q Query) WithFrom(def string) Query {
	q.From = def
	return q
}

// WithSelectAll renvoie une copie de q sélectionnant toutes les propriétés de def.
func (q Query) WithSelectAll(def string) Query {
	q.From = def
	q.Select = nil
	q.SelectAll = true
	return q
}

type Sort struct {
	Property string
	Desc     bool
}

func Asc(prop string) Sort  { return Sort{Property: prop} }
func Desc(prop string) Sort { return Sort{Property: prop, Desc: true} }

// SplitPath sépare "ref.prop" en ("ref", "prop"). prop est vide sans point.
func SplitPath(path string) (head, tail string) {
	head, tail, _ = strings.Cut(path, ".")
	return head, tail
}

// JoinPath construit un chemin pointé: JoinPath("radikoStation", "callSign").
func JoinPath(parts ...string) string {
	return strings.Join(parts, ".")
}

type Condition interface {
	isCondition()
}

type Operator string

const (
	OpEq Operator = "="
	OpNe Operator = "!="
	OpLt Operator = "<"
	OpLe Operator = "<="
	OpGt Operator = ">"
	OpGe Operator = ">="
)

type Comparison struct {
	Property string
	Op       Operator
	Value    any
}

type Range struct {
	Property string
	From     any
	To       any
}

type InList struct {
	Property string
	Values   []any
}

type NullCheck struct {
	Property string
	Not      bool
}

type Junction struct {
	Or         bool
	Conditions []Condition
}

func (Comparison) isCondition() {}
func (Range) isCondition()      {}
func (InList) isCondition()     {}
func (NullCheck) isCondition()  {}
func (Junction) isCondition()   {}

func Eq(prop string, v any) Condition { return Comparison{Property: prop, Op: OpEq, Value: v} }
func Ne(prop string, v any) Condition { return Comparison{Property: prop, Op: OpNe, Value: v} }
func Lt(prop string, v any) Condition { return Comparison{Property: prop, Op: OpLt, Value: v} }
func Le(prop string, v any) Condition { return Comparison{Property: prop, Op: OpLe, Value: v} }
func Gt(prop string, v any) Condition { return Comparison{Property: prop, Op: OpGt, Value: v} }
func Ge(prop string, v any) Condition { return Comparison{Property: prop, Op: OpGe, Value: v} }

// Between est inclusif aux deux bornes.
func Between(prop string, from, to any) Condition {
	return Range{Property: prop, From: from, To: to}
}

func In(prop string, values ...any) Condition {
	return InList{Property: prop, Values: values}
}

func IsNull(prop string) Condition    { return NullCheck{Property: prop} }
func IsNotNull(prop string) Condition { return NullCheck{Property: prop, Not: true} }

// And ignore les conditions nil; renvoie nil s'il n'en reste aucune.
func And(conds ...Condition) Condition { return junction(false, conds) }
func Or(conds ...Condition) Condition  { return junction(true, conds) }

func junction(or bool, conds []Condition) Condition {
	kept := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if c != nil {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return Junction{Or: or, Conditions: kept}
}
