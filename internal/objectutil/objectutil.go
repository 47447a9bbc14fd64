// Package objectutil regroupe des comparaisons tolérantes aux valeurs nulles ou vides.
package objectutil

import (
	"cmp"
	"math"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
)

func IsNotBlank(v any) bool {
	return !IsBlank(v)
}

// IsBlank traite comme vide: nil, une chaîne blanche, une SelectValue sans valeur,
// false, une entité sans oid et un pointeur nil.
func IsBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return isBlankString(x)
	case *string:
		return x == nil || isBlankString(*x)
	case domain.SelectValue:
		return isBlankString(x.Value)
	case *domain.SelectValue:
		return x == nil || isBlankString(x.Value)
	case bool:
		return !x
	case *bool:
		return x == nil || !*x
	case domain.Record:
		// un *RadikoProgram nil satisfait Record mais Base() le déréférence
		if isNil(v) {
			return true
		}
		e := x.Base()
		return e == nil || isBlankString(e.OID)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func isBlankString(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Equal compare deux valeurs:
//   - nil et une chaîne blanche sont égaux;
//   - deux entités sont égales si leurs oid (non vides) le sont;
//   - deux nombres sont comparés par valeur (1.0 == 1), quel que soit leur type Go.
func Equal(a, b any) bool {
	na, nb := isNil(a), isNil(b)
	if na && nb {
		return true
	}
	if na || nb {
		sa, okA := asString(a)
		sb, okB := asString(b)
		if okA || okB {
			return EqualString(sa, sb)
		}
		return false
	}

	if ea, ok := asEntity(a); ok {
		eb, ok := asEntity(b)
		if !ok {
			return false
		}
		return EqualEntity(ea, eb)
	}
	if isNumber(a) && isNumber(b) {
		return EqualNumber(a, b)
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	switch x := a.(type) {
	case string:
		return EqualString(x, b.(string))
	case *string:
		return EqualString(*x, *b.(*string))
	case time.Time:
		return x.Equal(b.(time.Time))
	}
	return reflect.DeepEqual(a, b)
}

// EqualString: "" et une chaîne blanche sont équivalents.
func EqualString(a, b string) bool {
	if isBlankString(a) && isBlankString(b) {
		return true
	}
	return a == b
}

// EqualEntity compare par définition et oid; une entité sans oid n'est égale
// qu'à elle-même.
func EqualEntity(a, b *domain.Entity) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.DefinitionName != b.DefinitionName {
		return false
	}
	return a.OID != "" && a.OID == b.OID
}

// EqualNumber compare par valeur; false si l'un des deux n'est pas un nombre.
func EqualNumber(a, b any) bool {
	ra, okA := toRat(a)
	rb, okB := toRat(b)
	if okA && okB {
		return ra.Cmp(rb) == 0
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if !okA || !okB {
		return false
	}
	// NaN n'est égal à rien, comme en Go.
	return fa == fb
}

// Max renvoie le plus grand des deux; un nil est ignoré.
func Max[T cmp.Ordered](a, b *T) *T {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if cmp.Compare(*a, *b) > 0 {
		return a
	}
	return b
}

// Min renvoie le plus petit des deux; un nil est ignoré.
func Min[T cmp.Ordered](a, b *T) *T {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if cmp.Compare(*a, *b) > 0 {
		return b
	}
	return a
}

// Replace substitue chaque "{clé}" de base par la valeur associée, en un seul
// passage de gauche à droite: le texte substitué n'est jamais ré-analysé.
// Les clés blanches sont ignorées, une valeur blanche efface le motif,
// et les motifs sans clé restent intacts.
func Replace(base string, bind map[string]string) string {
	if isBlankString(base) || len(bind) == 0 {
		return base
	}
	var b strings.Builder
	b.Grow(len(base))
	rest := base
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		end := strings.IndexByte(rest[open+1:], '}')
		if end < 0 {
			b.WriteString(rest[open:])
			break
		}
		key := rest[open+1 : open+1+end]
		v, ok := bind[key]
		if !ok || isBlankString(key) {
			// "{" littéral; on reprend juste après pour trouver un motif imbriqué
			b.WriteByte('{')
			rest = rest[open+1:]
			continue
		}
		if !isBlankString(v) {
			b.WriteString(v)
		}
		rest = rest[open+1+end+1:]
	}
	return b.String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case *string:
		if x == nil {
			return "", true
		}
		return *x, true
	}
	return "", false
}

func asEntity(v any) (*domain.Entity, bool) {
	r, ok := v.(domain.Record)
	if !ok {
		return nil, false
	}
	return r.Base(), true
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, *big.Int, *big.Rat, *big.Float:
		return true
	}
	return false
}

func toRat(v any) (*big.Rat, bool) {
	r := new(big.Rat)
	switch x := v.(type) {
	case int:
		return r.SetInt64(int64(x)), true
	case int8:
		return r.SetInt64(int64(x)), true
	case int16:
		return r.SetInt64(int64(x)), true
	case int32:
		return r.SetInt64(int64(x)), true
	case int64:
		return r.SetInt64(x), true
	case uint:
		return r.SetUint64(uint64(x)), true
	case uint8:
		return r.SetUint64(uint64(x)), true
	case uint16:
		return r.SetUint64(uint64(x)), true
	case uint32:
		return r.SetUint64(uint64(x)), true
	case uint64:
		return r.SetUint64(x), true
	case float32:
		return ratFromFloat(float64(x))
	case float64:
		return ratFromFloat(x)
	case *big.Int:
		return r.SetInt(x), true
	case *big.Rat:
		return r.Set(x), true
	case *big.Float:
		if x.IsInf() {
			return nil, false
		}
		out, _ := x.Rat(r)
		return out, out != nil
	}
	return nil, false
}

func ratFromFloat(f float64) (*big.Rat, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return new(big.Rat).SetFloat64(f), true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case *big.Float:
		f, _ := x.Float64()
		return f, true
	}
	if r, ok := toRat(v); ok {
		f, _ := r.Float64()
		return f, true
	}
	return 0, false
}
