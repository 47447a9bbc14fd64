package domain

// Les valeurs zéro correspondent au comportement par défaut du manager.

type InsertOption struct {
	SkipValidation bool
	SkipListeners  bool
}

type LoadOption struct {
	// ResolveReferences charge les entités référencées (un niveau).
	// Sinon les références sont des talons (oid seul) et les références
	// inverses (mappedBy) sont absentes.
	ResolveReferences bool
}

type UpdateOption struct {
	// Properties liste les propriétés à écrire; vide = rien à faire.
	Properties     []string
	CheckTimestamp bool
	SkipValidation bool
	SkipListeners  bool
}

type DeleteOption struct {
	// Purge: true = suppression physique, false = suppression logique.
	Purge         bool
	SkipListeners bool
}

type SearchOption struct {
	CountTotal bool
}

type SearchResult[T any] struct {
	List       []T
	TotalCount int
}

// First renvoie le premier élément, ou la valeur zéro si le résultat est vide.
func (r SearchResult[T]) First() T {
	var zero T
	if len(r.List) == 0 {
		return zero
	}
	return r.List[0]
}

type UpdateValue struct {
	Property string
	Value    any
}

type UpdateCondition struct {
	Definition string
	Values     []UpdateValue
	Where      Condition
}
