// Package dao fournit des DAO typés au-dessus de ports.EntityManager.
//
// Chaque Dao est lié à une définition d'entité: les requêtes passées aux
// méthodes de recherche n'ont pas besoin de renseigner From, et load ne
// prend que l'oid. Les erreurs du manager remontent telles quelles.
//
// Les méthodes qui renvoient une entité unique renvoient la valeur zéro de E
// (dont Base() vaut nil) quand il n'y a rien à renvoyer: oid vide, ou
// recherche unitaire sans résultat ou ambiguë.
package dao

import (
	"context"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/objectutil"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

var (
	loadRefOption    = domain.LoadOption{ResolveReferences: true}
	nonLoadRefOption = domain.LoadOption{ResolveReferences: false}
	purgeDelOption   = domain.DeleteOption{Purge: true}
	logicalDelOption = domain.DeleteOption{Purge: false}
	forceInsOption   = domain.InsertOption{SkipValidation: true, SkipListeners: true}
)

type Dao[E domain.Record] struct {
	em      ports.EntityManager
	defName string
	wrap    func(*domain.Entity) E
}

func New[E domain.Record](em ports.EntityManager, defName string, wrap func(*domain.Entity) E) *Dao[E] {
	return &Dao[E]{em: em, defName: defName, wrap: wrap}
}

// Generic renvoie un Dao non typé sur defName.
func Generic(em ports.EntityManager, defName string) *Dao[*domain.Entity] {
	return New(em, defName, func(e *domain.Entity) *domain.Entity { return e })
}

func (d *Dao[E]) Definition() string { return d.defName }

func (d *Dao[E]) Insert(ctx context.Context, entity E) (string, error) {
	return d.em.Insert(ctx, entity.Base(), domain.InsertOption{})
}

// ForceInsert insère sans validation ni listeners.
func (d *Dao[E]) ForceInsert(ctx context.Context, entity E) (string, error) {
	return d.em.Insert(ctx, entity.Base(), forceInsOption)
}

func (d *Dao[E]) LoadWith(ctx context.Context, oid string, opt domain.LoadOption) (E, error) {
	var zero E
	if objectutil.IsBlank(oid) {
		return zero, nil
	}
	e, err := d.em.Load(ctx, oid, d.defName, opt)
	if err != nil {
		return zero, err
	}
	return d.wrap(e), nil
}

// Load charge l'entité avec ses références.
func (d *Dao[E]) Load(ctx context.Context, oid string) (E, error) {
	return d.LoadWith(ctx, oid, loadRefOption)
}

// LoadNonRef charge l'entité sans ses références.
func (d *Dao[E]) LoadNonRef(ctx context.Context, oid string) (E, error) {
	return d.LoadWith(ctx, oid, nonLoadRefOption)
}

func (d *Dao[E]) LoadAndLock(ctx context.Context, oid string) (E, error) {
	var zero E
	if objectutil.IsBlank(oid) {
		return zero, nil
	}
	e, err := d.em.LoadAndLock(ctx, oid, d.defName, nonLoadRefOption)
	if err != nil {
		return zero, err
	}
	return d.wrap(e), nil
}

func (d *Dao[E]) Unlock(ctx context.Context, entity E) error {
	e := entity.Base()
	if e == nil || e.LockToken == "" {
		return nil
	}
	if err := d.em.Unlock(ctx, e.OID, e.LockToken); err != nil {
		return err
	}
	e.LockToken = ""
	return nil
}

func (d *Dao[E]) Search(ctx context.Context, q domain.Query) ([]E, error) {
	res, err := d.em.SearchEntity(ctx, q.WithFrom(d.defName), domain.SearchOption{})
	if err != nil {
		return nil, err
	}
	return d.wrapAll(res.List), nil
}

// SearchSelectAll ignore q.Select et sélectionne toutes les propriétés.
func (d *Dao[E]) SearchSelectAll(ctx context.Context, q domain.Query) ([]E, error) {
	res, err := d.em.SearchEntity(ctx, q.WithSelectAll(d.defName), domain.SearchOption{})
	if err != nil {
		return nil, err
	}
	return d.wrapAll(res.List), nil
}

// SearchOne renvoie l'unique résultat, ou la valeur zéro s'il y en a 0 ou plusieurs.
// Aucune limite n'est posée: q.Limit = 2 suffit pour détecter l'ambiguïté.
func (d *Dao[E]) SearchOne(ctx context.Context, q domain.Query) (E, error) {
	list, err := d.Search(ctx, q)
	return d.single(list, err)
}

func (d *Dao[E]) SearchOneSelectAll(ctx context.Context, q domain.Query) (E, error) {
	list, err := d.SearchSelectAll(ctx, q)
	return d.single(list, err)
}

func (d *Dao[E]) SearchEntity(ctx context.Context, q domain.Query, opt domain.SearchOption) (domain.SearchResult[E], error) {
	res, err := d.em.SearchEntity(ctx, q.WithFrom(d.defName), opt)
	if err != nil {
		return domain.SearchResult[E]{}, err
	}
	return domain.SearchResult[E]{List: d.wrapAll(res.List), TotalCount: res.TotalCount}, nil
}

// SearchEntityOne renvoie le premier résultat.
func (d *Dao[E]) SearchEntityOne(ctx context.Context, q domain.Query, opt domain.SearchOption) (E, error) {
	res, err := d.SearchEntity(ctx, q, opt)
	if err != nil {
		var zero E
		return zero, err
	}
	return res.First(), nil
}

// SearchRows renvoie les valeurs brutes, une colonne par chemin de q.Select.
func (d *Dao[E]) SearchRows(ctx context.Context, q domain.Query) ([][]any, error) {
	res, err := d.em.Search(ctx, q.WithFrom(d.defName), domain.SearchOption{})
	if err != nil {
		return nil, err
	}
	return res.List, nil
}

func (d *Dao[E]) SearchRowOne(ctx context.Context, q domain.Query) ([]any, error) {
	res, err := d.em.Search(ctx, q.WithFrom(d.defName), domain.SearchOption{})
	if err != nil {
		return nil, err
	}
	return res.First(), nil
}

func (d *Dao[E]) Count(ctx context.Context, q domain.Query) (int, error) {
	return d.em.Count(ctx, q.WithFrom(d.defName))
}

// Update n'appelle pas le manager si opt.Properties est vide.
func (d *Dao[E]) Update(ctx context.Context, entity E, opt domain.UpdateOption) error {
	if len(opt.Properties) == 0 {
		return nil
	}
	return d.em.Update(ctx, entity.Base(), opt)
}

func (d *Dao[E]) UpdateProperties(ctx context.Context, entity E, props ...string) error {
	return d.Update(ctx, entity, domain.UpdateOption{Properties: props})
}

func (d *Dao[E]) DeleteWith(ctx context.Context, entity E, opt domain.DeleteOption) error {
	return d.em.Delete(ctx, entity.Base(), opt)
}

// Delete supprime physiquement.
func (d *Dao[E]) Delete(ctx context.Context, entity E) error {
	return d.DeleteWith(ctx, entity, purgeDelOption)
}

// DeleteLogical supprime logiquement.
func (d *Dao[E]) DeleteLogical(ctx context.Context, entity E) error {
	return d.DeleteWith(ctx, entity, logicalDelOption)
}

// UpdateAll applique values à toutes les entités satisfaisant where; renvoie le nombre mis à jour.
func (d *Dao[E]) UpdateAll(ctx context.Context, values []domain.UpdateValue, where domain.Condition) (int, error) {
	return d.em.UpdateAll(ctx, domain.UpdateCondition{Definition: d.defName, Values: values, Where: where})
}

func (d *Dao[E]) Validate(ctx context.Context, entity E) (domain.ValidateResult, error) {
	return d.em.Validate(ctx, entity.Base())
}

func (d *Dao[E]) ValidateProperties(ctx context.Context, entity E, props []string) (domain.ValidateResult, error) {
	return d.em.Validate(ctx, entity.Base(), props...)
}

func (d *Dao[E]) wrapAll(list []*domain.Entity) []E {
	out := make([]E, 0, len(list))
	for _, e := range list {
		out = append(out, d.wrap(e))
	}
	return out
}

func (d *Dao[E]) single(list []E, err error) (E, error) {
	var zero E
	if err != nil {
		return zero, err
	}
	if len(list) != 1 {
		return zero, nil
	}
	return list[0], nil
}
