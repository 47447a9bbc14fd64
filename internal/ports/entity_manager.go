package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
)

// EntityManager est la plateforme de gestion d'entités consommée par les DAO.
// Les erreurs (validation, not found, contraintes) remontent telles quelles.
type EntityManager interface {
	Insert(ctx context.Context, entity *domain.Entity, opt domain.InsertOption) (string, error)
	// Load renvoie ErrNotFound si l'oid n'existe pas (ou a été supprimé logiquement).
	Load(ctx context.Context, oid, definition string, opt domain.LoadOption) (*domain.Entity, error)
	// LoadAndLock pose un verrou exclusif; le jeton est dans Entity.LockToken.
	LoadAndLock(ctx context.Context, oid, definition string, opt domain.LoadOption) (*domain.Entity, error)
	Unlock(ctx context.Context, oid, token string) error

	SearchEntity(ctx context.Context, q domain.Query, opt domain.SearchOption) (domain.SearchResult[*domain.Entity], error)
	// Search renvoie une ligne par entité, une valeur par chemin de q.Select.
	Search(ctx context.Context, q domain.Query, opt domain.SearchOption) (domain.SearchResult[[]any], error)
	Count(ctx context.Context, q domain.Query) (int, error)

	Update(ctx context.Context, entity *domain.Entity, opt domain.UpdateOption) error
	Delete(ctx context.Context, entity *domain.Entity, opt domain.DeleteOption) error
	UpdateAll(ctx context.Context, cond domain.UpdateCondition) (int, error)

	// Validate sans propriétés = toutes les propriétés de la définition.
	Validate(ctx context.Context, entity *domain.Entity, properties ...string) (domain.ValidateResult, error)
}

// DefinitionRegistry résout les définitions d'entités par nom.
type DefinitionRegistry interface {
	Lookup(name string) (*domain.Definition, error)
	Names() []string
}
