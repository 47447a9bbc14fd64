package dao

import (
	"context"
	"strings"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

type RadikoStationDao struct {
	*Dao[domain.RadikoStation]
}

func NewRadikoStationDao(em ports.EntityManager) *RadikoStationDao {
	return &RadikoStationDao{Dao: New(em, domain.RadikoStationDefinition, domain.AsRadikoStation)}
}

func (d *RadikoStationDao) ListAll(ctx context.Context, limit int) ([]domain.RadikoStation, error) {
	return d.SearchSelectAll(ctx, domain.Query{
		OrderBy: []domain.Sort{domain.Asc(domain.StationCallSign)},
		Limit:   limit,
	})
}

// FindByCallSign renvoie la station, ou la valeur zéro si absente.
func (d *RadikoStationDao) FindByCallSign(ctx context.Context, callSign string) (domain.RadikoStation, error) {
	callSign = strings.TrimSpace(callSign)
	if callSign == "" {
		return domain.RadikoStation{}, nil
	}
	return d.SearchOneSelectAll(ctx, domain.Query{
		Where: domain.Eq(domain.StationCallSign, callSign),
		Limit: 2,
	})
}
