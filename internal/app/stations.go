package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/dao"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

type StationService struct {
	stations *dao.RadikoStationDao
}

func NewStationService(em ports.EntityManager) *StationService {
	return &StationService{stations: dao.NewRadikoStationDao(em)}
}

type StationDTO struct {
	OID         string    `json:"oid"`
	CallSign    string    `json:"callSign"`
	StationName string    `json:"stationName,omitempty"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toStationDTO(s domain.RadikoStation) StationDTO {
	return StationDTO{
		OID:         s.OID,
		CallSign:    s.CallSign(),
		StationName: s.StationName(),
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (s *StationService) Create(ctx context.Context, callSign, stationName string) (StationDTO, error) {
	callSign = strings.ToUpper(strings.TrimSpace(callSign))
	if callSign == "" {
		return StationDTO{}, invalidParams("missing callSign")
	}
	existing, err := s.stations.FindByCallSign(ctx, callSign)
	if err != nil {
		return StationDTO{}, err
	}
	if existing.Base() != nil {
		return StationDTO{}, fmt.Errorf("station %s: %w", callSign, ErrConflict)
	}

	st := domain.NewRadikoStation()
	st.SetCallSign(callSign)
	if name := strings.TrimSpace(stationName); name != "" {
		st.SetStationName(name)
	}
	if _, err := s.stations.Insert(ctx, st); err != nil {
		return StationDTO{}, err
	}
	return toStationDTO(st), nil
}

func (s *StationService) Get(ctx context.Context, oid string) (StationDTO, error) {
	st, err := s.load(ctx, oid)
	if err != nil {
		return StationDTO{}, err
	}
	return toStationDTO(st), nil
}

func (s *StationService) GetByCallSign(ctx context.Context, callSign string) (StationDTO, error) {
	st, err := s.stations.FindByCallSign(ctx, strings.ToUpper(callSign))
	if err != nil {
		return StationDTO{}, err
	}
	if st.Base() == nil {
		return StationDTO{}, fmt.Errorf("station %s: %w", callSign, ErrNotFound)
	}
	return toStationDTO(st), nil
}

func (s *StationService) List(ctx context.Context, limit int) ([]StationDTO, error) {
	list, err := s.stations.ListAll(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]StationDTO, 0, len(list))
	for _, st := range list {
		out = append(out, toStationDTO(st))
	}
	return out, nil
}

// Rename modifie le nom affiché; l'indicatif est immuable.
func (s *StationService) Rename(ctx context.Context, oid, stationName string) (StationDTO, error) {
	st, err := s.load(ctx, oid)
	if err != nil {
		return StationDTO{}, err
	}
	if name := strings.TrimSpace(stationName); name != "" {
		st.SetStationName(name)
	} else {
		st.Unset(domain.StationStationName)
	}
	if err := s.stations.Update(ctx, st, domain.UpdateOption{Properties: []string{domain.StationStationName}, CheckTimestamp: true}); err != nil {
		return StationDTO{}, err
	}
	return toStationDTO(st), nil
}

func (s *StationService) Delete(ctx context.Context, oid string) error {
	st, err := s.load(ctx, oid)
	if err != nil {
		return err
	}
	return s.stations.DeleteLogical(ctx, st)
}

func (s *StationService) load(ctx context.Context, oid string) (domain.RadikoStation, error) {
	st, err := s.stations.LoadNonRef(ctx, strings.TrimSpace(oid))
	if err != nil {
		return domain.RadikoStation{}, err
	}
	if st.Base() == nil {
		return domain.RadikoStation{}, ErrNotFound
	}
	return st, nil
}
