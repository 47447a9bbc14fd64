package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/dao"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

type ScheduleService struct {
	schedules *dao.RadikoScheduleDao
	stations  *dao.RadikoStationDao
}

func NewScheduleService(em ports.EntityManager) *ScheduleService {
	return &ScheduleService{
		schedules: dao.NewRadikoScheduleDao(em),
		stations:  dao.NewRadikoStationDao(em),
	}
}

type ScheduleDTO struct {
	OID          string    `json:"oid"`
	StationOID   string    `json:"stationOid"`
	CallSign     string    `json:"callSign,omitempty"`
	ProgramName  string    `json:"programName"`
	WeekDay      string    `json:"weekDay"`
	WeekDayLabel string    `json:"weekDayLabel,omitempty"`
	StartTime    string    `json:"startTime"`
	Notes        string    `json:"notes,omitempty"`
	FavoRate     *int64    `json:"favoRate,omitempty"`
	Programs     []string  `json:"programs,omitempty"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toScheduleDTO(s domain.RadikoSchedule) ScheduleDTO {
	dto := ScheduleDTO{
		OID:         s.OID,
		ProgramName: s.ProgramName(),
		Notes:       s.Notes(),
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if st := s.Station(); st != nil {
		dto.StationOID = st.OID
		dto.CallSign = domain.AsRadikoStation(st).CallSign()
	}
	if wd, ok := s.WeekDay(); ok {
		dto.WeekDay = wd.Value
		dto.WeekDayLabel = wd.Label
	}
	if t, ok := s.StartTime(); ok {
		dto.StartTime = t.String()
	}
	if fr, ok := s.FavoRate(); ok {
		dto.FavoRate = &fr
	}
	for _, p := range s.ChildProgram() {
		dto.Programs = append(dto.Programs, p.OID)
	}
	return dto
}

// ScheduleInput décrit un créneau hebdomadaire; la station est désignée par
// son oid ou, à défaut, par son indicatif.
type ScheduleInput struct {
	StationOID  string `json:"stationOid,omitempty" yaml:"stationOid,omitempty"`
	CallSign    string `json:"callSign,omitempty" yaml:"callSign,omitempty"`
	ProgramName string `json:"programName" yaml:"programName"`
	WeekDay     string `json:"weekDay" yaml:"weekDay"`
	StartTime   string `json:"startTime" yaml:"startTime"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
	FavoRate    *int64 `json:"favoRate,omitempty" yaml:"favoRate,omitempty"`
}

func (s *ScheduleService) Create(ctx context.Context, in ScheduleInput) (ScheduleDTO, error) {
	station, err := s.resolveStation(ctx, in.StationOID, in.CallSign)
	if err != nil {
		return ScheduleDTO{}, err
	}
	sc, err := buildSchedule(station, in)
	if err != nil {
		return ScheduleDTO{}, err
	}
	if _, err := s.schedules.Insert(ctx, sc); err != nil {
		return ScheduleDTO{}, err
	}
	return toScheduleDTO(sc), nil
}

func buildSchedule(station domain.RadikoStation, in ScheduleInput) (domain.RadikoSchedule, error) {
	name := strings.TrimSpace(in.ProgramName)
	if name == "" {
		return domain.RadikoSchedule{}, invalidParams("missing programName")
	}
	weekDay := strings.ToUpper(strings.TrimSpace(in.WeekDay))
	if _, ok := domain.ParseWeekDay(weekDay); !ok {
		return domain.RadikoSchedule{}, invalidParams(fmt.Sprintf("invalid weekDay %q", in.WeekDay))
	}
	start, err := domain.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return domain.RadikoSchedule{}, &CodedError{Code: "invalid_params", Message: "invalid startTime", Err: err}
	}

	sc := domain.NewRadikoSchedule()
	sc.SetStation(station.Entity)
	sc.SetProgramName(name)
	sc.SetWeekDay(domain.SelectValue{Value: weekDay})
	sc.SetStartTime(start)
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		sc.SetNotes(notes)
	}
	if in.FavoRate != nil {
		sc.SetFavoRate(*in.FavoRate)
	}
	return sc, nil
}

func (s *ScheduleService) resolveStation(ctx context.Context, oid, callSign string) (domain.RadikoStation, error) {
	var (
		st  domain.RadikoStation
		err error
	)
	switch {
	case strings.TrimSpace(oid) != "":
		st, err = s.stations.LoadNonRef(ctx, strings.TrimSpace(oid))
		if errors.Is(err, ErrNotFound) {
			err = nil
		}
	case strings.TrimSpace(callSign) != "":
		st, err = s.stations.FindByCallSign(ctx, strings.ToUpper(callSign))
	default:
		return st, invalidParams("missing station")
	}
	if err != nil {
		return st, err
	}
	if st.Base() == nil {
		return st, &CodedError{Code: "unknown_station", Message: "unknown station", Err: ErrNotFound}
	}
	return st, nil
}

// Get charge le créneau avec sa station et ses programmes.
func (s *ScheduleService) Get(ctx context.Context, oid string) (ScheduleDTO, error) {
	sc, err := s.schedules.Load(ctx, strings.TrimSpace(oid))
	if err != nil {
		return ScheduleDTO{}, err
	}
	if sc.Base() == nil {
		return ScheduleDTO{}, ErrNotFound
	}
	return toScheduleDTO(sc), nil
}

// List renvoie les créneaux, filtrés par jour si weekDay est renseigné.
func (s *ScheduleService) List(ctx context.Context, weekDay string, limit int) ([]ScheduleDTO, error) {
	var (
		list []domain.RadikoSchedule
		err  error
	)
	if wd := strings.ToUpper(strings.TrimSpace(weekDay)); wd != "" {
		if _, ok := domain.ParseWeekDay(wd); !ok {
			return nil, invalidParams(fmt.Sprintf("invalid weekDay %q", weekDay))
		}
		list, err = s.schedules.FindByWeekDay(ctx, wd)
	} else {
		list, err = s.schedules.ListAll(ctx, limit)
	}
	if err != nil {
		return nil, err
	}
	out := make([]ScheduleDTO, 0, len(list))
	for _, sc := range list {
		out = append(out, toScheduleDTO(sc))
	}
	return out, nil
}

// All et Entity renvoient les entités brutes (utilisées par le planner).
func (s *ScheduleService) All(ctx context.Context) ([]domain.RadikoSchedule, error) {
	return s.schedules.ListAll(ctx, 0)
}

func (s *ScheduleService) Entity(ctx context.Context, oid string) (domain.RadikoSchedule, error) {
	sc, err := s.schedules.LoadNonRef(ctx, strings.TrimSpace(oid))
	if err != nil {
		return domain.RadikoSchedule{}, err
	}
	if sc.Base() == nil {
		return domain.RadikoSchedule{}, ErrNotFound
	}
	return sc, nil
}

func (s *ScheduleService) Delete(ctx context.Context, oid string) error {
	sc, err := s.schedules.LoadNonRef(ctx, strings.TrimSpace(oid))
	if err != nil {
		return err
	}
	if sc.Base() == nil {
		return ErrNotFound
	}
	return s.schedules.DeleteLogical(ctx, sc)
}
