package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/dao"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/objectutil"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

// Format des dates dans les URL timefree radiko.
const radikoTimeLayout = "20060102150405"

const DefaultURLTemplate = "https://radiko.jp/#!/ts/{callSign}/{startDatetime}"

type ProgramService struct {
	programs *dao.RadikoProgramDao
	stations *dao.RadikoStationDao

	URLTemplate  string
	ListenWindow time.Duration
	Location     *time.Location
	Now          func() time.Time
}

func NewProgramService(em ports.EntityManager) *ProgramService {
	return &ProgramService{
		programs:     dao.NewRadikoProgramDao(em),
		stations:     dao.NewRadikoStationDao(em),
		URLTemplate:  DefaultURLTemplate,
		ListenWindow: 7 * 24 * time.Hour,
		Location:     time.UTC,
		Now:          time.Now,
	}
}

type ProgramDTO struct {
	OID           string     `json:"oid"`
	ScheduleOID   string     `json:"scheduleOid,omitempty"`
	StationOID    string     `json:"stationOid,omitempty"`
	CallSign      string     `json:"callSign,omitempty"`
	StationName   string     `json:"stationName,omitempty"`
	ProgramName   string     `json:"programName"`
	StartDatetime time.Time  `json:"startDatetime"`
	Note          string     `json:"note,omitempty"`
	RadikoURL     string     `json:"radikoUrl,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	ListenStatus  string     `json:"listenStatus,omitempty"`
	Version       int64      `json:"version,omitempty"`
}

func (s *ProgramService) toDTO(p domain.RadikoProgram) ProgramDTO {
	dto := ProgramDTO{
		OID:         p.OID,
		ProgramName: p.ProgramName(),
		Note:        p.Note(),
		RadikoURL:   p.RadikoURL(),
		Version:     p.Version,
	}
	if sc := p.ParentSchedule(); sc != nil {
		dto.ScheduleOID = sc.OID
	}
	if st := p.RadikoStation(); st != nil {
		station := domain.AsRadikoStation(st)
		dto.StationOID = st.OID
		dto.CallSign = station.CallSign()
		dto.StationName = station.StationName()
	}
	if t, ok := p.StartDatetime(); ok {
		dto.StartDatetime = t.In(s.loc())
	}
	if t, ok := p.Deadline(); ok {
		d := t.In(s.loc())
		dto.Deadline = &d
	}
	if st, ok := p.ListenStatus(); ok {
		dto.ListenStatus = st.Value
	}
	return dto
}

func (s *ProgramService) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *ProgramService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// RadikoURL construit l'URL timefree d'une diffusion.
func (s *ProgramService) RadikoURL(callSign string, start time.Time) string {
	tmpl := s.URLTemplate
	if objectutil.IsBlank(tmpl) {
		tmpl = DefaultURLTemplate
	}
	return objectutil.Replace(tmpl, map[string]string{
		"callSign":      callSign,
		"startDatetime": start.In(s.loc()).Format(radikoTimeLayout),
	})
}

type ReserveInput struct {
	CallSign      string    `json:"callSign"`
	ProgramName   string    `json:"programName"`
	StartDatetime time.Time `json:"startDatetime"`
	Note          string    `json:"note,omitempty"`
}

// Reserve réserve une diffusion ponctuelle, sans créneau parent.
func (s *ProgramService) Reserve(ctx context.Context, in ReserveInput) (ProgramDTO, error) {
	callSign := strings.ToUpper(strings.TrimSpace(in.CallSign))
	if callSign == "" {
		return ProgramDTO{}, invalidParams("missing callSign")
	}
	if strings.TrimSpace(in.ProgramName) == "" {
		return ProgramDTO{}, invalidParams("missing programName")
	}
	if in.StartDatetime.IsZero() {
		return ProgramDTO{}, invalidParams("missing startDatetime")
	}
	station, err := s.stations.FindByCallSign(ctx, callSign)
	if err != nil {
		return ProgramDTO{}, err
	}
	if station.Base() == nil {
		return ProgramDTO{}, &CodedError{Code: "unknown_station", Message: "unknown station " + callSign, Err: ErrNotFound}
	}
	p := s.newProgram(station, strings.TrimSpace(in.ProgramName), in.StartDatetime)
	if note := strings.TrimSpace(in.Note); note != "" {
		p.SetNote(note)
	}
	if _, err := s.programs.Insert(ctx, p); err != nil {
		return ProgramDTO{}, err
	}
	return s.toDTO(p), nil
}

func (s *ProgramService) newProgram(station domain.RadikoStation, name string, start time.Time) domain.RadikoProgram {
	p := domain.NewRadikoProgram()
	p.SetRadikoStation(station.Entity)
	p.SetProgramName(name)
	p.SetStartDatetime(start)
	p.SetRadikoURL(s.RadikoURL(station.CallSign(), start))
	if s.ListenWindow > 0 {
		p.SetDeadline(start.Add(s.ListenWindow))
	}
	p.SetListenStatus(domain.SelectValue{Value: domain.ListenUnlistened})
	return p
}

// ReserveFromSchedule matérialise l'occurrence d'un créneau à start.
// L'opération est idempotente: une occurrence déjà réservée est renvoyée telle quelle
// (created = false).
func (s *ProgramService) ReserveFromSchedule(ctx context.Context, schedule domain.RadikoSchedule, start time.Time) (ProgramDTO, bool, error) {
	if schedule.Base() == nil || schedule.OID == "" {
		return ProgramDTO{}, false, invalidParams("missing schedule")
	}
	existing, err := s.programs.FindByScheduleAndStart(ctx, schedule.OID, start)
	if err != nil {
		return ProgramDTO{}, false, err
	}
	if existing.Base() != nil {
		return s.toDTO(existing), false, nil
	}

	stationRef := schedule.Station()
	if stationRef == nil {
		return ProgramDTO{}, false, &CodedError{Code: "unknown_station", Message: "schedule without station"}
	}
	station := domain.AsRadikoStation(stationRef)
	if station.CallSign() == "" {
		// talon: on recharge la station pour l'indicatif
		station, err = s.stations.LoadNonRef(ctx, stationRef.OID)
		if err != nil {
			return ProgramDTO{}, false, err
		}
	}

	p := s.newProgram(station, schedule.ProgramName(), start)
	p.SetParentSchedule(schedule.Entity)
	if notes := schedule.Notes(); notes != "" {
		p.SetNote(notes)
	}
	if _, err := s.programs.Insert(ctx, p); err != nil {
		return ProgramDTO{}, false, err
	}
	return s.toDTO(p), true, nil
}

func (s *ProgramService) Get(ctx context.Context, oid string) (ProgramDTO, error) {
	p, err := s.programs.Load(ctx, strings.TrimSpace(oid))
	if err != nil {
		return ProgramDTO{}, err
	}
	if p.Base() == nil {
		return ProgramDTO{}, ErrNotFound
	}
	return s.toDTO(p), nil
}

func (s *ProgramService) BySchedule(ctx context.Context, scheduleOID string) ([]ProgramDTO, error) {
	list, err := s.programs.FindBySchedule(ctx, strings.TrimSpace(scheduleOID))
	if err != nil {
		return nil, err
	}
	out := make([]ProgramDTO, 0, len(list))
	for _, p := range list {
		out = append(out, s.toDTO(p))
	}
	return out, nil
}

// Between renvoie les diffusions dont le début est dans [from, to], par ordre chronologique.
func (s *ProgramService) Between(ctx context.Context, from, to time.Time) ([]ProgramDTO, error) {
	if to.Before(from) {
		return nil, invalidParams("to is before from")
	}
	list, err := s.programs.FindBetweenStartDate(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]ProgramDTO, 0, len(list))
	for _, p := range list {
		out = append(out, s.toDTO(p))
	}
	return out, nil
}

// SetListenStatus change le statut sous verrou: deux clients ne peuvent pas
// marquer la même diffusion en même temps.
func (s *ProgramService) SetListenStatus(ctx context.Context, oid, status string) (ProgramDTO, error) {
	switch status {
	case domain.ListenUnlistened, domain.ListenListened, domain.ListenExpired:
	default:
		return ProgramDTO{}, invalidParams(fmt.Sprintf("invalid listenStatus %q", status))
	}
	p, err := s.programs.LoadAndLock(ctx, strings.TrimSpace(oid))
	if err != nil {
		return ProgramDTO{}, err
	}
	if p.Base() == nil {
		return ProgramDTO{}, ErrNotFound
	}
	p.SetListenStatus(domain.SelectValue{Value: status})
	if err := s.programs.UpdateProperties(ctx, p, domain.ProgramListenStatus); err != nil {
		if uerr := s.programs.Unlock(ctx, p); uerr != nil {
			err = errors.Join(err, uerr)
		}
		return ProgramDTO{}, err
	}
	return s.Get(ctx, p.OID)
}

func (s *ProgramService) MarkListened(ctx context.Context, oid string) (ProgramDTO, error) {
	return s.SetListenStatus(ctx, oid, domain.ListenListened)
}

// ExpireOverdue passe en expiré les diffusions non écoutées dont le délai est dépassé.
func (s *ProgramService) ExpireOverdue(ctx context.Context) (int, error) {
	return s.programs.ExpireBefore(ctx, s.now())
}

func (s *ProgramService) Delete(ctx context.Context, oid string) error {
	p, err := s.programs.LoadNonRef(ctx, strings.TrimSpace(oid))
	if err != nil {
		return err
	}
	if p.Base() == nil {
		return ErrNotFound
	}
	return s.programs.Delete(ctx, p)
}
