package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/schema"
)

var jst = time.FixedZone("JST", 9*3600)

type services struct {
	stations  *StationService
	schedules *ScheduleService
	programs  *ProgramService
	bus       *memorybus.Bus
}

func newServices(t *testing.T, now time.Time) services {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	bus := memorybus.New()
	em := sqlite.NewEntityManager(db.SQL, schema.Radiko(), bus, zerolog.Nop())
	programs := NewProgramService(em)
	programs.Location = jst
	programs.Now = func() time.Time { return now }
	return services{
		stations:  NewStationService(em),
		schedules: NewScheduleService(em),
		programs:  programs,
		bus:       bus,
	}
}

func TestProgramService_Reserve(t *testing.T) {
	svc := newServices(t, time.Date(2024, 4, 1, 0, 0, 0, 0, jst))
	ctx := context.Background()

	if _, err := svc.stations.Create(ctx, "tbs", "TBSラジオ"); err != nil {
		t.Fatalf("Create station: %v", err)
	}
	start := time.Date(2024, 4, 2, 1, 0, 0, 0, jst)
	p, err := svc.programs.Reserve(ctx, ReserveInput{CallSign: "TBS", ProgramName: "JUNK", StartDatetime: start})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if p.RadikoURL != "https://radiko.jp/#!/ts/TBS/20240402010000" {
		t.Fatalf("radikoUrl: got %q", p.RadikoURL)
	}
	if p.Deadline == nil || !p.Deadline.Equal(start.Add(7*24*time.Hour)) {
		t.Fatalf("deadline: got %v", p.Deadline)
	}
	if p.ListenStatus != domain.ListenUnlistened {
		t.Fatalf("listenStatus: got %q", p.ListenStatus)
	}

	got, err := svc.programs.Get(ctx, p.OID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CallSign != "TBS" || got.StationName != "TBSラジオ" || !got.StartDatetime.Equal(start) {
		t.Fatalf("Get: got %+v", got)
	}

	_, err = svc.programs.Reserve(ctx, ReserveInput{CallSign: "QRR", ProgramName: "x", StartDatetime: start})
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != "unknown_station" || !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown station: got %v", err)
	}
	if _, err := svc.programs.Reserve(ctx, ReserveInput{CallSign: "TBS"}); !errors.As(err, &coded) || coded.Code != "invalid_params" {
		t.Fatalf("missing fields: got %v", err)
	}
}

func TestProgramService_SetListenStatus(t *testing.T) {
	svc := newServices(t, time.Date(2024, 4, 1, 0, 0, 0, 0, jst))
	ctx := context.Background()
	if _, err := svc.stations.Create(ctx, "TBS", ""); err != nil {
		t.Fatalf("Create station: %v", err)
	}
	p, err := svc.programs.Reserve(ctx, ReserveInput{CallSign: "TBS", ProgramName: "JUNK", StartDatetime: time.Date(2024, 4, 2, 1, 0, 0, 0, jst)})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	updated, err := svc.programs.MarkListened(ctx, p.OID)
	if err != nil {
		t.Fatalf("MarkListened: %v", err)
	}
	if updated.ListenStatus != domain.ListenListened || updated.Version != 2 {
		t.Fatalf("updated: got %+v", updated)
	}
	// le verrou est libéré par l'update
	if _, err := svc.programs.SetListenStatus(ctx, p.OID, domain.ListenUnlistened); err != nil {
		t.Fatalf("SetListenStatus: %v", err)
	}

	var coded *CodedError
	if _, err := svc.programs.SetListenStatus(ctx, p.OID, "paused"); !errors.As(err, &coded) {
		t.Fatalf("invalid status: got %v", err)
	}
	if _, err := svc.programs.MarkListened(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing program: got %v", err)
	}
}

func TestProgramService_Between(t *testing.T) {
	svc := newServices(t, time.Date(2024, 4, 1, 0, 0, 0, 0, jst))
	ctx := context.Background()
	if _, err := svc.stations.Create(ctx, "TBS", ""); err != nil {
		t.Fatalf("Create station: %v", err)
	}
	day := time.Date(2024, 4, 1, 0, 0, 0, 0, jst)
	for _, h := range []int{22, 1, 49} {
		if _, err := svc.programs.Reserve(ctx, ReserveInput{CallSign: "TBS", ProgramName: "p", StartDatetime: day.Add(time.Duration(h) * time.Hour)}); err != nil {
			t.Fatalf("Reserve: %v", err)
		}
	}

	list, err := svc.programs.Between(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	if len(list) != 2 || list[0].StartDatetime.Hour() != 1 || list[1].StartDatetime.Hour() != 22 {
		t.Fatalf("Between: got %+v", list)
	}
	if list[0].CallSign != "TBS" {
		t.Fatalf("callSign: got %q", list[0].CallSign)
	}
	if _, err := svc.programs.Between(ctx, day.Add(time.Hour), day); err == nil {
		t.Fatalf("reversed range should be rejected")
	}
}

func TestStationService(t *testing.T) {
	svc := newServices(t, time.Now())
	ctx := context.Background()

	st, err := svc.stations.Create(ctx, " lfr ", "ニッポン放送")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if st.CallSign != "LFR" {
		t.Fatalf("callSign: got %q", st.CallSign)
	}
	if _, err := svc.stations.Create(ctx, "LFR", ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate: want ErrConflict, got %v", err)
	}
	renamed, err := svc.stations.Rename(ctx, st.OID, "ニッポン放送 1242")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.StationName != "ニッポン放送 1242" {
		t.Fatalf("Rename: got %q", renamed.StationName)
	}
	if _, err := svc.stations.Create(ctx, strings.Repeat("X", 40), ""); err == nil {
		t.Fatalf("too long callSign should be rejected")
	}
	if err := svc.stations.Delete(ctx, st.OID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.stations.Get(ctx, st.OID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: got %v", err)
	}
	if _, err := svc.stations.Get(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get blank: got %v", err)
	}
}
