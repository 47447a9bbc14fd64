package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/dao"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/schema"
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestManager(t *testing.T) (*EntityManager, *DB, *memorybus.Bus) {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	bus := memorybus.New()
	em := NewEntityManager(db.SQL, schema.Radiko(), bus, zerolog.Nop())
	clock := &stepClock{t: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
	em.Now = clock.Now
	return em, db, bus
}

type fixture struct {
	station  domain.RadikoStation
	schedule domain.RadikoSchedule
}

func seed(t *testing.T, em *EntityManager) fixture {
	t.Helper()
	ctx := context.Background()

	st := domain.NewRadikoStation()
	st.SetCallSign("TBS")
	st.SetStationName("TBSラジオ")
	if _, err := em.Insert(ctx, st.Entity, domain.InsertOption{}); err != nil {
		t.Fatalf("Insert station: %v", err)
	}

	sc := domain.NewRadikoSchedule()
	sc.SetStation(st.Entity)
	sc.SetProgramName("JUNK")
	sc.SetWeekDay(domain.SelectValue{Value: domain.WeekDayMonday})
	sc.SetStartTime(domain.TimeOfDay{Hour: 1})
	sc.SetFavoRate(5)
	if _, err := em.Insert(ctx, sc.Entity, domain.InsertOption{}); err != nil {
		t.Fatalf("Insert schedule: %v", err)
	}
	return fixture{station: st, schedule: sc}
}

func insertProgram(t *testing.T, em *EntityManager, f fixture, name string, start time.Time) domain.RadikoProgram {
	t.Helper()
	p := domain.NewRadikoProgram()
	p.SetParentSchedule(f.schedule.Entity)
	p.SetRadikoStation(f.station.Entity)
	p.SetProgramName(name)
	p.SetStartDatetime(start)
	p.SetDeadline(start.Add(7 * 24 * time.Hour))
	p.SetListenStatus(domain.SelectValue{Value: domain.ListenUnlistened})
	if _, err := em.Insert(context.Background(), p.Entity, domain.InsertOption{}); err != nil {
		t.Fatalf("Insert program: %v", err)
	}
	return p
}

func TestLoad_ResolveReferences(t *testing.T) {
	em, _, _ := newTestManager(t)
	f := seed(t, em)
	start := time.Date(2024, 4, 1, 16, 0, 0, 0, time.UTC)
	p := insertProgram(t, em, f, "JUNK 伊集院光", start)
	ctx := context.Background()

	plain, err := em.Load(ctx, p.OID, domain.RadikoProgramDefinition, domain.LoadOption{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	stub := plain.Reference(domain.ProgramRadikoStation)
	if stub == nil || stub.OID != f.station.OID {
		t.Fatalf("station stub: got %v", stub)
	}
	if stub.Has(domain.StationCallSign) {
		t.Fatalf("stub should carry the oid only")
	}
	got, ok := domain.AsRadikoProgram(plain).StartDatetime()
	if !ok || !got.Equal(start) {
		t.Fatalf("startDatetime: want %v, got %v", start, got)
	}
	if plain.Version != 1 {
		t.Fatalf("version: want 1, got %d", plain.Version)
	}

	full, err := em.Load(ctx, p.OID, domain.RadikoProgramDefinition, domain.LoadOption{ResolveReferences: true})
	if err != nil {
		t.Fatalf("Load resolved: %v", err)
	}
	if cs := domain.AsRadikoStation(full.Reference(domain.ProgramRadikoStation)).CallSign(); cs != "TBS" {
		t.Fatalf("callSign: want TBS, got %q", cs)
	}

	sc, err := em.Load(ctx, f.schedule.OID, domain.RadikoScheduleDefinition, domain.LoadOption{ResolveReferences: true})
	if err != nil {
		t.Fatalf("Load schedule: %v", err)
	}
	children := domain.AsRadikoSchedule(sc).ChildProgram()
	if len(children) != 1 || children[0].OID != p.OID {
		t.Fatalf("childProgram: got %v", children)
	}
	wd, _ := domain.AsRadikoSchedule(sc).WeekDay()
	if wd.Value != domain.WeekDayMonday || wd.Label == "" {
		t.Fatalf("weekDay: got %+v", wd)
	}
	if fr, ok := domain.AsRadikoSchedule(sc).FavoRate(); !ok || fr != 5 {
		t.Fatalf("FavoRate: want 5, got %d", fr)
	}
}

func TestFindBetweenStartDate(t *testing.T) {
	em, _, _ := newTestManager(t)
	f := seed(t, em)
	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	late := insertProgram(t, em, f, "late", day.Add(20*time.Hour))
	early := insertProgram(t, em, f, "early", day.Add(2*time.Hour))
	insertProgram(t, em, f, "next day", day.Add(30*time.Hour))

	programs := dao.NewRadikoProgramDao(em)
	list, err := programs.FindBetweenStartDate(context.Background(), day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("FindBetweenStartDate: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len: want 2, got %d", len(list))
	}
	if list[0].OID != early.OID || list[1].OID != late.OID {
		t.Fatalf("order: got %s, %s", list[0].ProgramName(), list[1].ProgramName())
	}
	st := domain.AsRadikoStation(list[0].RadikoStation())
	if st.CallSign() != "TBS" || st.StationName() != "TBSラジオ" {
		t.Fatalf("station projection: got %q %q", st.CallSign(), st.StationName())
	}
	if ps := list[0].ParentSchedule(); ps == nil || ps.OID != f.schedule.OID {
		t.Fatalf("parentSchedule: got %v", ps)
	}
	if status, _ := list[0].ListenStatus(); status.Value != domain.ListenUnlistened {
		t.Fatalf("listenStatus: got %+v", status)
	}

	empty, err := programs.FindBetweenStartDate(context.Background(), day.Add(48*time.Hour), day.Add(72*time.Hour))
	if err != nil {
		t.Fatalf("FindBetweenStartDate: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("want no program, got %d", len(empty))
	}
}

func TestInsert_ValidationAndConflict(t *testing.T) {
	em, _, _ := newTestManager(t)
	f := seed(t, em)
	ctx := context.Background()

	p := domain.NewRadikoProgram()
	p.SetRadikoStation(domain.Ref(domain.RadikoStationDefinition, "missing"))
	p.SetListenStatus(domain.SelectValue{Value: "paused"})
	_, err := em.Insert(ctx, p.Entity, domain.InsertOption{})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	bad := map[string]bool{}
	for _, e := range verr.Result.Errors {
		bad[e.Property] = true
	}
	for _, prop := range []string{domain.ProgramRadikoStation, domain.ProgramProgramName, domain.ProgramStartDatetime, domain.ProgramListenStatus} {
		if !bad[prop] {
			t.Fatalf("expected an error on %s, got %v", prop, verr.Result.Errors)
		}
	}

	dup := domain.NewRadikoStation()
	dup.OID = f.station.OID
	dup.SetCallSign("QRR")
	if _, err := em.Insert(ctx, dup.Entity, domain.InsertOption{}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestUpdate_PropertiesAndTimestamp(t *testing.T) {
	em, _, _ := newTestManager(t)
	f := seed(t, em)
	p := insertProgram(t, em, f, "JUNK", time.Date(2024, 4, 1, 16, 0, 0, 0, time.UTC))
	ctx := context.Background()

	a, err := em.Load(ctx, p.OID, domain.RadikoProgramDefinition, domain.LoadOption{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b := a.Clone()

	a.SetValue(domain.ProgramNote, "podcast")
	a.SetValue(domain.ProgramProgramName, "ignored")
	if err := em.Update(ctx, a, domain.UpdateOption{Properties: []string{domain.ProgramNote}, CheckTimestamp: true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if a.Version != 2 {
		t.Fatalf("version: want 2, got %d", a.Version)
	}

	got, err := em.Load(ctx, p.OID, domain.RadikoProgramDefinition, domain.LoadOption{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.StringValue(domain.ProgramNote) != "podcast" {
		t.Fatalf("note: got %q", got.StringValue(domain.ProgramNote))
	}
	if got.StringValue(domain.ProgramProgramName) != "JUNK" {
		t.Fatalf("programName should not change, got %q", got.StringValue(domain.ProgramProgramName))
	}

	b.SetValue(domain.ProgramNote, "stale")
	err = em.Update(ctx, b, domain.UpdateOption{Properties: []string{domain.ProgramNote}, CheckTimestamp: true})
	if !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}

	got.SetValue(domain.ProgramNote, nil)
	if err := em.Update(ctx, got, domain.UpdateOption{Properties: []string{domain.ProgramNote}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, _ := em.Load(ctx, p.OID, domain.RadikoProgramDefinition, domain.LoadOption{})
	if again.Has(domain.ProgramNote) {
		t.Fatalf("note should be cleared")
	}
}

func TestDelete_LogicalAndPurge(t *testing.T) {
	em, db, _ := newTestManager(t)
	f := seed(t, em)
	start := time.Date(2024, 4, 1, 16, 0, 0, 0, time.UTC)
	logical := insertProgram(t, em, f, "logical", start)
	purged := insertProgram(t, em, f, "purged", start.Add(time.Hour))
	ctx := context.Background()

	if err := em.Delete(ctx, logical.Entity, domain.DeleteOption{}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := em.Delete(ctx, purged.Entity, domain.DeleteOption{Purge: true}); err != nil {
		t.Fatalf("Delete purge: %v", err)
	}

	for _, oid := range []string{logical.OID, purged.OID} {
		if _, err := em.Load(ctx, oid, domain.RadikoProgramDefinition, domain.LoadOption{}); !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("Load %s: want ErrNotFound, got %v", oid, err)
		}
	}

	var n int
	if err := db.SQL.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities WHERE oid IN (?, ?)`, logical.OID, purged.OID).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows left: want 1, got %d", n)
	}

	count, err := em.Count(ctx, domain.Query{From: domain.RadikoProgramDefinition})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("count: want 0, got %d", count)
	}
}

func TestLoadAndLock(t *testing.T) {
	em, _, _ := newTestManager(t)
	f := seed(t, em)
	ctx := context.Background()

	locked, err := em.LoadAndLock(ctx, f.station.OID, domain.RadikoStationDefinition, domain.LoadOption{})
	if err != nil {
		t.Fatalf("LoadAndLock: %v", err)
	}
	if locked.LockToken == "" {
		t.Fatalf("lock token not set")
	}
	if _, err := em.LoadAndLock(ctx, f.station.OID, domain.RadikoStationDefinition, domain.LoadOption{}); !errors.Is(err, ports.ErrLocked) {
		t.Fatalf("second lock: want ErrLocked, got %v", err)
	}

	other, _ := em.Load(ctx, f.station.OID, domain.RadikoStationDefinition, domain.LoadOption{})
	other.SetValue(domain.StationStationName, "other")
	if err := em.Update(ctx, other, domain.UpdateOption{Properties: []string{domain.StationStationName}}); !errors.Is(err, ports.ErrLocked) {
		t.Fatalf("update without token: want ErrLocked, got %v", err)
	}
	if err := em.Unlock(ctx, f.station.OID, "wrong"); !errors.Is(err, ports.ErrLocked) {
		t.Fatalf("unlock with wrong token: want ErrLocked, got %v", err)
	}

	locked.SetValue(domain.StationStationName, "TBS RADIO")
	if err := em.Update(ctx, locked, domain.UpdateOption{Properties: []string{domain.StationStationName}}); err != nil {
		t.Fatalf("Update with token: %v", err)
	}
	if locked.LockToken != "" {
		t.Fatalf("update should release the lock")
	}

	relocked, err := em.LoadAndLock(ctx, f.station.OID, domain.RadikoStationDefinition, domain.LoadOption{})
	if err != nil {
		t.Fatalf("LoadAndLock after update: %v", err)
	}
	if err := em.Unlock(ctx, f.station.OID, relocked.LockToken); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	em.LockTTL = time.Millisecond
	if _, err := em.LoadAndLock(ctx, f.station.OID, domain.RadikoStationDefinition, domain.LoadOption{}); err != nil {
		t.Fatalf("LoadAndLock: %v", err)
	}
	// l'horloge avance d'une seconde à chaque appel: le verrou a expiré
	if _, err := em.LoadAndLock(ctx, f.station.OID, domain.RadikoStationDefinition, domain.LoadOption{}); err != nil {
		t.Fatalf("expired lock should be taken over: %v", err)
	}
}

func TestExpireBefore(t *testing.T) {
	em, _, _ := newTestManager(t)
	f := seed(t, em)
	ctx := context.Background()
	now := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)

	overdue := insertProgram(t, em, f, "overdue", time.Date(2024, 4, 1, 1, 0, 0, 0, time.UTC))
	listened := insertProgram(t, em, f, "listened", time.Date(2024, 4, 2, 1, 0, 0, 0, time.UTC))
	fresh := insertProgram(t, em, f, "fresh", time.Date(2024, 4, 19, 1, 0, 0, 0, time.UTC))

	listened.SetListenStatus(domain.SelectValue{Value: domain.ListenListened})
	if err := em.Update(ctx, listened.Entity, domain.UpdateOption{Properties: []string{domain.ProgramListenStatus}}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	n, err := dao.NewRadikoProgramDao(em).ExpireBefore(ctx, now)
	if err != nil {
		t.Fatalf("ExpireBefore: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired: want 1, got %d", n)
	}

	want := map[string]string{
		overdue.OID:  domain.ListenExpired,
		listened.OID: domain.ListenListened,
		fresh.OID:    domain.ListenUnlistened,
	}
	for oid, status := range want {
		e, err := em.Load(ctx, oid, domain.RadikoProgramDefinition, domain.LoadOption{})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got, _ := domain.AsRadikoProgram(e).ListenStatus(); got.Value != status {
			t.Fatalf("%s: want %s, got %s", oid, status, got.Value)
		}
	}

	_, err = em.UpdateAll(ctx, domain.UpdateCondition{
		Definition: domain.RadikoProgramDefinition,
		Values:     []domain.UpdateValue{{Property: domain.ProgramListenStatus, Value: "paused"}},
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestSearch_RowsAndCount(t *testing.T) {
	em, _, _ := newTestManager(t)
	f := seed(t, em)
	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		insertProgram(t, em, f, "p", day.Add(time.Duration(i)*time.Hour))
	}
	ctx := context.Background()

	res, err := em.Search(ctx, domain.Query{
		Select:  []string{domain.ProgramStartDatetime, "radikoStation.callSign"},
		From:    domain.RadikoProgramDefinition,
		OrderBy: []domain.Sort{domain.Desc(domain.ProgramStartDatetime)},
		Limit:   2,
	}, domain.SearchOption{CountTotal: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.List) != 2 || res.TotalCount != 3 {
		t.Fatalf("want 2 rows of 3, got %d of %d", len(res.List), res.TotalCount)
	}
	first, ok := res.List[0][0].(time.Time)
	if !ok || !first.Equal(day.Add(2*time.Hour)) {
		t.Fatalf("first row: got %v", res.List[0][0])
	}
	if res.List[0][1] != "TBS" {
		t.Fatalf("callSign column: got %v", res.List[0][1])
	}

	_, err = em.SearchEntity(ctx, domain.Query{
		From:  domain.RadikoProgramDefinition,
		Where: domain.Eq("radikoStation.callSign", "TBS"),
	}, domain.SearchOption{})
	if !errors.Is(err, ports.ErrUnsupportedQuery) {
		t.Fatalf("want ErrUnsupportedQuery, got %v", err)
	}

	_, err = em.Count(ctx, domain.Query{From: "ctp.unknown"})
	if !errors.Is(err, ports.ErrUnknownDefinition) {
		t.Fatalf("want ErrUnknownDefinition, got %v", err)
	}
}

func TestListeners(t *testing.T) {
	em, _, bus := newTestManager(t)
	ch, cancel := bus.Subscribe()
	defer cancel()
	ctx := context.Background()

	st := domain.NewRadikoStation()
	st.SetCallSign("LFR")
	if _, err := em.Insert(ctx, st.Entity, domain.InsertOption{}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	select {
	case evt := <-ch:
		if evt.Topic != ports.TopicEntityInserted {
			t.Fatalf("topic: got %s", evt.Topic)
		}
		var payload ports.EntityEvent
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload.OID != st.OID || payload.Definition != domain.RadikoStationDefinition {
			t.Fatalf("payload: got %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event published")
	}

	quiet := domain.NewRadikoStation()
	quiet.SetCallSign("QRR")
	if _, err := em.Insert(ctx, quiet.Entity, domain.InsertOption{SkipListeners: true}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %s", evt.Topic)
	default:
	}
}
