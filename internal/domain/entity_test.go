package domain

import (
	"testing"
	"time"
)

func TestTimeOfDay(t *testing.T) {
	for _, in := range []string{"01:30", "01:30:00", " 01:30:00 "} {
		got, err := ParseTimeOfDay(in)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", in, err)
		}
		if got.String() != "01:30:00" {
			t.Fatalf("ParseTimeOfDay(%q): got %s", in, got)
		}
	}
	if _, err := ParseTimeOfDay("25:00"); err == nil {
		t.Fatalf("25:00 should be rejected")
	}

	jst := time.FixedZone("JST", 9*3600)
	d := time.Date(2024, 4, 1, 18, 45, 0, 0, jst)
	on := TimeOfDay{Hour: 1, Minute: 30}.On(d)
	if !on.Equal(time.Date(2024, 4, 1, 1, 30, 0, 0, jst)) {
		t.Fatalf("On: got %v", on)
	}
}

func TestEntity_TypedGetters(t *testing.T) {
	e := NewEntity(RadikoScheduleDefinition)
	e.SetValue(ScheduleFavoRate, 3)
	e.SetValue(ScheduleStartTime, "01:00")
	e.SetValue(ScheduleWeekDay, "MON")
	e.SetValue(ScheduleStation, Ref(RadikoStationDefinition, "st"))

	s := AsRadikoSchedule(e)
	if n, ok := s.FavoRate(); !ok || n != 3 {
		t.Fatalf("FavoRate: got %d, %v", n, ok)
	}
	if tod, ok := s.StartTime(); !ok || tod.Hour != 1 {
		t.Fatalf("StartTime: got %v, %v", tod, ok)
	}
	if wd, ok := s.WeekDay(); !ok || wd.Value != WeekDayMonday {
		t.Fatalf("WeekDay: got %v, %v", wd, ok)
	}
	if st := s.Station(); st == nil || st.OID != "st" {
		t.Fatalf("Station: got %v", st)
	}
	if refs := e.References(ScheduleStation); len(refs) != 1 {
		t.Fatalf("References on a single reference: got %v", refs)
	}
	if s.Notes() != "" {
		t.Fatalf("Notes: got %q", s.Notes())
	}

	var zero RadikoSchedule
	if zero.Base() != nil || zero.ProgramName() != "" {
		t.Fatalf("zero schedule should be empty")
	}
}

func TestEntity_CloneIsIndependent(t *testing.T) {
	e := NewEntity(RadikoStationDefinition)
	e.SetValue(StationCallSign, "TBS")
	c := e.Clone()
	c.SetValue(StationCallSign, "QRR")
	c.Unset(StationStationName)

	if e.StringValue(StationCallSign) != "TBS" {
		t.Fatalf("clone should not alias values")
	}
	if names := c.PropertyNames(); len(names) != 1 || names[0] != StationCallSign {
		t.Fatalf("PropertyNames: got %v", names)
	}
}

func TestParseWeekDay(t *testing.T) {
	if d, ok := ParseWeekDay(WeekDaySunday); !ok || d != time.Sunday {
		t.Fatalf("SUN: got %v, %v", d, ok)
	}
	if _, ok := ParseWeekDay("mon"); ok {
		t.Fatalf("week days are case sensitive")
	}
}

func TestAndOr(t *testing.T) {
	if And() != nil || Or(nil, nil) != nil {
		t.Fatalf("empty junction should be nil")
	}
	single := Eq(StationCallSign, "TBS")
	if And(nil, single) != single {
		t.Fatalf("single condition should be returned as is")
	}
	j, ok := Or(single, IsNull(StationStationName)).(Junction)
	if !ok || !j.Or || len(j.Conditions) != 2 {
		t.Fatalf("Or: got %#v", j)
	}
}

func TestDefinition_Check(t *testing.T) {
	cases := []struct {
		name string
		def  Definition
		ok   bool
	}{
		{"valid", Definition{Name: "d", Properties: []PropertyDefinition{{Name: "a", Type: TypeString}}}, true},
		{"no name", Definition{}, false},
		{"oid reserved", Definition{Name: "d", Properties: []PropertyDefinition{{Name: "oid", Type: TypeString}}}, false},
		{"bad name", Definition{Name: "d", Properties: []PropertyDefinition{{Name: "a.b", Type: TypeString}}}, false},
		{"duplicate", Definition{Name: "d", Properties: []PropertyDefinition{{Name: "a", Type: TypeString}, {Name: "a", Type: TypeLong}}}, false},
		{"unknown type", Definition{Name: "d", Properties: []PropertyDefinition{{Name: "a", Type: "blob"}}}, false},
		{"reference without target", Definition{Name: "d", Properties: []PropertyDefinition{{Name: "a", Type: TypeReference}}}, false},
		{"select without options", Definition{Name: "d", Properties: []PropertyDefinition{{Name: "a", Type: TypeSelect}}}, false},
		{"mappedBy single", Definition{Name: "d", Properties: []PropertyDefinition{{Name: "a", Type: TypeReference, ReferenceTo: "x", MappedBy: "b"}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.def.Check()
			if (err == nil) != tc.ok {
				t.Fatalf("Check: ok=%v, err=%v", tc.ok, err)
			}
		})
	}
}

func TestValidateResult_Add(t *testing.T) {
	var r ValidateResult
	r.Add("a", "required")
	r.Add("a", "max %d", 3)
	r.Add("b", "bad")
	if r.Valid() || len(r.Errors) != 2 || len(r.Errors[0].Messages) != 2 {
		t.Fatalf("got %+v", r)
	}
	err := &ValidationError{Definition: "d", Result: r}
	if err.Error() != "validation failed for d: a: required, max 3; b: bad" {
		t.Fatalf("Error: got %q", err.Error())
	}
}
