package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/domain"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/ports"
)

func TestRadiko_EmbeddedDefinitions(t *testing.T) {
	reg := Radiko()

	names := reg.Names()
	want := []string{domain.RadikoScheduleDefinition, domain.RadikoStationDefinition, domain.RadikoProgramDefinition}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("Names: want %v, got %v", want, names)
	}

	sched, err := reg.Lookup(domain.RadikoScheduleDefinition)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	child, ok := sched.Property(domain.ScheduleChildProgram)
	if !ok || child.MappedBy != domain.ProgramParentSchedule || child.Stored() {
		t.Fatalf("childProgram should be an inverse reference, got %+v", child)
	}
	weekDay, _ := sched.Property(domain.ScheduleWeekDay)
	if opt, ok := weekDay.Option(domain.WeekDayFriday); !ok || opt.Label == "" {
		t.Fatalf("weekDay FRI option missing: %+v", weekDay.Options)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Radiko().Lookup("nope")
	if !errors.Is(err, ports.ErrUnknownDefinition) {
		t.Fatalf("expected ErrUnknownDefinition, got %v", err)
	}
}

func TestParse_RejectsBrokenSchemas(t *testing.T) {
	cases := map[string]string{
		"dangling reference": `
definitions:
  - name: a
    properties:
      - {name: b, type: reference, referenceTo: missing}
`,
		"duplicate property": `
definitions:
  - name: a
    properties:
      - {name: x, type: string}
      - {name: x, type: long}
`,
		"select without options": `
definitions:
  - name: a
    properties:
      - {name: s, type: select}
`,
		"unknown type": `
definitions:
  - name: a
    properties:
      - {name: s, type: blob}
`,
	}
	for name, src := range cases {
		if _, err := Parse([]byte(src)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
