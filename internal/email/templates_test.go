package email

import (
	"strings"
	"testing"
	"time"
)

func TestOrphanedVisitsContentListsEveryVisit(t *testing.T) {
	visits := []OrphanedVisitLine{
		{ScheduledDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), PoolName: "Villa Azul", TechnicianName: "Sam", Reason: "vacation"},
		{ScheduledDate: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), PoolName: "Club <Lido>", TechnicianName: "Sam", Reason: "vacation"},
	}

	content, err := orphanedVisitsContent("Blue Water", visits)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{"Blue Water", "Villa Azul", "Mon 2 Mar 2026", "2 visit(s)", "Club &lt;Lido&gt;"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in rendered email", want)
		}
	}
	if strings.Contains(content, "<Lido>") {
		t.Fatalf("expected pool names to be escaped")
	}
}
