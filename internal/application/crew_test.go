package application

import (
	"testing"
	"time"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
)

var (
	day1 = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	day2 = time.Date(2024, 5, 12, 14, 0, 0, 0, time.UTC)
	day3 = time.Date(2024, 7, 20, 6, 15, 0, 0, time.UTC)
)

func captainHit(name, license, vessel, level string, violations int, date time.Time) domain.CrewHit {
	return domain.CrewHit{
		Vessel:      vessel,
		Date:        date,
		SafetyLevel: domain.DirectSafetyLevel(level),
		Violations:  violations,
		Captain:     domain.Captain{Name: name, License: license},
		Highlights: []domain.Highlight{{
			Path:  "captain.name",
			Texts: []domain.HighlightText{{Value: name, Type: domain.HighlightTypeHit}},
		}},
	}
}

func crewHit(vessel, level string, violations int, date time.Time, fragment string, crew ...domain.CrewMember) domain.CrewHit {
	return domain.CrewHit{
		Vessel:      vessel,
		Date:        date,
		SafetyLevel: domain.DirectSafetyLevel(level),
		Violations:  violations,
		Captain:     domain.Captain{Name: "Someone Else", License: "C-0"},
		Crew:        crew,
		Highlights: []domain.Highlight{{
			Path: "crew.name",
			Texts: []domain.HighlightText{
				{Value: "Mr ", Type: domain.HighlightTypeText},
				{Value: fragment, Type: domain.HighlightTypeHit},
			},
		}},
	}
}

func TestAggregateMergesSameKey(t *testing.T) {
	hits := []domain.CrewHit{
		captainHit("Ahab", "L1", "V1", "Red", 2, day1),
		captainHit("Ahab", "L1", "V1", "Red", 3, day2),
	}

	rows := AggregateCrew(hits)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d: %+v", len(rows), rows)
	}
	if rows[0].Violations != 5 {
		t.Fatalf("expected violations 5, got %d", rows[0].Violations)
	}
	if !rows[0].Date.Equal(day2) {
		t.Fatalf("expected latest date %v, got %v", day2, rows[0].Date)
	}
	if rows[0].Rank != domain.RankCaptain {
		t.Fatalf("expected captain rank, got %q", rows[0].Rank)
	}
}

func TestAggregateKeepsLatestDateRegardlessOfOrder(t *testing.T) {
	hits := []domain.CrewHit{
		captainHit("Ahab", "L1", "V1", "Red", 1, day3),
		captainHit("Ahab", "L1", "V1", "Red", 1, day1),
		captainHit("Ahab", "L1", "V1", "Red", 1, day2),
	}
	rows := AggregateCrew(hits)
	if len(rows) != 1 || !rows[0].Date.Equal(day3) || rows[0].Violations != 3 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestAggregateOneRowPerKey(t *testing.T) {
	hits := []domain.CrewHit{
		captainHit("Ahab", "L1", "V1", "Red", 1, day1),
		captainHit("Ahab", "L1", "V2", "Red", 1, day1),
		captainHit("Ahab", "L1", "V1", "Green", 1, day1),
		captainHit("Ahab", "L1", "V1", "red", 4, day2),
		crewHit("V1", "Red", 7, day3, "Star", domain.CrewMember{Name: "Starbuck", License: "L2"}, domain.CrewMember{Name: "Stubb", License: "L3"}),
		crewHit("V1", "Red", 1, day1, "Star", domain.CrewMember{Name: "Starbuck", License: "L2"}),
	}

	rows := AggregateCrew(hits)
	seen := make(map[domain.CrewKey]bool)
	for _, row := range rows {
		if seen[row.Key()] {
			t.Fatalf("duplicate key %+v in %+v", row.Key(), rows)
		}
		seen[row.Key()] = true
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d: %+v", len(rows), rows)
	}

	for _, row := range rows {
		if row.License == "L1" && row.Vessel == "V1" && row.SafetyLevel.Level() == "red" && row.Violations != 5 {
			t.Fatalf("case-insensitive safety level should merge, got %+v", row)
		}
		if row.License == "L2" && (row.Violations != 8 || !row.Date.Equal(day3)) {
			t.Fatalf("unexpected crew aggregate %+v", row)
		}
		if row.License == "L3" {
			t.Fatalf("Stubb does not match the highlighted fragment: %+v", row)
		}
	}
}

func TestAggregateCountsEachHitOncePerKey(t *testing.T) {
	hit := crewHit("V1", "Amber", 2, day1, "Quee", domain.CrewMember{Name: "Queequeg", License: "L9"})
	hit.Highlights = append(hit.Highlights, domain.Highlight{
		Path:  "crew.license",
		Texts: []domain.HighlightText{{Value: "Queequeg", Type: domain.HighlightTypeHit}},
	})

	rows := AggregateCrew([]domain.CrewHit{hit})
	if len(rows) != 1 || rows[0].Violations != 2 {
		t.Fatalf("expected single row with 2 violations, got %+v", rows)
	}
}

func TestAggregateSkipsHighlightWithoutHitFragment(t *testing.T) {
	hit := crewHit("V1", "Red", 1, day1, "x", domain.CrewMember{Name: "Flask", License: "L5"})
	hit.Highlights[0].Texts = []domain.HighlightText{{Value: "Flask", Type: domain.HighlightTypeText}}

	rows := AggregateCrew([]domain.CrewHit{hit})
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %+v", rows)
	}
}

func TestAggregateSortsByNameThenVessel(t *testing.T) {
	hits := []domain.CrewHit{
		captainHit("Stubb", "L3", "Pequod", "Red", 0, day1),
		captainHit("Ahab", "L1", "Rachel", "Red", 0, day1),
		captainHit("Ahab", "L1", "Pequod", "Red", 0, day1),
		captainHit("Ahab", "L1", "Albatross", "Red", 0, day1),
		captainHit("Flask", "L4", "Bachelor", "Red", 0, day1),
	}

	rows := AggregateCrew(hits)
	want := [][2]string{
		{"Ahab", "Albatross"},
		{"Ahab", "Pequod"},
		{"Ahab", "Rachel"},
		{"Flask", "Bachelor"},
		{"Stubb", "Pequod"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		if rows[i].Name != w[0] || rows[i].Vessel != w[1] {
			t.Fatalf("row %d: got %s/%s, want %s/%s", i, rows[i].Name, rows[i].Vessel, w[0], w[1])
		}
	}
}

func TestHighlightedTermsAreUnique(t *testing.T) {
	terms := HighlightedTerms([]domain.Highlight{
		{Texts: []domain.HighlightText{{Value: "Ahab", Type: "hit"}, {Value: " the", Type: "text"}}},
		{Texts: []domain.HighlightText{{Value: "Ahab", Type: "hit"}, {Value: "Pip", Type: "hit"}}},
	})
	if len(terms) != 2 || terms[0] != "Ahab" || terms[1] != "Pip" {
		t.Fatalf("unexpected terms %v", terms)
	}
}
