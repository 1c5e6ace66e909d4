package application

import (
	"cmp"
	"slices"
	"strings"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
)

// AggregateCrew collapses search hits into one row per (license, vessel,
// safety level). Violations of all contributing hits are summed and the
// latest boarding date is kept. Rows are ordered by name, then vessel.
func AggregateCrew(hits []domain.CrewHit) []domain.CrewRow {
	rows := make([]domain.CrewRow, 0, len(hits))
	index := make(map[domain.CrewKey]int, len(hits))

	for _, hit := range hits {
		// one hit counts once per key even when several highlights match it
		contributed := make(map[domain.CrewKey]struct{})
		add := func(row domain.CrewRow) {
			key := row.Key()
			if _, ok := contributed[key]; ok {
				return
			}
			contributed[key] = struct{}{}

			if i, ok := index[key]; ok {
				rows[i].Violations += row.Violations
				if rows[i].Date.Before(row.Date) {
					rows[i].Date = row.Date
				}
				return
			}
			index[key] = len(rows)
			rows = append(rows, row)
		}

		for _, highlight := range hit.Highlights {
			if strings.Contains(highlight.Path, domain.RankCaptain) {
				add(rowFromHit(hit, hit.Captain.Name, hit.Captain.License, domain.RankCaptain))
				continue
			}

			fragment, ok := highlight.FirstHit()
			if !ok {
				continue
			}
			for _, member := range hit.Crew {
				if strings.Contains(member.Name, fragment) {
					add(rowFromHit(hit, member.Name, member.License, domain.RankCrew))
				}
			}
		}
	}

	SortCrewRows(rows)
	return rows
}

// SortCrewRows orders rows by name and breaks ties by vessel.
func SortCrewRows(rows []domain.CrewRow) {
	slices.SortStableFunc(rows, func(a, b domain.CrewRow) int {
		return cmp.Or(
			strings.Compare(a.Name, b.Name),
			strings.Compare(a.Vessel, b.Vessel),
		)
	})
}

// HighlightedTerms lists the distinct matched fragments of the given
// highlights in first-seen order.
func HighlightedTerms(highlights []domain.Highlight) []string {
	terms := make([]string, 0, len(highlights))
	seen := make(map[string]struct{}, len(highlights))
	for _, highlight := range highlights {
		for _, text := range highlight.Texts {
			if text.Type != domain.HighlightTypeHit || strings.TrimSpace(text.Value) == "" {
				continue
			}
			if _, ok := seen[text.Value]; ok {
				continue
			}
			seen[text.Value] = struct{}{}
			terms = append(terms, text.Value)
		}
	}
	return terms
}

func rowFromHit(hit domain.CrewHit, name, license, rank string) domain.CrewRow {
	return domain.CrewRow{
		Name:        name,
		Rank:        rank,
		Vessel:      hit.Vessel,
		License:     license,
		Violations:  hit.Violations,
		Date:        hit.Date,
		SafetyLevel: hit.SafetyLevel,
	}
}
