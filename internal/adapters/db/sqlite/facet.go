package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
	"gorm.io/gorm"
)

// FetchCrewFacet answers a crew view request straight from the local
// boardings tables. Without a query it returns grouped rows; with one it
// returns matching boardings and the highlights that matched.
func (r *InspectionRepository) FetchCrewFacet(ctx context.Context, query domain.CrewFacetQuery) (domain.CrewFacetPage, error) {
	where, args, err := r.filterClause(query.Filter)
	if err != nil {
		return domain.CrewFacetPage{}, err
	}
	if strings.TrimSpace(query.Query) == "" {
		return r.groupedCrew(ctx, query, where, args)
	}
	return r.matchingBoardings(ctx, query, where, args)
}

const crewPeopleCTE = `WITH people AS (
	SELECT b.captain_name AS name, 'captain' AS crew_rank, b.captain_license AS license, b.vessel_name AS vessel,
		b.safety_level AS safety_level, b.safety_level_nested AS safety_level_nested,
		b.violations AS violations, b.boarded_at AS boarded_at
	FROM boardings b
	WHERE b.captain_name <> ''%[1]s
	UNION ALL
	SELECT c.name, 'crew', c.license, b.vessel_name,
		b.safety_level, b.safety_level_nested,
		b.violations, b.boarded_at
	FROM crew_members c
	JOIN boardings b ON b.id = c.boarding_id
	WHERE c.name <> ''%[1]s
), grouped AS (
	SELECT MIN(name) AS name, MIN(crew_rank) AS crew_rank, license, vessel,
		MAX(safety_level) AS safety_level, MAX(safety_level_nested) AS safety_level_nested,
		SUM(violations) AS violations, MAX(boarded_at) AS boarded_at
	FROM people
	GROUP BY license, vessel, LOWER(safety_level)
)
`

func (r *InspectionRepository) groupedCrew(ctx context.Context, query domain.CrewFacetQuery, where string, args []any) (domain.CrewFacetPage, error) {
	cte := fmt.Sprintf(crewPeopleCTE, where)
	cteArgs := append(append([]any{}, args...), args...)

	var amount int64
	if err := r.db.WithContext(ctx).Raw(cte+"SELECT COUNT(*) FROM grouped", cteArgs...).Scan(&amount).Error; err != nil {
		return domain.CrewFacetPage{}, err
	}

	rows := make([]crewFacetRow, 0)
	selectSQL := cte + `SELECT name, crew_rank, license, vessel, safety_level, safety_level_nested, violations, boarded_at
FROM grouped
ORDER BY name ASC, vessel ASC
LIMIT ? OFFSET ?`
	if err := r.db.WithContext(ctx).Raw(selectSQL, append(cteArgs, query.Limit, query.Offset)...).Scan(&rows).Error; err != nil {
		return domain.CrewFacetPage{}, err
	}

	page := domain.CrewFacetPage{Rows: make([]domain.CrewRow, 0, len(rows)), Amount: int(amount)}
	for _, row := range rows {
		page.Rows = append(page.Rows, domain.CrewRow{
			Name:        row.Name,
			Rank:        row.CrewRank,
			Vessel:      row.Vessel,
			License:     row.License,
			Violations:  row.Violations,
			Date:        fromMillis(row.BoardedAt),
			SafetyLevel: safetyLevel(row.SafetyLevel, row.SafetyLevelNested),
		})
	}
	return page, nil
}

func (r *InspectionRepository) matchingBoardings(ctx context.Context, query domain.CrewFacetQuery, where string, args []any) (domain.CrewFacetPage, error) {
	term := strings.TrimSpace(query.Query)
	like := likePattern(term)
	matching := func() *gorm.DB {
		q := r.db.WithContext(ctx).Table("boardings AS b").
			Where(`(b.captain_name LIKE ? ESCAPE '\' OR b.captain_license LIKE ? ESCAPE '\' OR EXISTS (
				SELECT 1 FROM crew_members c WHERE c.boarding_id = b.id AND c.name LIKE ? ESCAPE '\'))`, like, like, like)
		if where != "" {
			q = q.Where(strings.TrimPrefix(where, " AND "), args...)
		}
		return q
	}

	var amount int64
	if err := matching().Count(&amount).Error; err != nil {
		return domain.CrewFacetPage{}, err
	}

	rows := make([]BoardingModel, 0)
	if err := matching().Select("b.*").Order("b.boarded_at DESC").Order("b.id DESC").
		Limit(query.Limit).Offset(query.Offset).Find(&rows).Error; err != nil {
		return domain.CrewFacetPage{}, err
	}
	boardings, err := r.withCrew(ctx, rows)
	if err != nil {
		return domain.CrewFacetPage{}, err
	}

	page := domain.CrewFacetPage{Hits: make([]domain.CrewHit, 0, len(boardings)), Amount: int(amount)}
	for _, b := range boardings {
		hit := domain.CrewHit{
			Vessel:      b.Vessel.Name,
			Date:        b.BoardedAt,
			SafetyLevel: b.SafetyLevel,
			Violations:  b.Violations,
			Captain:     b.Captain,
			Crew:        b.Crew,
		}
		hit.Highlights = appendHighlight(hit.Highlights, "captain.name", b.Captain.Name, term)
		hit.Highlights = appendHighlight(hit.Highlights, "captain.license", b.Captain.License, term)
		for _, member := range b.Crew {
			hit.Highlights = appendHighlight(hit.Highlights, "crew.name", member.Name, term)
		}
		page.Highlights = append(page.Highlights, hit.Highlights...)
		page.Hits = append(page.Hits, hit)
	}
	return page, nil
}

func appendHighlight(highlights []domain.Highlight, path, value, term string) []domain.Highlight {
	texts, hits := highlightTexts(value, term)
	if hits == 0 {
		return highlights
	}
	return append(highlights, domain.Highlight{Path: path, Score: float64(hits), Texts: texts})
}

// highlightTexts splits value into "text" and "hit" fragments around
// case-insensitive occurrences of term.
func highlightTexts(value, term string) ([]domain.HighlightText, int) {
	if term == "" || value == "" {
		return nil, 0
	}
	lowerValue, lowerTerm := strings.ToLower(value), strings.ToLower(term)
	if len(lowerValue) != len(value) || len(lowerTerm) != len(term) {
		if !strings.EqualFold(value, term) {
			return nil, 0
		}
		return []domain.HighlightText{{Value: value, Type: domain.HighlightTypeHit}}, 1
	}

	texts := make([]domain.HighlightText, 0, 3)
	hits := 0
	rest := 0
	for {
		idx := strings.Index(lowerValue[rest:], lowerTerm)
		if idx < 0 {
			break
		}
		start := rest + idx
		if start > rest {
			texts = append(texts, domain.HighlightText{Value: value[rest:start], Type: domain.HighlightTypeText})
		}
		end := start + len(term)
		texts = append(texts, domain.HighlightText{Value: value[start:end], Type: domain.HighlightTypeHit})
		hits++
		rest = end
	}
	if hits == 0 {
		return nil, 0
	}
	if rest < len(value) {
		texts = append(texts, domain.HighlightText{Value: value[rest:], Type: domain.HighlightTypeText})
	}
	return texts, hits
}

var filterColumns = map[string]string{
	"safetyLevel":                    "b.safety_level",
	"inspection.summary.safetyLevel": "b.safety_level",
	"date":                           "b.boarded_at",
	"date-from":                      "b.boarded_at",
	"date-to":                        "b.boarded_at",
	"location":                       "b.location_name",
	"location.name":                  "b.location_name",
	"vessel":                         "b.vessel_name",
	"vessel.name":                    "b.vessel_name",
	"vessel.permitNumber":            "b.vessel_permit_number",
	"vessel.nationality":             "b.vessel_nationality",
	"agency":                         "b.agency",
}

// filterClause translates a filter selection into SQL conditions on the
// boardings alias b. The result is empty or starts with " AND ".
func (r *InspectionRepository) filterClause(selection domain.FilterSelection) (string, []any, error) {
	if selection.Empty() {
		return "", nil, nil
	}

	names := make([]string, 0, len(selection))
	for name := range selection {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		clauses []string
		args    []any
		levels  = make(map[string][]any)
		columns []string
	)
	for _, name := range names {
		value := strings.TrimSpace(selection[name])
		if value == "" {
			continue
		}
		field, ok := r.filters.Lookup(name)
		if !ok {
			return "", nil, fmt.Errorf("unknown filter %q", name)
		}
		column, ok := filterColumns[field.Path()]
		if !ok {
			return "", nil, fmt.Errorf("filter %q: unsupported field %q", name, field.Path())
		}

		switch field.Kind() {
		case domain.FilterTypeRisk:
			// Risk entries OR together per column.
			if _, seen := levels[column]; !seen {
				columns = append(columns, column)
			}
			levels[column] = append(levels[column], strings.ToLower(value))
		case domain.FilterTypeDate:
			day, err := time.ParseInLocation("2006-01-02", value, time.UTC)
			if err != nil {
				return "", nil, fmt.Errorf("filter %q: %w", name, err)
			}
			from, to := toMillis(day), toMillis(day.AddDate(0, 0, 1))
			switch {
			case strings.HasSuffix(name, "-from"):
				clauses = append(clauses, column+" >= ?")
				args = append(args, from)
			case strings.HasSuffix(name, "-to"):
				clauses = append(clauses, column+" < ?")
				args = append(args, to)
			default:
				clauses = append(clauses, column+" >= ? AND "+column+" < ?")
				args = append(args, from, to)
			}
		case domain.FilterTypeTime:
			if _, err := time.Parse("15:04", value); err != nil {
				return "", nil, fmt.Errorf("filter %q: %w", name, err)
			}
			clauses = append(clauses, "strftime('%H:%M', "+column+" / 1000, 'unixepoch') = ?")
			args = append(args, value)
		case domain.FilterTypeStringEqual:
			clauses = append(clauses, column+" = ?")
			args = append(args, value)
		case domain.FilterTypeLocation, domain.FilterTypeSubstring:
			clauses = append(clauses, column+` LIKE ? ESCAPE '\'`)
			args = append(args, likePattern(value))
		default:
			return "", nil, fmt.Errorf("filter %q: unsupported type %q", name, field.Kind())
		}
	}

	for _, column := range columns {
		clauses = append(clauses, "LOWER("+column+") IN ?")
		args = append(args, levels[column])
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " AND " + strings.Join(clauses, " AND "), args, nil
}
