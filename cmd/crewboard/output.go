package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/atvirokodosprendimai/crewboard/internal/domain"
	"github.com/fatih/color"
)

var riskPrinters = map[string]*color.Color{
	"red":   color.New(color.FgRed, color.Bold),
	"amber": color.New(color.FgYellow),
	"green": color.New(color.FgGreen),
}

func printJSON(v any) error {
	b, err := jsonMarshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

// formatRisk colours the level by its lowercased value. It is always the
// last column so escape codes do not skew tabwriter alignment.
func formatRisk(level domain.SafetyLevel) string {
	text := level.String()
	if text == "" {
		text = domain.UnknownSafetyLevel
	}
	if p, ok := riskPrinters[level.Level()]; ok {
		return p.Sprint(text)
	}
	return text
}

func printCrewRows(items []domain.CrewRow) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		name := item.Name
		if item.Rank == domain.RankCaptain {
			name += " (CAPTAIN)"
		}
		violations := strconv.Itoa(item.Violations)
		if item.Violations == 0 {
			violations = "-"
		}
		rows = append(rows, []string{
			name,
			item.License,
			item.Vessel,
			violations,
			formatTime(item.Date),
			formatRisk(item.SafetyLevel),
		})
	}
	printTable([]string{"NAME", "LICENSE", "VESSEL", "VIOLATIONS", "LAST_BOARDED", "RISK"}, rows)
}

func printBoardings(items []domain.Boarding) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ExternalID,
			formatTime(item.BoardedAt),
			item.Vessel.Name,
			item.Captain.Name,
			strconv.Itoa(len(item.Crew)),
			strconv.Itoa(item.Violations),
			formatRisk(item.SafetyLevel),
		})
	}
	printTable([]string{"ID", "DATE", "VESSEL", "CAPTAIN", "CREW", "VIOLATIONS", "RISK"}, rows)
}

func printUsers(items []domain.User) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(item.ID), 10),
			item.Email,
			formatTime(item.CreatedAt),
		})
	}
	printTable([]string{"ID", "EMAIL", "CREATED_AT"}, rows)
}

func printFilters(cfg domain.FilterConfiguration) {
	rows := make([][]string, 0)
	for _, group := range cfg.Groups {
		for _, field := range group.Fields {
			value := field.Value
			if value == "" {
				value = "-"
			}
			rows = append(rows, []string{group.Label, field.Name, field.Kind(), field.Path(), value})
		}
	}
	printTable([]string{"GROUP", "NAME", "TYPE", "FIELD", "VALUE"}, rows)
}
