package domain

import "strings"

const (
	FilterTypeRisk        = "risk"
	FilterTypeDate        = "date"
	FilterTypeTime        = "time"
	FilterTypeLocation    = "location"
	FilterTypeStringEqual = "string-equal"
	FilterTypeSubstring   = "substring"
)

type FilterField struct {
	Name      string `toml:"name" yaml:"name" json:"name"`
	Field     string `toml:"field" yaml:"field" json:"field,omitempty"`
	Value     string `toml:"value" yaml:"value" json:"value,omitempty"`
	Title     string `toml:"title" yaml:"title" json:"title"`
	PartTitle string `toml:"part_title" yaml:"part_title" json:"partTitle,omitempty"`
	Type      string `toml:"type" yaml:"type" json:"type,omitempty"`
}

// Path is the backend field the filter applies to.
func (f FilterField) Path() string {
	if strings.TrimSpace(f.Field) != "" {
		return f.Field
	}
	return f.Name
}

// Kind is the comparison type; entries without one compare by substring.
func (f FilterField) Kind() string {
	if strings.TrimSpace(f.Type) == "" {
		return FilterTypeSubstring
	}
	return f.Type
}

type FilterGroup struct {
	Label  string        `toml:"label" yaml:"label" json:"label"`
	Fields []FilterField `toml:"field" yaml:"fields" json:"fields"`
}

type FilterConfiguration struct {
	Groups []FilterGroup `toml:"group" yaml:"groups" json:"groups"`
}

func (c FilterConfiguration) Lookup(name string) (FilterField, bool) {
	for _, group := range c.Groups {
		for _, field := range group.Fields {
			if field.Name == name {
				return field, true
			}
		}
	}
	return FilterField{}, false
}

// FilterSelection holds the active filter values keyed by filter name.
type FilterSelection map[string]string

func (s FilterSelection) Empty() bool {
	for _, value := range s {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func (s FilterSelection) Clone() FilterSelection {
	if s == nil {
		return nil
	}
	out := make(FilterSelection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
