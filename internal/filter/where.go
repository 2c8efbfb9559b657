// Package filter narrows replay diff output with --where clauses.
package filter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hoptrace/hoptrace/internal/domain"
)

// WhereClause represents a parsed --where condition
type WhereClause struct {
	Field    string
	Operator string
	Value    string
	regex    *regexp.Regexp // Compiled regex for ~ and !~ operators
}

// ParseWhereClause parses a where clause like "type=added" or "path~pace".
// Supported operators: =, !=, ~, !~, ^, $
func ParseWhereClause(clause string) (*WhereClause, error) {
	// Try operators in order of length (longest first to avoid partial matches)
	operators := []string{"!~", "!=", "~", "=", "^", "$"}

	for _, op := range operators {
		idx := strings.Index(clause, op)
		if idx > 0 {
			field := strings.TrimSpace(clause[:idx])
			value := strings.TrimSpace(clause[idx+len(op):])

			if field == "" || value == "" {
				return nil, fmt.Errorf("invalid where clause: %s", clause)
			}

			wc := &WhereClause{
				Field:    field,
				Operator: op,
				Value:    value,
			}

			if op == "~" || op == "!~" {
				re, err := regexp.Compile(value)
				if err != nil {
					return nil, fmt.Errorf("invalid regex in where clause '%s': %w", clause, err)
				}
				wc.regex = re
			}

			return wc, nil
		}
	}

	return nil, fmt.Errorf("no valid operator found in where clause: %s (use =, !=, ~, !~, ^, $)", clause)
}

// Match checks if a hop diff matches this where clause
func (wc *WhereClause) Match(d *domain.HopDiff) bool {
	fieldValue := wc.getFieldValue(d)

	switch wc.Operator {
	case "=":
		return fieldValue == wc.Value
	case "!=":
		return fieldValue != wc.Value
	case "~":
		return wc.regex.MatchString(fieldValue)
	case "!~":
		return !wc.regex.MatchString(fieldValue)
	case "^":
		return strings.HasPrefix(fieldValue, wc.Value)
	case "$":
		return strings.HasSuffix(fieldValue, wc.Value)
	}

	return false
}

// getFieldValue extracts the field value from a hop diff
func (wc *WhereClause) getFieldValue(d *domain.HopDiff) string {
	switch strings.ToLower(wc.Field) {
	case "hop":
		return d.HopName
	case "path":
		return d.Path
	case "type":
		return string(d.DiffType)
	case "old":
		return stringify(d.OldValue)
	case "new":
		return stringify(d.NewValue)
	default:
		return ""
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// WhereFilter is a filter that applies multiple where clauses (AND logic)
type WhereFilter struct {
	clauses []*WhereClause
}

// NewWhereFilter creates a filter from multiple where clause strings
func NewWhereFilter(whereClauses []string) (*WhereFilter, error) {
	if len(whereClauses) == 0 {
		return nil, nil
	}

	filter := &WhereFilter{}
	for _, clause := range whereClauses {
		wc, err := ParseWhereClause(clause)
		if err != nil {
			return nil, err
		}
		filter.clauses = append(filter.clauses, wc)
	}

	return filter, nil
}

// Match returns true if the diff matches ALL where clauses (AND logic)
func (f *WhereFilter) Match(d *domain.HopDiff) bool {
	for _, clause := range f.clauses {
		if !clause.Match(d) {
			return false
		}
	}
	return true
}

// Apply returns the diffs matching the filter. A nil filter keeps all.
func (f *WhereFilter) Apply(diffs []domain.HopDiff) []domain.HopDiff {
	if f == nil {
		return diffs
	}
	var out []domain.HopDiff
	for i := range diffs {
		if f.Match(&diffs[i]) {
			out = append(out, diffs[i])
		}
	}
	return out
}
