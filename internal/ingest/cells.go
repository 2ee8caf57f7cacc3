package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CellKind tags the parsed form of one spreadsheet cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellScalar
	CellList
	CellObject
)

// Cell is the tagged result of the fallback-ladder cell parser.
type Cell struct {
	Kind   CellKind
	Scalar string
	List   []string
	Object map[string]interface{}
}

// ParseCell interprets one raw cell. Bracket-delimited values are parsed
// strictly as JSON, then reparsed after a relaxed quote fix, and finally
// kept as the literal string. The ladder never fails: worst case the cell
// comes back as a scalar.
func ParseCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Cell{Kind: CellEmpty}
	}

	if !looksSerialized(trimmed) {
		return Cell{Kind: CellScalar, Scalar: trimmed}
	}

	if c, ok := tryParseJSON(trimmed); ok {
		return c
	}
	if c, ok := tryParseJSON(relaxQuotes(trimmed)); ok {
		return c
	}

	return Cell{Kind: CellScalar, Scalar: trimmed}
}

func looksSerialized(s string) bool {
	return (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"))
}

func tryParseJSON(s string) (Cell, bool) {
	if strings.HasPrefix(s, "[") {
		var items []interface{}
		if err := json.Unmarshal([]byte(s), &items); err != nil {
			return Cell{}, false
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			list = append(list, stringify(item))
		}
		return Cell{Kind: CellList, List: list}, true
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return Cell{}, false
	}
	return Cell{Kind: CellObject, Object: obj}, true
}

// relaxQuotes rewrites single-quoted pseudo-JSON ("['a', 'b']") into valid
// JSON. Existing double quotes are preserved.
func relaxQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble := false
	for _, r := range s {
		switch r {
		case '"':
			inDouble = !inDouble
			b.WriteRune(r)
		case '\'':
			if inDouble {
				b.WriteRune(r)
			} else {
				b.WriteRune('"')
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// Avoid the %v exponent form for large row counts.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// NormalizeList turns a list-typed cell (tags, job roles, areas of
// interest) into a string slice. Precedence: valid array encoding, then
// comma-split, then a single-element list. Empty cells yield nil.
func NormalizeList(raw string) []string {
	c := ParseCell(raw)
	switch c.Kind {
	case CellEmpty:
		return nil
	case CellList:
		return compactList(c.List)
	case CellObject:
		// An object cell has no list interpretation; keep the literal.
		return []string{strings.TrimSpace(raw)}
	}

	if strings.Contains(c.Scalar, ",") {
		return compactList(strings.Split(c.Scalar, ","))
	}
	return []string{c.Scalar}
}

func compactList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
