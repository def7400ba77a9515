package reader

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// inferCell converts a raw text cell into a typed value and its type tag.
// Empty cells are nil.
func inferCell(s string) (any, string) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, TypeString
	}
	if v, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return v, TypeBigint
	}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return v, TypeDouble
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true, TypeBoolean
	case "false":
		return false, TypeBoolean
	}
	return s, TypeString
}

// typeOf reports the type tag for an already-typed value.
func typeOf(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case int64:
		return TypeBigint
	case float64:
		return TypeDouble
	case bool:
		return TypeBoolean
	case time.Time:
		return TypeTimestamp
	default:
		return TypeString
	}
}

// unifyType widens a column type to accommodate another observed type.
func unifyType(current, next string) string {
	if current == "" {
		return next
	}
	if next == "" || current == next {
		return current
	}
	// bigint and double unify to double; everything else falls back to string.
	if (current == TypeBigint && next == TypeDouble) || (current == TypeDouble && next == TypeBigint) {
		return TypeDouble
	}
	return TypeString
}

// inferColumnType scans one column of typed rows and returns the widened type.
func inferColumnType(rows [][]any, col int) string {
	t := ""
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		t = unifyType(t, typeOf(row[col]))
		if t == TypeString {
			break
		}
	}
	if t == "" {
		return TypeString
	}
	return t
}

// normalizeScalar maps decoded document values onto the dataset value set.
// Nested structures are carried as their JSON encoding.
func normalizeScalar(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool, int64, float64, time.Time:
		return val
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
