package sqlite

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
)

// jsonPath addresses a top-level metadata key.
func jsonPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `"\`) {
		return "", fmt.Errorf("%w: unsupported metadata key %q", embeddingdb.ErrInvalidArgument, key)
	}
	return `$."` + key + `"`, nil
}

// buildWhere turns a Where filter into SQL conditions joined with AND, plus
// their arguments. Keys are emitted in sorted order.
func buildWhere(where embeddingdb.Where) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	conds := make([]string, 0, len(keys))
	var args []any
	for _, key := range keys {
		path, err := jsonPath(key)
		if err != nil {
			return "", nil, err
		}

		switch v := where[key].(type) {
		case nil:
			conds = append(conds, `json_type(metadata, ?) = 'null'`)
			args = append(args, path)
		case bool:
			conds = append(conds, `json_type(metadata, ?) = ?`)
			args = append(args, path, map[bool]string{true: "true", false: "false"}[v])
		case string:
			conds = append(conds, `json_extract(metadata, ?) = ?`)
			args = append(args, path, v)
		case time.Time:
			conds = append(conds, `json_extract(metadata, ?) = ?`)
			args = append(args, path, v.UTC().Format(time.RFC3339Nano))
		default:
			if n, ok := numericArg(v); ok {
				if f, isFloat := n.(float64); isFloat && (math.IsNaN(f) || math.IsInf(f, 0)) {
					return "", nil, fmt.Errorf("%w: metadata filter %q is not a finite number", embeddingdb.ErrInvalidArgument, key)
				}
				conds = append(conds, `json_extract(metadata, ?) = ?`)
				args = append(args, path, n)
				continue
			}
			raw, err := json.Marshal(v)
			if err != nil {
				return "", nil, fmt.Errorf("%w: metadata filter %q: %w", embeddingdb.ErrInvalidArgument, key, err)
			}
			conds = append(conds, `json_extract(metadata, ?) = json(?)`)
			args = append(args, path, string(raw))
		}
	}
	return strings.Join(conds, " AND "), args, nil
}

// numericArg converts Go numbers into the int64 or float64 SQLite binds.
// Integers and reals compare by value in SQLite, so 3 matches 3.0.
func numericArg(v any) (any, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return numericArg(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		return f, err == nil
	default:
		return nil, false
	}
}

// encodeMetadata stores metadata as JSON text. time.Time values become
// RFC 3339 strings.
func encodeMetadata(metadata map[string]any) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		if t, ok := v.(time.Time); ok {
			v = t.UTC().Format(time.RFC3339Nano)
		}
		out[k] = v
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("[SQLite] %w: metadata is not JSON encodable: %w", embeddingdb.ErrInvalidArgument, err)
	}
	return string(b), nil
}

func decodeMetadata(raw string) (map[string]any, error) {
	m := map[string]any{}
	if raw == "" || raw == "{}" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("[SQLite] failed to decode metadata: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
