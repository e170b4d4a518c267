package postgres

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
)

// vectorLiteral renders v in pgvector's text format, e.g. "[0.1,-2,3.5]".
func vectorLiteral(v []float32) (string, error) {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return "", fmt.Errorf("[Postgres] %w: vector component %d is %v", ErrInvalidData, i, f)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

// metadataJSON encodes document metadata for the jsonb column. time.Time
// values become RFC 3339 strings.
func metadataJSON(metadata map[string]any) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(normalizeMetadata(metadata))
	if err != nil {
		return "", fmt.Errorf("[Postgres] %w: metadata is not JSON encodable: %w", ErrInvalidData, err)
	}
	return string(b), nil
}

// whereJSON encodes a Where filter as a jsonb containment document. An empty
// filter yields "".
func whereJSON(where embeddingdb.Where) (string, error) {
	if len(where) == 0 {
		return "", nil
	}
	b, err := json.Marshal(normalizeMetadata(where))
	if err != nil {
		return "", fmt.Errorf("%w: where filter is not JSON encodable: %w", embeddingdb.ErrInvalidArgument, err)
	}
	return string(b), nil
}

func normalizeMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if t, ok := v.(time.Time); ok {
			out[k] = t.UTC().Format(time.RFC3339Nano)
			continue
		}
		out[k] = v
	}
	return out
}

func decodeMetadata(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("[Postgres] failed to decode metadata: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
