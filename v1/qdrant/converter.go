package qdrant

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
)

// Payload layout of every point written by the Adapter.
const (
	PayloadDocument = "document"
	PayloadMetadata = "metadata"
	PayloadDocID    = "doc_id"
)

// pointIDNamespace derives point UUIDs from document ids that are not UUIDs.
var pointIDNamespace = uuid.MustParse("6f1b3c2e-5d0a-4f5e-9b8c-0a1d2e3f4a5b")

// ── Point Conversion ─────────────────────────────────────────────────────────

// PointID maps a document id to the UUID Qdrant stores. UUIDs are kept,
// every other id is turned into a stable UUIDv5 so the same document id
// always addresses the same point.
func PointID(docID string) string {
	if u, err := uuid.Parse(docID); err == nil {
		return u.String()
	}
	return uuid.NewSHA1(pointIDNamespace, []byte(docID)).String()
}

// buildPoint converts a document and its vector into a Qdrant point.
func buildPoint(doc embeddingdb.Document, vector []float32) (*qdrant.PointStruct, error) {
	metadata := make(map[string]any, len(doc.Metadata))
	for k, v := range doc.Metadata {
		metadata[k] = normalizeValue(v)
	}

	payload, err := qdrant.TryValueMap(map[string]any{
		PayloadDocument: doc.Text,
		PayloadMetadata: metadata,
		PayloadDocID:    doc.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] unsupported metadata in document %q: %w", doc.ID, err)
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewID(PointID(doc.ID)),
		Vectors: qdrant.NewVectors(vector...),
		Payload: payload,
	}, nil
}

// normalizeValue rewrites metadata values the payload encoder does not know
// into ones it does.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalizeValue(inner)
		}
		return out
	default:
		return v
	}
}

// toSearchResult converts a stored point into a SearchResult.
func toSearchResult(id *qdrant.PointId, payload map[string]*qdrant.Value, distance float64) (embeddingdb.SearchResult, error) {
	docID, _ := extractValue(payload[PayloadDocID]).(string)
	if docID == "" {
		pid, err := extractPointID(id)
		if err != nil {
			return embeddingdb.SearchResult{}, err
		}
		docID = pid
	}

	text, _ := extractValue(payload[PayloadDocument]).(string)
	metadata, _ := extractValue(payload[PayloadMetadata]).(map[string]any)

	return embeddingdb.NewSearchResult(text, docID, distance, metadata), nil
}

// scoreToDistance turns a Qdrant score into a distance where smaller means
// more similar. Cosine and dot scores are similarities; euclid and manhattan
// scores already are distances.
func scoreToDistance(distance qdrant.Distance, score float32) float64 {
	switch distance {
	case qdrant.Distance_Euclid, qdrant.Distance_Manhattan:
		return float64(score)
	default:
		return 1 - float64(score)
	}
}

// extractPointID extracts a string ID from Qdrant's PointId type.
func extractPointID(id *qdrant.PointId) (string, error) {
	if id == nil {
		return "", fmt.Errorf("[Qdrant] nil point ID")
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Num:
		return strconv.FormatUint(v.Num, 10), nil
	case *qdrant.PointId_Uuid:
		return v.Uuid, nil
	default:
		return "", fmt.Errorf("[Qdrant] unexpected PointId type: %T", v)
	}
}

// convertPayload converts Qdrant's protobuf payload to a generic map.
func convertPayload(payload map[string]*qdrant.Value) map[string]any {
	if payload == nil {
		return nil
	}
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		result[k] = extractValue(v)
	}
	return result
}

// extractValue recursively converts a Qdrant Value to a Go native type.
func extractValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_StructValue:
		if val.StructValue == nil {
			return nil
		}
		return convertPayload(val.StructValue.Fields)
	case *qdrant.Value_ListValue:
		if val.ListValue == nil {
			return nil
		}
		items := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			items[i] = extractValue(item)
		}
		return items
	default:
		return nil
	}
}

// ── Filter Conversion ────────────────────────────────────────────────────────

// metadataKey is the payload path of a metadata field.
func metadataKey(field string) string {
	return PayloadMetadata + "." + field
}

// buildFilter converts a Where into a Qdrant filter whose conditions must
// all hold. Numbers match by value through a closed range so integer and
// floating point payloads compare equal.
func buildFilter(where embeddingdb.Where) (*qdrant.Filter, error) {
	if len(where) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	must := make([]*qdrant.Condition, 0, len(keys))
	for _, field := range keys {
		cond, err := buildCondition(metadataKey(field), where[field])
		if err != nil {
			return nil, err
		}
		must = append(must, cond)
	}
	return &qdrant.Filter{Must: must}, nil
}

func buildCondition(key string, value any) (*qdrant.Condition, error) {
	switch v := value.(type) {
	case nil:
		return qdrant.NewIsNull(key), nil
	case string:
		return qdrant.NewMatch(key, v), nil
	case bool:
		return qdrant.NewMatchBool(key, v), nil
	case time.Time:
		ts := timestamppb.New(v)
		return qdrant.NewDatetimeRange(key, &qdrant.DatetimeRange{Gte: ts, Lte: ts}), nil
	}

	if f, ok := toFloat64(value); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("[Qdrant] cannot filter %s by %v: %w", key, f, embeddingdb.ErrInvalidArgument)
		}
		return qdrant.NewRange(key, &qdrant.Range{Gte: &f, Lte: &f}), nil
	}

	return nil, fmt.Errorf("[Qdrant] unsupported filter value %T for %s: %w", value, key, embeddingdb.ErrInvalidArgument)
}

func toFloat64(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// ── Errors ───────────────────────────────────────────────────────────────────

// isNotFound reports whether err is Qdrant's answer for a missing collection.
// status.FromError looks through wrapped errors.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	s, ok := status.FromError(err)
	return ok && s.Code() == codes.NotFound
}
