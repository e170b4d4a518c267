package qdrant

import (
	"context"
	"fmt"

	qdrant "github.com/qdrant/go-client/qdrant"
)

// Collection contains metadata about a Qdrant collection.
type Collection struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	VectorSize int    `json:"vectorSize"`
	Distance   string `json:"distance"`
	Vectors    uint64 `json:"vectors"`
	Points     uint64 `json:"points"`
}

// GetCollection ──────────────────────────────────────────────────────────────
// GetCollection
// ──────────────────────────────────────────────────────────────
//
// GetCollection retrieves status, size and vector settings of a collection.
// It is not part of the embeddingdb contract and exists for diagnostics.
func (a *Adapter) GetCollection(ctx context.Context, name string) (*Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("[Qdrant] collection name cannot be empty")
	}

	info, err := a.client.api.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to get collection '%s': %w", name, err)
	}

	size, distance := extractVectorDetails(info)
	return &Collection{
		Name:       name,
		Status:     info.GetStatus().String(),
		VectorSize: size,
		Distance:   distance,
		Vectors:    derefUint64(info.IndexedVectorsCount),
		Points:     derefUint64(info.PointsCount),
	}, nil
}

// ListCollections returns the names of all collections on the server.
func (a *Adapter) ListCollections(ctx context.Context) ([]string, error) {
	names, err := a.client.api.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to list collections: %w", err)
	}
	return names, nil
}

// extractVectorDetails returns the vector size and distance metric of a
// collection with a single unnamed vector, or (0, "") when the nested
// protobuf config is missing or uses named vectors.
func extractVectorDetails(info *qdrant.CollectionInfo) (int, string) {
	if info == nil ||
		info.Config == nil ||
		info.Config.Params == nil ||
		info.Config.Params.VectorsConfig == nil ||
		info.Config.Params.VectorsConfig.Config == nil {
		return 0, ""
	}

	if cfg, ok := info.Config.Params.VectorsConfig.Config.(*qdrant.VectorsConfig_Params); ok {
		return int(cfg.Params.Size), cfg.Params.Distance.String()
	}

	return 0, ""
}

// derefUint64 safely dereferences a *uint64 pointer.
func derefUint64(v *uint64) uint64 {
	if v != nil {
		return *v
	}
	return 0
}
