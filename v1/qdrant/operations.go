package qdrant

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
)

// Extra keys understood by Adapter.Search.
const (
	// ExtraHnswEf sets the HNSW ef search parameter (int).
	ExtraHnswEf = "hnsw_ef"
	// ExtraExact disables approximate search (bool).
	ExtraExact = "exact"
	// ExtraScoreThreshold drops results scoring below the threshold (float64).
	ExtraScoreThreshold = "score_threshold"
)

// Adapter implements embeddingdb.DB on top of Qdrant.
//
// Every collection stores one unnamed dense vector per point, sized after
// the embedder. Collections are created on first save.
type Adapter struct {
	client   *QdrantClient
	embedder embedding.Embedder
	distance qdrant.Distance
	log      Logger

	mu    sync.Mutex
	known map[string]struct{}
}

var _ embeddingdb.DB = (*Adapter)(nil)

// NewAdapter ──────────────────────────────────────────────────────────────
// NewAdapter
// ──────────────────────────────────────────────────────────────
//
// NewAdapter builds the embeddingdb backend from a connected client and the
// embedder used for documents and queries.
func NewAdapter(client *QdrantClient, embedder embedding.Embedder) (*Adapter, error) {
	if client == nil || client.api == nil {
		return nil, fmt.Errorf("[Qdrant] client is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("[Qdrant] embedder is required")
	}
	distance, err := client.cfg.qdrantDistance()
	if err != nil {
		return nil, err
	}
	return &Adapter{
		client:   client,
		embedder: embedder,
		distance: distance,
		log:      client.log,
		known:    make(map[string]struct{}),
	}, nil
}

// Close closes the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// EnsureCollection ──────────────────────────────────────────────────────────────
// EnsureCollection
// ──────────────────────────────────────────────────────────────
//
// EnsureCollection creates the collection if it does not exist yet. It is
// safe to call repeatedly and concurrently.
func (a *Adapter) EnsureCollection(ctx context.Context, name string) error {
	if err := embeddingdb.ValidateCollection(name); err != nil {
		return err
	}

	a.mu.Lock()
	_, ok := a.known[name]
	a.mu.Unlock()
	if ok {
		return nil
	}

	exists, err := a.exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		err := a.client.api.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(a.embedder.Dimensions()),
				Distance: a.distance,
			}),
		})
		if err != nil {
			// Lost a creation race: fine as long as the collection is there now.
			if again, checkErr := a.exists(ctx, name); checkErr != nil || !again {
				return fmt.Errorf("[Qdrant] failed to create collection '%s': %w", name, err)
			}
		} else {
			a.log.Info("[Qdrant] created collection", nil, map[string]interface{}{
				"collection": name,
				"dimensions": a.embedder.Dimensions(),
				"distance":   a.distance.String(),
			})
		}
	}

	a.remember(name)
	return nil
}

func (a *Adapter) exists(ctx context.Context, name string) (bool, error) {
	ok, err := a.client.api.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("[Qdrant] failed to check collection '%s': %w", name, err)
	}
	return ok, nil
}

func (a *Adapter) remember(name string) {
	a.mu.Lock()
	a.known[name] = struct{}{}
	a.mu.Unlock()
}

func (a *Adapter) forget(name string) {
	a.mu.Lock()
	delete(a.known, name)
	a.mu.Unlock()
}

// Search ──────────────────────────────────────────────────────────────
// Search
// ──────────────────────────────────────────────────────────────
//
// Search embeds every query text and runs one Query request per text, at
// most maxConcurrentSearches at a time. The per-query lists are merged with
// embeddingdb.MergeResults. An unlimited search asks Qdrant for as many
// points as the collection holds.
func (a *Adapter) Search(ctx context.Context, collection string, query embeddingdb.Query, params embeddingdb.SearchParams) ([]embeddingdb.SearchResult, error) {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if err := embeddingdb.ValidateQuery(query); err != nil {
		return nil, err
	}
	filter, err := buildFilter(params.Where)
	if err != nil {
		return nil, err
	}

	ctx, cancel := a.client.requestContext(ctx)
	defer cancel()

	exists, err := a.exists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []embeddingdb.SearchResult{}, nil
	}

	limit, bounded := params.Limit()
	if !bounded {
		n, err := a.count(ctx, collection, filter)
		if err != nil {
			return nil, err
		}
		limit = n
	}
	if limit == 0 {
		return []embeddingdb.SearchResult{}, nil
	}

	vectors, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to embed query: %w", err)
	}

	searchParams := buildSearchParams(params)
	var threshold *float32
	if t, ok := embeddingdb.ExtraValue[float64](params, ExtraScoreThreshold); ok {
		f := float32(t)
		threshold = &f
	}

	lists := make([][]embeddingdb.SearchResult, len(vectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSearches)
	for i, vector := range vectors {
		g.Go(func() error {
			l := uint64(limit)
			points, err := a.client.api.Query(gctx, &qdrant.QueryPoints{
				CollectionName: collection,
				Query:          qdrant.NewQuery(vector...),
				Limit:          &l,
				Filter:         filter,
				Params:         searchParams,
				ScoreThreshold: threshold,
				WithPayload:    qdrant.NewWithPayload(true),
			})
			if err != nil {
				if isNotFound(err) {
					return nil
				}
				return fmt.Errorf("[Qdrant] query [%d] failed: %w", i, err)
			}

			res := make([]embeddingdb.SearchResult, 0, len(points))
			for _, p := range points {
				r, err := toSearchResult(p.GetId(), p.GetPayload(), scoreToDistance(a.distance, p.GetScore()))
				if err != nil {
					return err
				}
				res = append(res, r)
			}
			lists[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return embeddingdb.MergeResults(lists, params), nil
}

func buildSearchParams(params embeddingdb.SearchParams) *qdrant.SearchParams {
	var sp qdrant.SearchParams
	set := false
	if ef, ok := embeddingdb.ExtraValue[int](params, ExtraHnswEf); ok && ef > 0 {
		v := uint64(ef)
		sp.HnswEf = &v
		set = true
	}
	if exact, ok := embeddingdb.ExtraValue[bool](params, ExtraExact); ok {
		sp.Exact = &exact
		set = true
	}
	if !set {
		return nil
	}
	return &sp
}

// GetAll ──────────────────────────────────────────────────────────────
// GetAll
// ──────────────────────────────────────────────────────────────
//
// GetAll pages through the collection with Scroll. Points come back in
// point id order.
func (a *Adapter) GetAll(ctx context.Context, collection string) ([]embeddingdb.SearchResult, error) {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return nil, err
	}

	exists, err := a.exists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []embeddingdb.SearchResult{}, nil
	}

	out := []embeddingdb.SearchResult{}
	var offset *qdrant.PointId
	for {
		// One extra point tells whether there is a next page and where it starts.
		limit := uint32(scrollPageSize + 1)
		points, err := a.client.api.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Offset:         offset,
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			if isNotFound(err) {
				return []embeddingdb.SearchResult{}, nil
			}
			return nil, fmt.Errorf("[Qdrant] scroll failed: %w", err)
		}

		page := points
		if len(points) > scrollPageSize {
			page = points[:scrollPageSize]
		}
		for _, p := range page {
			r, err := toSearchResult(p.GetId(), p.GetPayload(), 0)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}

		if len(points) <= scrollPageSize {
			return out, nil
		}
		offset = points[scrollPageSize].GetId()
	}
}

// SaveMany ──────────────────────────────────────────────────────────────
// SaveMany
// ──────────────────────────────────────────────────────────────
//
// SaveMany embeds the documents, creates the collection when needed and
// upserts in chunks of defaultBatchSize, waiting for each chunk to be
// persisted.
func (a *Adapter) SaveMany(ctx context.Context, collection string, items []embeddingdb.Document) error {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}
	vectors, err := a.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("[Qdrant] failed to embed documents: %w", err)
	}

	if err := a.EnsureCollection(ctx, collection); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		p, err := buildPoint(item, vectors[i])
		if err != nil {
			return err
		}
		points[i] = p
	}

	for start := 0; start < len(points); start += defaultBatchSize {
		end := min(start+defaultBatchSize, len(points))
		if err := a.upsertBatch(ctx, collection, points[start:end]); err != nil {
			return fmt.Errorf("[Qdrant] batch upsert failed at [%d:%d]: %w", start, end, err)
		}
		a.log.Debug("[Qdrant] upserted batch", nil, map[string]interface{}{
			"collection": collection,
			"start":      start,
			"end":        end,
		})
	}
	return nil
}

// upsertBatch sends a single blocking Upsert request.
func (a *Adapter) upsertBatch(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	ctx, cancel := a.client.requestContext(ctx)
	defer cancel()

	wait := true
	_, err := a.client.api.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil && isNotFound(err) {
		// Cleared concurrently; recreate once.
		a.forget(collection)
		if err := a.EnsureCollection(ctx, collection); err != nil {
			return err
		}
		_, err = a.client.api.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
			Wait:           &wait,
		})
	}
	return err
}

// Clear drops the collection. It is recreated by the next save.
func (a *Adapter) Clear(ctx context.Context, collection string) error {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return err
	}
	a.forget(collection)

	if exists, err := a.exists(ctx, collection); err != nil || !exists {
		return err
	}
	if err := a.client.api.DeleteCollection(ctx, collection); err != nil && !isNotFound(err) {
		return fmt.Errorf("[Qdrant] failed to delete collection '%s': %w", collection, err)
	}
	a.log.Info("[Qdrant] cleared collection", nil, map[string]interface{}{"collection": collection})
	return nil
}

// Count returns the exact number of points in the collection.
func (a *Adapter) Count(ctx context.Context, collection string) (int, error) {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return 0, err
	}
	exists, err := a.exists(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	return a.count(ctx, collection, nil)
}

func (a *Adapter) count(ctx context.Context, collection string, filter *qdrant.Filter) (int, error) {
	exact := true
	n, err := a.client.api.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Filter:         filter,
		Exact:          &exact,
	})
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("[Qdrant] count failed: %w", err)
	}
	return int(n), nil
}

// Delete ──────────────────────────────────────────────────────────────
// Delete
// ──────────────────────────────────────────────────────────────
//
// Delete removes points by document id or by metadata filter. Unknown ids
// are ignored by Qdrant.
func (a *Adapter) Delete(ctx context.Context, collection string, what embeddingdb.Selector) error {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return err
	}
	if err := what.Validate(); err != nil {
		return err
	}

	var selector *qdrant.PointsSelector
	if len(what.IDs) > 0 {
		ids := make([]*qdrant.PointId, len(what.IDs))
		for i, id := range what.IDs {
			ids[i] = qdrant.NewID(PointID(id))
		}
		selector = &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: ids},
			},
		}
	} else {
		filter, err := buildFilter(what.Where)
		if err != nil {
			return err
		}
		selector = &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		}
	}

	if exists, err := a.exists(ctx, collection); err != nil || !exists {
		return err
	}

	wait := true
	resp, err := a.client.api.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         selector,
		Wait:           &wait,
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("[Qdrant] delete failed: %w", err)
	}

	a.log.Debug("[Qdrant] delete completed", nil, map[string]interface{}{
		"collection": collection,
		"status":     resp.GetStatus().String(),
	})
	return nil
}
