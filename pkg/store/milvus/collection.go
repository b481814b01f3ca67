package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/tunogya/stride/pkg/model"
)

const (
	// DefaultCollectionName holds one vector per identified race
	DefaultCollectionName = "race_builds"

	embeddingField = "embedding"
)

// CollectionConfig holds configuration for creating a collection
type CollectionConfig struct {
	Name      string
	Dimension int // feature count of the frozen feature set
	Shards    int
	NList     int
}

// DefaultCollectionConfig returns the collection layout for dim features
func DefaultCollectionConfig(dim int) CollectionConfig {
	return CollectionConfig{
		Name:      DefaultCollectionName,
		Dimension: dim,
		Shards:    2,
		NList:     64,
	}
}

// EnsureCollection creates the race_builds collection and its index if
// missing, then loads it for search.
func (c *Client) EnsureCollection(ctx context.Context, cfg CollectionConfig) error {
	exists, err := c.HasCollection(ctx, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !exists {
		if err := c.createCollection(ctx, cfg); err != nil {
			return err
		}
		if err := c.CreateIndex(ctx, cfg.Name, embeddingField, cfg.NList); err != nil {
			return err
		}
	}

	if err := c.LoadCollection(ctx, cfg.Name); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return nil
}

func (c *Client) createCollection(ctx context.Context, cfg CollectionConfig) error {
	schema := &entity.Schema{
		CollectionName: cfg.Name,
		Description:    "Pre-race training build-up vectors for similarity search",
		Fields: []*entity.Field{
			{
				Name:       "race_id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     false,
			},
			{
				Name:     embeddingField,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", cfg.Dimension),
				},
			},
			{
				Name:     "race_distance",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     "race_date",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "race_time_min",
				DataType: entity.FieldTypeDouble,
			},
			{
				Name:     "feature_set_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
		},
	}

	if err := c.conn.CreateCollection(ctx, schema, int32(cfg.Shards)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// RaceBuild is one race's standardised pre-race feature vector
type RaceBuild struct {
	RaceID       int64
	Embedding    []float32
	Distance     model.RaceDistance
	Date         time.Time
	TimeMin      float64
	FeatureSetID string
}

// UpsertBatch writes race build vectors. race_id is the primary key, so
// re-indexing a race replaces its previous vector.
func (c *Client) UpsertBatch(ctx context.Context, collectionName string, builds []RaceBuild) error {
	if len(builds) == 0 {
		return nil
	}

	if _, err := c.conn.Upsert(ctx, collectionName, "", buildColumns(builds)...); err != nil {
		return fmt.Errorf("failed to upsert: %w", err)
	}
	return nil
}

// buildColumns lays builds out column-wise in schema order
func buildColumns(builds []RaceBuild) []entity.Column {
	ids := make([]int64, len(builds))
	embeddings := make([][]float32, len(builds))
	distances := make([]string, len(builds))
	dates := make([]int64, len(builds))
	times := make([]float64, len(builds))
	setIDs := make([]string, len(builds))

	for i, b := range builds {
		ids[i] = b.RaceID
		embeddings[i] = b.Embedding
		distances[i] = string(b.Distance)
		dates[i] = b.Date.Unix()
		times[i] = b.TimeMin
		setIDs[i] = b.FeatureSetID
	}

	return []entity.Column{
		entity.NewColumnInt64("race_id", ids),
		entity.NewColumnFloatVector(embeddingField, len(embeddings[0]), embeddings),
		entity.NewColumnVarChar("race_distance", distances),
		entity.NewColumnInt64("race_date", dates),
		entity.NewColumnDouble("race_time_min", times),
		entity.NewColumnVarChar("feature_set_id", setIDs),
	}
}

// SearchResult is one similar past race
type SearchResult struct {
	RaceID       int64
	Score        float32
	Distance     model.RaceDistance
	Date         time.Time
	TimeMin      float64
	FeatureSetID string
}

// DistanceFilter restricts a search to one race distance and feature set
func DistanceFilter(d model.RaceDistance, featureSetID string) string {
	return fmt.Sprintf("race_distance == %q && feature_set_id == %q", string(d), featureSetID)
}

// Search performs a TopK cosine similarity search
func (c *Client) Search(ctx context.Context, collectionName string, embedding []float32, filter string, topK, nprobe int) ([]SearchResult, error) {
	vectors := []entity.Vector{entity.FloatVector(embedding)}

	sp, err := entity.NewIndexIvfFlatSearchParam(nprobe)
	if err != nil {
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	outputFields := []string{"race_id", "race_distance", "race_date", "race_time_min", "feature_set_id"}

	results, err := c.conn.Search(
		ctx,
		collectionName,
		nil, // partitions
		filter,
		outputFields,
		vectors,
		embeddingField,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	hits := make([]SearchResult, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		hit := SearchResult{Score: results[0].Scores[i]}

		for _, field := range results[0].Fields {
			switch field.Name() {
			case "race_id":
				if col, ok := field.(*entity.ColumnInt64); ok {
					hit.RaceID, _ = col.ValueByIdx(i)
				}
			case "race_distance":
				if col, ok := field.(*entity.ColumnVarChar); ok {
					val, _ := col.ValueByIdx(i)
					hit.Distance, _ = model.ParseRaceDistance(val)
				}
			case "race_date":
				if col, ok := field.(*entity.ColumnInt64); ok {
					val, _ := col.ValueByIdx(i)
					hit.Date = time.Unix(val, 0).UTC()
				}
			case "race_time_min":
				if col, ok := field.(*entity.ColumnDouble); ok {
					hit.TimeMin, _ = col.ValueByIdx(i)
				}
			case "feature_set_id":
				if col, ok := field.(*entity.ColumnVarChar); ok {
					hit.FeatureSetID, _ = col.ValueByIdx(i)
				}
			}
		}

		hits = append(hits, hit)
	}

	return hits, nil
}
