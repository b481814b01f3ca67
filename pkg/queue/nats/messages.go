package nats

import (
	"encoding/json"
	"fmt"

	"github.com/tunogya/stride/pkg/model"
)

// Subject constants
const (
	SubjectActivityWrite = "stride.activities.write"
	SubjectRaceWrite     = "stride.races.write"
)

// Subjects lists every subject carried by the stream
func Subjects() []string {
	return []string{SubjectActivityWrite, SubjectRaceWrite}
}

// ActivityBatchMsg carries a batch of activities to upsert
type ActivityBatchMsg struct {
	Activities []model.Activity `json:"activities"`
}

// RaceBatchMsg carries a race dataset. Replace drops the stored dataset
// before writing.
type RaceBatchMsg struct {
	Dataset *model.RaceDataset `json:"dataset"`
	Replace bool               `json:"replace"`
}

// Encode serializes a message to JSON bytes
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeActivityBatch deserializes an ActivityBatchMsg from JSON bytes
func DecodeActivityBatch(data []byte) (*ActivityBatchMsg, error) {
	var msg ActivityBatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode activity batch: %w", err)
	}
	return &msg, nil
}

// DecodeRaceBatch deserializes a RaceBatchMsg from JSON bytes
func DecodeRaceBatch(data []byte) (*RaceBatchMsg, error) {
	var msg RaceBatchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode race batch: %w", err)
	}
	if msg.Dataset == nil {
		return nil, fmt.Errorf("decode race batch: missing dataset")
	}
	return &msg, nil
}

// ChunkActivities splits activities into batches of at most size
func ChunkActivities(activities []model.Activity, size int) [][]model.Activity {
	if size <= 0 {
		size = len(activities)
	}
	var chunks [][]model.Activity
	for start := 0; start < len(activities); start += size {
		end := start + size
		if end > len(activities) {
			end = len(activities)
		}
		chunks = append(chunks, activities[start:end])
	}
	return chunks
}

// ChunkRaceDataset splits ds into datasets of at most size rows that
// share its feature names. An empty dataset yields one empty chunk so a
// replace still reaches the writer.
func ChunkRaceDataset(ds *model.RaceDataset, size int) []*model.RaceDataset {
	if ds == nil {
		ds = &model.RaceDataset{}
	}
	if size <= 0 || len(ds.Rows) <= size {
		return []*model.RaceDataset{ds}
	}
	var chunks []*model.RaceDataset
	for start := 0; start < len(ds.Rows); start += size {
		end := start + size
		if end > len(ds.Rows) {
			end = len(ds.Rows)
		}
		chunks = append(chunks, &model.RaceDataset{
			FeatureNames: ds.FeatureNames,
			Rows:         ds.Rows[start:end],
		})
	}
	return chunks
}

// RaceBatches wraps the chunks of ds as messages. Only the first one
// replaces the stored dataset; later ones append to it.
func RaceBatches(ds *model.RaceDataset, size int, replace bool) []RaceBatchMsg {
	chunks := ChunkRaceDataset(ds, size)
	msgs := make([]RaceBatchMsg, len(chunks))
	for i, chunk := range chunks {
		msgs[i] = RaceBatchMsg{Dataset: chunk, Replace: replace && i == 0}
	}
	return msgs
}
