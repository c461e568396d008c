// Package storage persists ingested batches in a NATS JetStream KV bucket.
// Each batch is one key: its descriptor plus records, JSON-encoded and
// snappy-compressed. The store is a best-effort collaborator; the in-memory
// store remains the session source of truth.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/demoscope/record"
)

// BucketBatches is the KV bucket holding ingested batches.
const BucketBatches = "DEMOSCOPE_BATCHES"

// storedBatch is the on-wire envelope for one persisted batch.
type storedBatch struct {
	Descriptor record.FileDescriptor `json:"descriptor"`
	Records    []record.Record       `json:"records"`
	SavedAt    time.Time             `json:"saved_at"`
}

// Store provides batch persistence backed by NATS KV. It satisfies the
// in-memory store's Backend interface.
type Store struct {
	batches jetstream.KeyValue
}

// NewStore creates a Store with the given JetStream context, creating the
// batches bucket if it doesn't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	batches, err := getOrCreateBucket(ctx, js, BucketBatches)
	if err != nil {
		return nil, fmt.Errorf("create batches bucket: %w", err)
	}
	return &Store{batches: batches}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Demoscope ingested batch storage",
	})
}

// Save persists one batch under its descriptor id, replacing any previous
// revision.
func (s *Store) Save(ctx context.Context, desc record.FileDescriptor, records []record.Record) error {
	if desc.ID == "" {
		return errors.New("batch id is required")
	}

	data, err := encodeBatch(storedBatch{
		Descriptor: desc,
		Records:    records,
		SavedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	if _, err := s.batches.Put(ctx, desc.ID, data); err != nil {
		return fmt.Errorf("store batch: %w", err)
	}
	return nil
}

// Get retrieves one batch by id.
func (s *Store) Get(ctx context.Context, id string) (record.Dataset, error) {
	entry, err := s.batches.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return record.Dataset{}, ErrNotFound
		}
		return record.Dataset{}, fmt.Errorf("get batch: %w", err)
	}

	stored, err := decodeBatch(entry.Value())
	if err != nil {
		return record.Dataset{}, fmt.Errorf("decode batch: %w", err)
	}
	return record.Dataset{Descriptor: stored.Descriptor, Records: stored.Records}, nil
}

// List returns every persisted batch. Entries that fail to load or decode
// are skipped rather than failing rehydration wholesale.
func (s *Store) List(ctx context.Context) ([]record.Dataset, error) {
	keys, err := s.batches.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list batch keys: %w", err)
	}

	datasets := make([]record.Dataset, 0, len(keys))
	for _, key := range keys {
		entry, err := s.batches.Get(ctx, key)
		if err != nil {
			continue
		}
		stored, err := decodeBatch(entry.Value())
		if err != nil {
			continue
		}
		datasets = append(datasets, record.Dataset{
			Descriptor: stored.Descriptor,
			Records:    stored.Records,
		})
	}
	return datasets, nil
}

// Delete removes one batch by id. Deleting an absent batch is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.batches.Purge(ctx, id); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}

// Clear removes every persisted batch.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.batches.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}
		return fmt.Errorf("list batch keys: %w", err)
	}
	for _, key := range keys {
		if err := s.batches.Purge(ctx, key); err != nil {
			return fmt.Errorf("purge batch %s: %w", key, err)
		}
	}
	return nil
}

func encodeBatch(b storedBatch) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, data), nil
}

func decodeBatch(data []byte) (storedBatch, error) {
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return storedBatch{}, err
	}
	var stored storedBatch
	if err := json.Unmarshal(decompressed, &stored); err != nil {
		return storedBatch{}, err
	}
	return stored, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, jetstream.ErrKeyNotFound)
}
