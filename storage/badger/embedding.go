package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
//
// Records are keyed by (chatbot, generation, id) so that a per-chatbot
// scan visits generations oldest first, which makes the generation swap a
// bounded prefix walk.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) *EmbeddingRepository {
	return &EmbeddingRepository{backend: backend}
}

// Close is a no-op; the repository holds no sequence.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *EmbeddingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddEmbeddings adds one or more embedding records.
func (r *EmbeddingRepository) AddEmbeddings(ctx context.Context, records ...*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.Chunk == "" {
				return core.ErrEmptyChunk
			}
			if record.Id == 0 {
				record.Id = core.IDFromContent(record.SourceURL + record.Chunk)
			}
			record.InsertedAt = time.Now().UTC()

			key := makeEmbeddingKey(record.ChatbotId, record.Generation, record.Id)
			if err := tx.Set(key, storage.MarshalEmbeddingRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// DeleteGenerationsBefore removes every embedding for the chatbot whose
// generation is strictly older than the given one.
func (r *EmbeddingRepository) DeleteGenerationsBefore(ctx context.Context, chatbotID core.ID, generation int64) (int, error) {
	var keys [][]byte

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEmbeddingKey(chatbotID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			gen, ok := embeddingKeyGeneration(key)
			if !ok {
				continue
			}
			// Keys sort by generation, so the first record at or past the
			// cutoff ends the scan.
			if gen >= generation {
				break
			}
			keys = append(keys, key)
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// CountByChatbot returns the number of embeddings stored for a chatbot.
func (r *EmbeddingRepository) CountByChatbot(ctx context.Context, chatbotID core.ID) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEmbeddingKey(chatbotID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	return count, err
}

// ListByChatbot retrieves all embeddings for a chatbot.
func (r *EmbeddingRepository) ListByChatbot(ctx context.Context, chatbotID core.ID) ([]*core.EmbeddingRecord, error) {
	var records []*core.EmbeddingRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialEmbeddingKey(chatbotID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalEmbeddingRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindSimilar finds embeddings for a chatbot similar to the given vector.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, chatbotID core.ID, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error) {
	records, err := r.ListByChatbot(ctx, chatbotID)
	if err != nil {
		return nil, err
	}

	var matches []*core.SimilarityMatch
	for _, record := range records {
		if len(record.Vector) == 0 {
			continue
		}

		// Cosine similarity (dot product for normalized vectors)
		similarity := dotProduct(vector, record.Vector)
		if similarity >= minSimilarity {
			matches = append(matches, &core.SimilarityMatch{
				Record: record,
				Score:  similarity,
			})
		}
	}

	slices.SortFunc(matches, func(a, b *core.SimilarityMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
