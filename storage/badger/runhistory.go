package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/storage"
)

// RunHistoryRepository implements storage.RunHistoryRepository for BadgerDB.
type RunHistoryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.RunHistoryRepository = (*RunHistoryRepository)(nil)

// NewRunHistoryRepository creates a new RunHistoryRepository.
func NewRunHistoryRepository(backend *Backend) (*RunHistoryRepository, error) {
	idSeq, err := backend.GetSequence(runIDSeq)
	if err != nil {
		return nil, err
	}

	return &RunHistoryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *RunHistoryRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *RunHistoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddRunHistories adds one or more run history rows.
func (r *RunHistoryRepository) AddRunHistories(ctx context.Context, runs ...*core.RunHistory) ([]*core.RunHistory, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, run := range runs {
			if err := core.ValidateRunHistory(run); err != nil {
				return err
			}

			if run.Id == 0 {
				id, err := nextSequenceID(r.idSeq)
				if err != nil {
					return err
				}
				run.Id = id
			}

			run.InsertedAt = time.Now().UTC()
			run.UpdatedAt = run.InsertedAt

			if err := tx.Set(makeRunKey(run.Id), storage.MarshalRunHistory(run)); err != nil {
				return err
			}

			// Per-chatbot index
			indexKey := makeRunChatbotKey(run.ChatbotId, run.Id)
			if err := tx.Set(indexKey, storage.MarshalID(run.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return runs, err
}

// UpdateRunHistories updates existing run history rows.
func (r *RunHistoryRepository) UpdateRunHistories(ctx context.Context, runs ...*core.RunHistory) ([]*core.RunHistory, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, run := range runs {
			key := makeRunKey(run.Id)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return storage.ErrNotFound
				}
				return err
			}

			run.UpdatedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalRunHistory(run)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return runs, err
}

// GetRunHistory retrieves a single run by ID.
func (r *RunHistoryRepository) GetRunHistory(ctx context.Context, id core.ID) (*core.RunHistory, error) {
	var run *core.RunHistory

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRunKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			run, err = storage.UnmarshalRunHistory(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRunsByChatbot retrieves all runs for a chatbot, newest first.
func (r *RunHistoryRepository) ListRunsByChatbot(ctx context.Context, chatbotID core.ID) ([]*core.RunHistory, error) {
	var ids []core.ID

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialRunChatbotKey(chatbotID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				id, err := storage.UnmarshalID(val)
				if err != nil {
					return err
				}
				ids = append(ids, id)
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

	runs := make([]*core.RunHistory, 0, len(ids))
	for _, id := range ids {
		run, err := r.GetRunHistory(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	// Index order is oldest first; callers want newest first.
	slices.Reverse(runs)
	return runs, nil
}
