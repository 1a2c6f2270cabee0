package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/storage"
)

// DeletionRequestRepository implements storage.DeletionRequestRepository
// for BadgerDB.
type DeletionRequestRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DeletionRequestRepository = (*DeletionRequestRepository)(nil)

// NewDeletionRequestRepository creates a new DeletionRequestRepository.
func NewDeletionRequestRepository(backend *Backend) (*DeletionRequestRepository, error) {
	idSeq, err := backend.GetSequence(deletionIDSeq)
	if err != nil {
		return nil, err
	}

	return &DeletionRequestRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DeletionRequestRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DeletionRequestRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDeletionRequests adds one or more deletion requests.
func (r *DeletionRequestRepository) AddDeletionRequests(ctx context.Context, reqs ...*core.DeletionRequest) ([]*core.DeletionRequest, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, req := range reqs {
			if req.Id == 0 {
				id, err := nextSequenceID(r.idSeq)
				if err != nil {
					return err
				}
				req.Id = id
			}

			req.InsertedAt = time.Now().UTC()
			req.UpdatedAt = req.InsertedAt

			if err := tx.Set(makeDeletionKey(req.Id), storage.MarshalDeletionRequest(req)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return reqs, err
}

// ListDuePending retrieves requests with status pending and
// ScheduledFor <= now.
func (r *DeletionRequestRepository) ListDuePending(ctx context.Context, now time.Time) ([]*core.DeletionRequest, error) {
	var due []*core.DeletionRequest

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(deletionPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				req, err := storage.UnmarshalDeletionRequest(val)
				if err != nil {
					return err
				}
				if req.Status == core.DeletionPending && !req.ScheduledFor.After(now) {
					due = append(due, req)
				}
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
	return due, nil
}
