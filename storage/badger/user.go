package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/storage"
)

// UserRepository implements storage.UserRepository for BadgerDB.
type UserRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(backend *Backend) (*UserRepository, error) {
	idSeq, err := backend.GetSequence(userIDSeq)
	if err != nil {
		return nil, err
	}

	return &UserRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *UserRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *UserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddUsers adds one or more users to storage.
func (r *UserRepository) AddUsers(ctx context.Context, users ...*core.User) ([]*core.User, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, user := range users {
			if user.Id == 0 {
				id, err := nextSequenceID(r.idSeq)
				if err != nil {
					return err
				}
				user.Id = id
			}

			user.InsertedAt = time.Now().UTC()
			user.UpdatedAt = user.InsertedAt

			if err := tx.Set(makeUserKey(user.Id), storage.MarshalUser(user)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return users, err
}

// GetUser retrieves a single user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id core.ID) (*core.User, error) {
	var user *core.User

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeUserKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = storage.UnmarshalUser(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return user, nil
}
