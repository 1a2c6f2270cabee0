package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sitebot/core"
	"github.com/poiesic/sitebot/storage"
)

// ChatbotRepository implements storage.ChatbotRepository for BadgerDB.
type ChatbotRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChatbotRepository = (*ChatbotRepository)(nil)

// NewChatbotRepository creates a new ChatbotRepository.
func NewChatbotRepository(backend *Backend) (*ChatbotRepository, error) {
	idSeq, err := backend.GetSequence(chatbotIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChatbotRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChatbotRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ChatbotRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddChatbots adds one or more chatbots to storage.
func (r *ChatbotRepository) AddChatbots(ctx context.Context, bots ...*core.Chatbot) ([]*core.Chatbot, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, bot := range bots {
			if bot.Id == 0 {
				id, err := nextSequenceID(r.idSeq)
				if err != nil {
					return err
				}
				bot.Id = id
			}

			bot.InsertedAt = time.Now().UTC()
			bot.UpdatedAt = bot.InsertedAt

			key := makeChatbotKey(bot.Id)
			if err := tx.Set(key, storage.MarshalChatbot(bot)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return bots, err
}

// UpdateChatbots updates existing chatbots.
func (r *ChatbotRepository) UpdateChatbots(ctx context.Context, bots ...*core.Chatbot) ([]*core.Chatbot, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, bot := range bots {
			key := makeChatbotKey(bot.Id)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return storage.ErrNotFound
				}
				return err
			}

			bot.UpdatedAt = time.Now().UTC()
			if err := tx.Set(key, storage.MarshalChatbot(bot)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return bots, err
}

// GetChatbot retrieves a single chatbot by ID.
func (r *ChatbotRepository) GetChatbot(ctx context.Context, id core.ID) (*core.Chatbot, error) {
	var bot *core.Chatbot

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeChatbotKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			bot, err = storage.UnmarshalChatbot(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return bot, nil
}

// ListAutoRescrape retrieves every chatbot with auto-rescrape enabled.
func (r *ChatbotRepository) ListAutoRescrape(ctx context.Context) ([]*core.Chatbot, error) {
	var bots []*core.Chatbot

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chatbotPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var bot *core.Chatbot
			err := iter.Item().Value(func(val []byte) error {
				var err error
				bot, err = storage.UnmarshalChatbot(val)
				return err
			})
			if err != nil {
				return err
			}
			if bot != nil && bot.AutoRescrape {
				bots = append(bots, bot)
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return bots, nil
}

// nextSequenceID returns the next non-zero ID from a badger sequence.
// BadgerDB sequences can return 0 on first call, so we skip it.
func nextSequenceID(seq *badger.Sequence) (core.ID, error) {
	next, err := seq.Next()
	if err != nil {
		return 0, err
	}
	if next == 0 {
		next, err = seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}
