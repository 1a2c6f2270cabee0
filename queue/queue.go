package queue

import (
	"context"
	"encoding/binary"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Standard queue names used by the pipeline.
const (
	ScrapeQueue          = "scrape"
	EmbeddingQueue       = "embedding"
	RescrapeSweepQueue   = "scheduled-rescrape"
	DeletionSweepQueue   = "scheduled-deletion-check"
	DeletionProcessQueue = "deletion-process"
)

// Queue is a durable, ordered submission point for one job family.
type Queue struct {
	conn *Connection
	name string
	seq  *badgerdb.Sequence
}

// New creates a queue with the given name on the shared connection.
func New(conn *Connection, name string) (*Queue, error) {
	if conn == nil {
		return nil, ErrConnectionRequired
	}

	seq, err := conn.backend.GetSequence("qseq:" + name)
	if err != nil {
		return nil, err
	}

	return &Queue{
		conn: conn,
		name: name,
		seq:  seq,
	}, nil
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Close releases the queue's sequence.
func (q *Queue) Close() error {
	return q.seq.Release()
}

// Enqueue appends a fresh job to the queue and returns its envelope.
// Fire-and-forget: consumption happens in a separate worker.
func (q *Queue) Enqueue(ctx context.Context, payload []byte) (*Envelope, error) {
	env := &Envelope{
		Id:          uuid.NewString(),
		Queue:       q.name,
		Payload:     payload,
		MaxAttempts: DefaultMaxAttempts,
		EnqueuedAt:  time.Now().UTC(),
	}
	if err := q.put(env); err != nil {
		return nil, err
	}
	return env, nil
}

// Requeue appends an already-attempted envelope, typically with a retry
// delay in NotBefore. Attempts and Id are preserved.
func (q *Queue) Requeue(ctx context.Context, env *Envelope) error {
	return q.put(env)
}

// Dequeue removes and returns the oldest visible envelope.
// Returns ErrQueueEmpty when nothing is ready; polling between jobs
// belongs to the Worker.
func (q *Queue) Dequeue(ctx context.Context) (*Envelope, error) {
	var env *Envelope
	now := time.Now().UTC()

	err := q.conn.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = q.keyPrefix()

		var key []byte
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			var candidate Envelope
			err := item.Value(func(val []byte) error {
				var err error
				candidate, _, err = EnvelopeMUS.Unmarshal(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}

			// Delayed retries stay parked without blocking newer jobs.
			if !candidate.Visible(now) {
				continue
			}

			key = item.KeyCopy(nil)
			env = &candidate
			break
		}
		// Commit refuses a transaction with an open iterator.
		iter.Close()

		if env == nil {
			return ErrQueueEmpty
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return env, nil
}

// Len returns the number of envelopes currently stored, visible or not.
func (q *Queue) Len(ctx context.Context) (int, error) {
	count := 0

	err := q.conn.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = q.keyPrefix()
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

func (q *Queue) put(env *Envelope) error {
	next, err := q.seq.Next()
	if err != nil {
		return err
	}

	key := q.makeKey(next)
	buf := make([]byte, EnvelopeMUS.Size(*env))
	EnvelopeMUS.Marshal(*env, buf)

	return q.conn.backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set(key, buf); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (q *Queue) keyPrefix() []byte {
	return []byte("q:" + q.name + ":")
}

// makeKey builds a FIFO key: prefix + BigEndian sequence number so
// lexicographic order is insertion order.
func (q *Queue) makeKey(seq uint64) []byte {
	prefix := q.keyPrefix()
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}
