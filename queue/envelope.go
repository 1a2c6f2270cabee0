package queue

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// DefaultMaxAttempts is how many times a job is tried before it is dropped.
const DefaultMaxAttempts = 3

// Envelope is the durable wrapper around one job payload.
type Envelope struct {
	Id          string // uuid, stable across retries
	Queue       string
	Payload     []byte
	Attempts    int // completed attempts; 0 for a fresh job
	MaxAttempts int
	EnqueuedAt  time.Time
	NotBefore   time.Time // zero = immediately visible
}

// Visible reports whether the envelope may be delivered at the given time.
func (e *Envelope) Visible(now time.Time) bool {
	return e.NotBefore.IsZero() || !e.NotBefore.After(now)
}

// EnvelopeMUS serializes envelopes for storage.
var EnvelopeMUS = envelopeMUS{}

type envelopeMUS struct{}

func (envelopeMUS) Marshal(v Envelope, bs []byte) int {
	n := ord.String.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Queue, bs[n:])
	n += varint.Int.Marshal(len(v.Payload), bs[n:])
	n += copy(bs[n:], v.Payload)
	n += varint.Int.Marshal(v.Attempts, bs[n:])
	n += varint.Int.Marshal(v.MaxAttempts, bs[n:])
	n += marshalEnvelopeTime(v.EnqueuedAt, bs[n:])
	n += marshalEnvelopeTime(v.NotBefore, bs[n:])
	return n
}

func (envelopeMUS) Unmarshal(bs []byte) (v Envelope, n int, err error) {
	var m int
	if v.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Queue, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var length int
	if length, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if length < 0 || length > len(bs)-n {
		return v, n, ErrCorruptEnvelope
	}
	if length > 0 {
		v.Payload = make([]byte, length)
		n += copy(v.Payload, bs[n:n+length])
	}
	if v.Attempts, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.MaxAttempts, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.EnqueuedAt, m, err = unmarshalEnvelopeTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.NotBefore, m, err = unmarshalEnvelopeTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (envelopeMUS) Size(v Envelope) int {
	return ord.String.Size(v.Id) +
		ord.String.Size(v.Queue) +
		varint.Int.Size(len(v.Payload)) + len(v.Payload) +
		varint.Int.Size(v.Attempts) +
		varint.Int.Size(v.MaxAttempts) +
		sizeEnvelopeTime(v.EnqueuedAt) +
		sizeEnvelopeTime(v.NotBefore)
}

func marshalEnvelopeTime(t time.Time, bs []byte) int {
	var us int64
	if !t.IsZero() {
		us = t.UnixMicro()
	}
	return varint.Int64.Marshal(us, bs)
}

func unmarshalEnvelopeTime(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || us == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func sizeEnvelopeTime(t time.Time) int {
	var us int64
	if !t.IsZero() {
		us = t.UnixMicro()
	}
	return varint.Int64.Size(us)
}
