// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the domain types. The payload surface is small enough
// that these are maintained by hand instead of generated.
//
// Timestamps are stored as UnixMicro; the zero time is stored as 0.

var (
	IDMUS              = idMUS{}
	ChatbotMUS         = chatbotMUS{}
	UserMUS            = userMUS{}
	RunHistoryMUS      = runHistoryMUS{}
	EmbeddingRecordMUS = embeddingRecordMUS{}
	DeletionRequestMUS = deletionRequestMUS{}
	PageMUS            = pageMUS{}
)

func marshalTime(t time.Time, bs []byte) int {
	var us int64
	if !t.IsZero() {
		us = t.UnixMicro()
	}
	return varint.Int64.Marshal(us, bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || us == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	var us int64
	if !t.IsZero() {
		us = t.UnixMicro()
	}
	return varint.Int64.Size(us)
}

func marshalVector(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := 0; i < length; i++ {
		f, fn, err := raw.Float32.Unmarshal(bs[n:])
		n += fn
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

func sizeVector(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type chatbotMUS struct{}

func (chatbotMUS) Marshal(v Chatbot, bs []byte) int {
	n := IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.OwnerId, bs[n:])
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.WebsiteURL, bs[n:])
	n += varint.Int.Marshal(v.MaxPages, bs[n:])
	n += ord.Bool.Marshal(v.AutoRescrape, bs[n:])
	n += ord.String.Marshal(string(v.Frequency), bs[n:])
	n += marshalTime(v.LastScrapedAt, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (chatbotMUS) Unmarshal(bs []byte) (v Chatbot, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.OwnerId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.WebsiteURL, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.MaxPages, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.AutoRescrape, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var freq string
	if freq, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	v.Frequency = ScrapeFrequency(freq)
	n += m
	if v.LastScrapedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.InsertedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (chatbotMUS) Size(v Chatbot) int {
	return IDMUS.Size(v.Id) +
		IDMUS.Size(v.OwnerId) +
		ord.String.Size(v.Name) +
		ord.String.Size(v.WebsiteURL) +
		varint.Int.Size(v.MaxPages) +
		ord.Bool.Size(v.AutoRescrape) +
		ord.String.Size(string(v.Frequency)) +
		sizeTime(v.LastScrapedAt) +
		sizeTime(v.InsertedAt) +
		sizeTime(v.UpdatedAt)
}

type userMUS struct{}

func (userMUS) Marshal(v User, bs []byte) int {
	n := IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Email, bs[n:])
	n += ord.String.Marshal(v.Name, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (userMUS) Unmarshal(bs []byte) (v User, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.Email, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.InsertedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (userMUS) Size(v User) int {
	return IDMUS.Size(v.Id) +
		ord.String.Size(v.Email) +
		ord.String.Size(v.Name) +
		sizeTime(v.InsertedAt) +
		sizeTime(v.UpdatedAt)
}

type runHistoryMUS struct{}

func (runHistoryMUS) Marshal(v RunHistory, bs []byte) int {
	n := IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.ChatbotId, bs[n:])
	n += ord.String.Marshal(string(v.Status), bs[n:])
	n += varint.Int.Marshal(v.PagesScraped, bs[n:])
	n += varint.Int.Marshal(v.EmbeddingsCreated, bs[n:])
	n += ord.String.Marshal(v.ErrorMessage, bs[n:])
	n += ord.String.Marshal(string(v.TriggeredBy), bs[n:])
	n += marshalTime(v.StartedAt, bs[n:])
	n += marshalTime(v.CompletedAt, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (runHistoryMUS) Unmarshal(bs []byte) (v RunHistory, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.ChatbotId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var s string
	if s, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	v.Status = RunStatus(s)
	n += m
	if v.PagesScraped, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.EmbeddingsCreated, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.ErrorMessage, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if s, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	v.TriggeredBy = TriggerSource(s)
	n += m
	if v.StartedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.CompletedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.InsertedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (runHistoryMUS) Size(v RunHistory) int {
	return IDMUS.Size(v.Id) +
		IDMUS.Size(v.ChatbotId) +
		ord.String.Size(string(v.Status)) +
		varint.Int.Size(v.PagesScraped) +
		varint.Int.Size(v.EmbeddingsCreated) +
		ord.String.Size(v.ErrorMessage) +
		ord.String.Size(string(v.TriggeredBy)) +
		sizeTime(v.StartedAt) +
		sizeTime(v.CompletedAt) +
		sizeTime(v.InsertedAt) +
		sizeTime(v.UpdatedAt)
}

type embeddingRecordMUS struct{}

func (embeddingRecordMUS) Marshal(v EmbeddingRecord, bs []byte) int {
	n := IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.ChatbotId, bs[n:])
	n += varint.Int64.Marshal(v.Generation, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	n += ord.String.Marshal(v.SourceURL, bs[n:])
	n += ord.String.Marshal(v.Chunk, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	return n
}

func (embeddingRecordMUS) Unmarshal(bs []byte) (v EmbeddingRecord, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.ChatbotId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Generation, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Vector, m, err = unmarshalVector(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.SourceURL, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Chunk, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.InsertedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (embeddingRecordMUS) Size(v EmbeddingRecord) int {
	return IDMUS.Size(v.Id) +
		IDMUS.Size(v.ChatbotId) +
		varint.Int64.Size(v.Generation) +
		sizeVector(v.Vector) +
		ord.String.Size(v.SourceURL) +
		ord.String.Size(v.Chunk) +
		sizeTime(v.InsertedAt)
}

type deletionRequestMUS struct{}

func (deletionRequestMUS) Marshal(v DeletionRequest, bs []byte) int {
	n := IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.UserId, bs[n:])
	n += ord.String.Marshal(string(v.Status), bs[n:])
	n += marshalTime(v.ScheduledFor, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (deletionRequestMUS) Unmarshal(bs []byte) (v DeletionRequest, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.UserId, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var s string
	if s, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	v.Status = DeletionStatus(s)
	n += m
	if v.ScheduledFor, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.InsertedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.UpdatedAt, m, err = unmarshalTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (deletionRequestMUS) Size(v DeletionRequest) int {
	return IDMUS.Size(v.Id) +
		IDMUS.Size(v.UserId) +
		ord.String.Size(string(v.Status)) +
		sizeTime(v.ScheduledFor) +
		sizeTime(v.InsertedAt) +
		sizeTime(v.UpdatedAt)
}

type pageMUS struct{}

func (pageMUS) Marshal(v Page, bs []byte) int {
	n := ord.String.Marshal(v.URL, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	return n
}

func (pageMUS) Unmarshal(bs []byte) (v Page, n int, err error) {
	var m int
	if v.URL, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.Content, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (pageMUS) Size(v Page) int {
	return ord.String.Size(v.URL) +
		ord.String.Size(v.Title) +
		ord.String.Size(v.Content)
}
