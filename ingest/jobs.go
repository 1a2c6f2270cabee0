package ingest

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/sitebot/core"
)

// ScrapeJob asks the scrape worker to crawl one chatbot's website.
// HistoryId may be zero for ad-hoc runs that are not tracked.
// IsRescrape marks runs over an already-trained chatbot.
type ScrapeJob struct {
	ChatbotId  core.ID
	HistoryId  core.ID
	WebsiteURL string
	MaxPages   int
	IsRescrape bool
}

// EmbeddingJob carries crawled pages from the scrape stage to the
// embedding stage. StartedAt is the run start time and doubles as the
// embedding generation; it is carried in the job so untracked runs
// (HistoryId zero) still get a consistent generation.
type EmbeddingJob struct {
	ChatbotId core.ID
	HistoryId core.ID
	StartedAt time.Time
	Pages     []core.Page
}

// ScrapeJobMUS serializes scrape jobs for queue payloads.
var ScrapeJobMUS = scrapeJobMUS{}

type scrapeJobMUS struct{}

func (scrapeJobMUS) Marshal(v ScrapeJob, bs []byte) int {
	n := core.IDMUS.Marshal(v.ChatbotId, bs)
	n += core.IDMUS.Marshal(v.HistoryId, bs[n:])
	n += ord.String.Marshal(v.WebsiteURL, bs[n:])
	n += varint.Int.Marshal(v.MaxPages, bs[n:])
	n += ord.Bool.Marshal(v.IsRescrape, bs[n:])
	return n
}

func (scrapeJobMUS) Unmarshal(bs []byte) (v ScrapeJob, n int, err error) {
	var m int
	if v.ChatbotId, n, err = core.IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.HistoryId, m, err = core.IDMUS.Unmarshal(bs[n:]); err != nil {
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
	if v.IsRescrape, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	return v, n, nil
}

func (scrapeJobMUS) Size(v ScrapeJob) int {
	return core.IDMUS.Size(v.ChatbotId) +
		core.IDMUS.Size(v.HistoryId) +
		ord.String.Size(v.WebsiteURL) +
		varint.Int.Size(v.MaxPages) +
		ord.Bool.Size(v.IsRescrape)
}

// EmbeddingJobMUS serializes embedding jobs for queue payloads.
var EmbeddingJobMUS = embeddingJobMUS{}

type embeddingJobMUS struct{}

func (embeddingJobMUS) Marshal(v EmbeddingJob, bs []byte) int {
	n := core.IDMUS.Marshal(v.ChatbotId, bs)
	n += core.IDMUS.Marshal(v.HistoryId, bs[n:])
	n += marshalJobTime(v.StartedAt, bs[n:])
	n += varint.Int.Marshal(len(v.Pages), bs[n:])
	for _, page := range v.Pages {
		n += core.PageMUS.Marshal(page, bs[n:])
	}
	return n
}

func (embeddingJobMUS) Unmarshal(bs []byte) (v EmbeddingJob, n int, err error) {
	var m int
	if v.ChatbotId, n, err = core.IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.HistoryId, m, err = core.IDMUS.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if v.StartedAt, m, err = unmarshalJobTime(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	var count int
	if count, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return v, n + m, err
	}
	n += m
	if count > 0 {
		v.Pages = make([]core.Page, count)
		for i := 0; i < count; i++ {
			if v.Pages[i], m, err = core.PageMUS.Unmarshal(bs[n:]); err != nil {
				return v, n + m, err
			}
			n += m
		}
	}
	return v, n, nil
}

func (embeddingJobMUS) Size(v EmbeddingJob) int {
	size := core.IDMUS.Size(v.ChatbotId) +
		core.IDMUS.Size(v.HistoryId) +
		sizeJobTime(v.StartedAt) +
		varint.Int.Size(len(v.Pages))
	for _, page := range v.Pages {
		size += core.PageMUS.Size(page)
	}
	return size
}

// EncodeScrapeJob marshals a scrape job into a queue payload.
func EncodeScrapeJob(job ScrapeJob) []byte {
	buf := make([]byte, ScrapeJobMUS.Size(job))
	ScrapeJobMUS.Marshal(job, buf)
	return buf
}

// DecodeScrapeJob unmarshals a queue payload into a scrape job.
func DecodeScrapeJob(payload []byte) (ScrapeJob, error) {
	job, _, err := ScrapeJobMUS.Unmarshal(payload)
	return job, err
}

// EncodeEmbeddingJob marshals an embedding job into a queue payload.
func EncodeEmbeddingJob(job EmbeddingJob) []byte {
	buf := make([]byte, EmbeddingJobMUS.Size(job))
	EmbeddingJobMUS.Marshal(job, buf)
	return buf
}

// DecodeEmbeddingJob unmarshals a queue payload into an embedding job.
func DecodeEmbeddingJob(payload []byte) (EmbeddingJob, error) {
	job, _, err := EmbeddingJobMUS.Unmarshal(payload)
	return job, err
}

func marshalJobTime(t time.Time, bs []byte) int {
	var us int64
	if !t.IsZero() {
		us = t.UnixMicro()
	}
	return varint.Int64.Marshal(us, bs)
}

func unmarshalJobTime(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || us == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func sizeJobTime(t time.Time) int {
	var us int64
	if !t.IsZero() {
		us = t.UnixMicro()
	}
	return varint.Int64.Size(us)
}
