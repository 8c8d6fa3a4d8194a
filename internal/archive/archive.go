// Package archive stores message analyses in Elasticsearch so they can be
// searched after the workflow moved on.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dealership-workers/internal/common/database"
	apperrors "dealership-workers/internal/common/errors"

	"github.com/google/uuid"
)

const (
	KindEntities  = "entities"
	KindIntent    = "intent"
	KindSentiment = "sentiment"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "tenantId":   {"type": "keyword"},
      "kind":       {"type": "keyword"},
      "messageId":  {"type": "keyword"},
      "text":       {"type": "text"},
      "result":     {"type": "object", "enabled": false},
      "createdAt":  {"type": "date"}
    }
  }
}`

type Record struct {
	ID        string      `json:"-"`
	TenantID  string      `json:"tenantId"`
	Kind      string      `json:"kind"`
	MessageID string      `json:"messageId,omitempty"`
	Text      string      `json:"text"`
	Result    interface{} `json:"result"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Archiver persists analysis records. Archiving is best effort for callers:
// a failure is reported but never changes the analysis result.
type Archiver interface {
	Archive(ctx context.Context, rec Record) error
}

type ElasticsearchArchive struct {
	es    *database.ElasticsearchClient
	index string
}

// NewElasticsearchArchive makes sure index exists before returning.
func NewElasticsearchArchive(ctx context.Context, es *database.ElasticsearchClient, index string) (*ElasticsearchArchive, error) {
	if err := es.EnsureIndex(ctx, index, indexMapping); err != nil {
		return nil, apperrors.NewArchiveFailedError(index, err)
	}
	return &ElasticsearchArchive{es: es, index: index}, nil
}

func (a *ElasticsearchArchive) Archive(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return apperrors.NewArchiveFailedError(a.index, err)
	}

	client := a.es.Client
	res, err := client.Index(
		a.index,
		bytes.NewReader(body),
		client.Index.WithDocumentID(rec.ID),
		client.Index.WithContext(ctx),
	)
	if err != nil {
		return apperrors.NewArchiveFailedError(a.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewArchiveFailedError(a.index, fmt.Errorf("index document: %s", res.Status()))
	}
	return nil
}

// Nop is used when archiving is disabled.
type Nop struct{}

func (Nop) Archive(context.Context, Record) error { return nil }
