package archive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"dealership-workers/internal/common/config"
	"dealership-workers/internal/common/database"
	apperrors "dealership-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeElasticsearch struct {
	mu        sync.Mutex
	documents map[string]map[string]interface{}
	failIndex bool
}

func (f *fakeElasticsearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && !strings.Contains(r.URL.Path, "/_doc/"):
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case strings.Contains(r.URL.Path, "/_doc/"):
		if f.failIndex {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"unavailable"}`))
			return
		}
		raw, _ := io.ReadAll(r.Body)
		var doc map[string]interface{}
		_ = json.Unmarshal(raw, &doc)
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		f.mu.Lock()
		f.documents[id] = doc
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func newArchive(t *testing.T) (*ElasticsearchArchive, *fakeElasticsearch) {
	t.Helper()
	fake := &fakeElasticsearch{documents: make(map[string]map[string]interface{})}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	a, err := NewElasticsearchArchive(context.Background(), es, "message-analyses")
	require.NoError(t, err)
	return a, fake
}

func TestElasticsearchArchive_Archive(t *testing.T) {
	a, fake := newArchive(t)

	err := a.Archive(context.Background(), Record{
		ID:       "rec-1",
		TenantID: "tenant-1",
		Kind:     KindIntent,
		Text:     "quiero comprar un auto",
		Result:   map[string]interface{}{"primaryIntent": "compra"},
	})
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	doc, ok := fake.documents["rec-1"]
	require.True(t, ok)
	assert.Equal(t, "tenant-1", doc["tenantId"])
	assert.Equal(t, "intent", doc["kind"])
	assert.NotEmpty(t, doc["createdAt"])
}

func TestElasticsearchArchive_GeneratesID(t *testing.T) {
	a, fake := newArchive(t)

	require.NoError(t, a.Archive(context.Background(), Record{TenantID: "tenant-1", Kind: KindEntities}))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Len(t, fake.documents, 1)
}

func TestElasticsearchArchive_Failure(t *testing.T) {
	a, fake := newArchive(t)
	fake.failIndex = true

	err := a.Archive(context.Background(), Record{TenantID: "tenant-1", Kind: KindSentiment})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeArchiveFailed))
}
