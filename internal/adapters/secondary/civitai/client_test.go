package civitai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civitai-archiver/internal/config"
	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

func testClient(baseURL, responseDir string) *Client {
	return NewClient(
		config.CivitaiConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		config.ScrapeConfig{Wait: 0, MaxRetries: 3, PageSize: 100, IncludeNSFW: true},
		responseDir,
	)
}

func pageBody(t *testing.T, count int, nextPage string) []byte {
	t.Helper()
	items := make([]json.RawMessage, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, json.RawMessage(fmt.Sprintf(`{"id":%d}`, i+1)))
	}
	body, err := json.Marshal(map[string]interface{}{
		"items":    items,
		"metadata": map[string]string{"nextPage": nextPage},
	})
	require.NoError(t, err)
	return body
}

func countingHandler(n *int) ports.AssetHandlerFunc {
	return func(ctx context.Context, entry json.RawMessage) error {
		*n++
		return nil
	}
}

func TestCollectAssets_FollowsCursorAcrossPages(t *testing.T) {
	var secondPageQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "p2" {
			secondPageQuery = r.URL.RawQuery
			w.Write(pageBody(t, 40, ""))
			return
		}
		next := "http://" + r.Host + "/api/v1/models?cursor=p2"
		w.Write(pageBody(t, 100, next))
	}))
	defer srv.Close()

	calls := 0
	stats, err := testClient(srv.URL, "").CollectAssets(
		context.Background(), domain.AssetModels, "", countingHandler(&calls))

	require.NoError(t, err)
	assert.Equal(t, 140, calls)
	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 140, stats.Entries)
	assert.Equal(t, 0, stats.Skipped)

	// The upstream drops limit and nsfw from its cursor URLs.
	assert.Contains(t, secondPageQuery, "limit=100")
	assert.Contains(t, secondPageQuery, "nsfw=true")
}

func TestCollectAssets_HandlerErrorSkipsEntryOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pageBody(t, 5, ""))
	}))
	defer srv.Close()

	calls := 0
	handler := ports.AssetHandlerFunc(func(ctx context.Context, entry json.RawMessage) error {
		calls++
		if calls%2 == 0 {
			return domain.ErrMalformedEntry
		}
		return nil
	})

	stats, err := testClient(srv.URL, "").CollectAssets(
		context.Background(), domain.AssetModels, "", handler)

	require.NoError(t, err)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 2, stats.Skipped)
}

func TestCollectAssets_RetriesBelowLimit(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(pageBody(t, 2, ""))
	}))
	defer srv.Close()

	calls := 0
	stats, err := testClient(srv.URL, "").CollectAssets(
		context.Background(), domain.AssetModels, "", countingHandler(&calls))

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 2, stats.Entries)
}

func TestCollectAssets_RetryExhaustionAbortsRun(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	calls := 0
	stats, err := testClient(srv.URL, "").CollectAssets(
		context.Background(), domain.AssetModels, "", countingHandler(&calls))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamStatus)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, 0, stats.Pages)
	assert.Equal(t, 0, calls)
}

func TestCollectAssets_ErrorBodyIsRetried(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Write([]byte(`{"error":"something broke"}`))
	}))
	defer srv.Close()

	calls := 0
	_, err := testClient(srv.URL, "").CollectAssets(
		context.Background(), domain.AssetModels, "", countingHandler(&calls))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamStatus)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestCollectAssets_InvalidAssetType(t *testing.T) {
	_, err := testClient("http://unused", "").CollectAssets(
		context.Background(), domain.AssetType("posts"), "", countingHandler(new(int)))
	assert.ErrorIs(t, err, domain.ErrInvalidAssetType)
}

func TestCollectAssets_SnapshotsResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pageBody(t, 1, ""))
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := testClient(srv.URL, dir).CollectAssets(
		context.Background(), domain.AssetModels, "", countingHandler(new(int)))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "models")
}

func TestGetModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/models/42", r.URL.Path)
		w.Write([]byte(`{"id":42,"name":"test model","type":"LORA"}`))
	}))
	defer srv.Close()

	model, err := testClient(srv.URL, "").GetModel(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), model.ID)
	assert.Equal(t, domain.ModelTypeLORA, model.Type)
	assert.NotEmpty(t, model.Raw)
}

func TestGetModelVersionByHash_NotFoundIsNotRetried(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, "").GetModelVersionByHash(context.Background(), "ABCDEF")
	assert.ErrorIs(t, err, domain.ErrHashNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestGetModelVersionByHash_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":7,"modelId":3}`))
	}))
	defer srv.Close()

	c := NewClient(
		config.CivitaiConfig{BaseURL: srv.URL, APIKey: "secret", Timeout: 5 * time.Second},
		config.ScrapeConfig{MaxRetries: 1, PageSize: 100},
		"",
	)
	version, err := c.GetModelVersionByHash(context.Background(), "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, int64(7), version.ID)
	assert.Equal(t, int64(3), version.ModelID)
}

func TestDownloadAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("binary payload"))
	}))
	defer srv.Close()

	out := t.TempDir() + "/nested/asset.bin"
	err := testClient(srv.URL, "").DownloadAsset(context.Background(), srv.URL+"/file", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "binary payload", string(data))
}

func TestDownloadAsset_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	out := t.TempDir() + "/asset.bin"
	err := testClient(srv.URL, "").DownloadAsset(context.Background(), srv.URL+"/file", out)
	assert.ErrorIs(t, err, domain.ErrUpstreamStatus)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
