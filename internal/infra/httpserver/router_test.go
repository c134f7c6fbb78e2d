package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/stoolscan/internal/application"
	appanalysis "github.com/bryanwahyu/stoolscan/internal/application/analysis"
	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
	"github.com/bryanwahyu/stoolscan/internal/infra/db"
	"github.com/bryanwahyu/stoolscan/internal/infra/db/sqlite"
	"github.com/bryanwahyu/stoolscan/internal/middleware"
)

var now = time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

// MockModel implements domain.Model for testing
type MockModel struct {
	Reply string
	Err   error
}

func (m *MockModel) Describe(context.Context, domain.Image) (string, error) {
	return m.Reply, m.Err
}

func newTestServer(t *testing.T, model domain.Model, repo domain.Repository) (*httptest.Server, *appanalysis.Service) {
	t.Helper()
	svc := &appanalysis.Service{
		Model:           model,
		Repo:            repo,
		Clock:           application.FixedClock(now),
		MaskModelErrors: true,
		MaskStoreErrors: true,
	}
	srv := httptest.NewServer(NewRouter(svc, Options{
		HealthCheckers: map[string]middleware.HealthChecker{
			"database": middleware.CheckFunc(func(context.Context) error { return nil }),
		},
	}))
	t.Cleanup(srv.Close)
	return srv, svc
}

func newSqliteRepo(t *testing.T) *sqlite.HistoryRepository {
	t.Helper()
	conn, err := sqlite.Connect(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return sqlite.NewHistoryRepository(conn)
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func imageBody(prefix bool) string {
	b64 := base64.StdEncoding.EncodeToString([]byte("\xff\xd8\xff\xe0 fake jpeg"))
	if prefix {
		b64 = "data:image/jpeg;base64," + b64
	}
	return `{"image":"` + b64 + `"}`
}

const modelJSON = `{"color":"Light brown","consistency":"Soft","shape":"Type 5 (soft blobs)","health_score":7,"concerns":["Low fiber"],"recommendations":["Eat more vegetables"]}`

func TestAnalyzeReturnsModelRecord(t *testing.T) {
	for name, reply := range map[string]string{
		"plain":  modelJSON,
		"fenced": "```json\n" + modelJSON + "\n```",
	} {
		t.Run(name, func(t *testing.T) {
			repo := newSqliteRepo(t)
			srv, _ := newTestServer(t, &MockModel{Reply: reply}, repo)

			resp, body := postJSON(t, srv.URL+"/api/analyze", imageBody(true))
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var got domain.Record
			require.NoError(t, json.Unmarshal(body["analysis"], &got))
			assert.Equal(t, domain.Record{
				Color:           "Light brown",
				Consistency:     "Soft",
				Shape:           "Type 5 (soft blobs)",
				HealthScore:     7,
				Concerns:        []string{"Low fiber"},
				Recommendations: []string{"Eat more vegetables"},
			}, got)

			stored, err := repo.List(context.Background(), domain.HistoryFilter{})
			require.NoError(t, err)
			require.Len(t, stored, 1)
			assert.Equal(t, got, stored[0].Analysis)
			assert.Equal(t, now, stored[0].Date)
		})
	}
}

func TestAnalyzeModelFailureReturnsFallback(t *testing.T) {
	srv, _ := newTestServer(t, &MockModel{Err: errors.New("401 unauthorized")}, db.Offline{})

	resp, body := postJSON(t, srv.URL+"/api/analyze", imageBody(false))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{
		"color": "Brown (Normal)",
		"consistency": "Soft and smooth",
		"shape": "Type 4 (Sausage or Snake)",
		"health_score": 9,
		"concerns": ["None detected"],
		"recommendations": ["Continue healthy diet", "Maintain hydration"]
	}`, string(body["analysis"]))
}

func TestAnalyzeModelFailureUnmasked(t *testing.T) {
	srv, svc := newTestServer(t, &MockModel{Err: domain.ErrQuotaExceeded}, db.Offline{})
	svc.MaskModelErrors = false

	resp, body := postJSON(t, srv.URL+"/api/analyze", imageBody(true))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "error")

	svc.Model = &MockModel{Err: errors.New("dial tcp: timeout")}
	resp, _ = postJSON(t, srv.URL+"/api/analyze", imageBody(true))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestAnalyzeMissingImage(t *testing.T) {
	srv, _ := newTestServer(t, &MockModel{Reply: modelJSON}, db.Offline{})

	for _, body := range []string{`{}`, `{"image":""}`, `{"other":"x"}`} {
		resp, out := postJSON(t, srv.URL+"/api/analyze", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `"Image data is required"`, string(out["error"]))
	}
}

func TestAnalyzeInvalidBase64(t *testing.T) {
	repo := newSqliteRepo(t)
	srv, svc := newTestServer(t, &MockModel{Reply: modelJSON}, repo)

	resp, out := postJSON(t, srv.URL+"/api/analyze", `{"image":"data:image/png;base64,%%%"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got domain.Record
	require.NoError(t, json.Unmarshal(out["analysis"], &got))
	assert.Equal(t, domain.FallbackRecord(), got)

	stored, err := repo.List(context.Background(), domain.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.FallbackRecord(), stored[0].Analysis)

	svc.MaskModelErrors = false
	resp, out = postJSON(t, srv.URL+"/api/analyze", `{"image":"data:image/png;base64,%%%"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out, "error")
}

func TestAnalyzeMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, &MockModel{Reply: modelJSON}, db.Offline{})

	resp, out := postJSON(t, srv.URL+"/api/analyze", `{"image":`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `"Internal Server Error"`, string(out["error"]))
}

func TestAnalyzeBodyTooLarge(t *testing.T) {
	svc := &appanalysis.Service{Model: &MockModel{Reply: modelJSON}, Repo: db.Offline{}, MaskModelErrors: true}
	srv := httptest.NewServer(NewRouter(svc, Options{MaxBodyBytes: 16}))
	defer srv.Close()

	resp, _ := postJSON(t, srv.URL+"/api/analyze", imageBody(true))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func seed(t *testing.T, repo domain.Repository, id string, date time.Time, score float64) {
	t.Helper()
	rec := domain.FallbackRecord()
	rec.HealthScore = score
	require.NoError(t, repo.Save(context.Background(), &domain.HistoryEntry{ID: domain.EntryID(id), Date: date, Analysis: rec}))
}

func entryIDs(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var entries []domain.HistoryEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, string(e.ID))
	}
	return ids
}

func TestHistoryFiltersInclusiveNewestFirst(t *testing.T) {
	repo := newSqliteRepo(t)
	seed(t, repo, "jun-30", time.Date(2024, 6, 30, 23, 0, 0, 0, time.UTC), 5)
	seed(t, repo, "jul-01", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 6)
	seed(t, repo, "jul-05", time.Date(2024, 7, 5, 9, 0, 0, 0, time.UTC), 7)
	seed(t, repo, "jul-10", time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), 8)
	seed(t, repo, "jul-10-pm", time.Date(2024, 7, 10, 14, 0, 0, 0, time.UTC), 9)
	srv, _ := newTestServer(t, &MockModel{}, repo)

	url := srv.URL + "/api/history?start_date=2024-07-01&end_date=2024-07-10"
	resp, body := getJSON(t, url)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"jul-10", "jul-05", "jul-01"}, entryIDs(t, body["entries"]))

	_, again := getJSON(t, url)
	assert.Equal(t, string(body["entries"]), string(again["entries"]))

	_, all := getJSON(t, srv.URL+"/api/history")
	assert.Equal(t, []string{"jul-10-pm", "jul-10", "jul-05", "jul-01", "jun-30"}, entryIDs(t, all["entries"]))
}

func TestHistoryEmptyStore(t *testing.T) {
	srv, _ := newTestServer(t, &MockModel{}, newSqliteRepo(t))

	resp, body := getJSON(t, srv.URL+"/api/history")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body["entries"]))
}

func TestHistoryStoreDownReturnsMock(t *testing.T) {
	srv, _ := newTestServer(t, &MockModel{}, db.Offline{Err: errors.New("connection refused")})

	for _, q := range []string{"", "?start_date=2020-01-01", "?start_date=2024-01-01&end_date=2024-01-02", "?end_date=garbage"} {
		resp, body := getJSON(t, srv.URL+"/api/history"+q)
		assert.Equal(t, http.StatusOK, resp.StatusCode, q)
		assert.Equal(t, []string{"mock-1", "mock-2"}, entryIDs(t, body["entries"]), q)
	}
}

func TestHistoryUnmasked(t *testing.T) {
	srv, svc := newTestServer(t, &MockModel{}, db.Offline{})
	svc.MaskStoreErrors = false

	resp, body := getJSON(t, srv.URL+"/api/history")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "error")

	resp, _ = getJSON(t, srv.URL+"/api/history?start_date=tomorrow")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &MockModel{}, db.Offline{})

	resp, body := getJSON(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"healthy"`, string(body["status"]))
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, &MockModel{}, db.Offline{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/analyze", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func multipartImage(t *testing.T, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if withFile {
		fw, err := mw.CreateFormFile("image", "sample.jpg")
		require.NoError(t, err)
		_, err = fw.Write([]byte("\xff\xd8\xff\xe0 fake jpeg"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var b bytes.Buffer
	_, err := b.ReadFrom(resp.Body)
	require.NoError(t, err)
	return b.String()
}

func TestPages(t *testing.T) {
	repo := newSqliteRepo(t)
	srv, _ := newTestServer(t, &MockModel{Err: errors.New("offline")}, repo)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readAll(t, resp), `enctype="multipart/form-data"`)

	body, ct := multipartImage(t, true)
	resp, err = http.Post(srv.URL+"/analyze", ct, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	html := readAll(t, resp)
	assert.Contains(t, html, "Brown (Normal)")
	assert.Contains(t, html, "Maintain hydration")

	body, ct = multipartImage(t, false)
	resp, err = http.Post(srv.URL+"/analyze", ct, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readAll(t, resp), "Image data is required")

	resp, err = http.Get(srv.URL + "/history")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	html = readAll(t, resp)
	assert.Contains(t, html, "July 15, 2024 12:00 PM")
	assert.Contains(t, html, "Type 4 (Sausage or Snake)")
}

func TestHistoryPageEmpty(t *testing.T) {
	srv, _ := newTestServer(t, &MockModel{}, newSqliteRepo(t))

	resp, err := http.Get(srv.URL + "/history?start_date=2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	html := readAll(t, resp)
	assert.Contains(t, html, "No analysis history found.")
	assert.Contains(t, html, `value="2024-01-01"`)
}
