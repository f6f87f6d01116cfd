package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aeo-labs/aeo-search/internal/search"
)

type fakeOrchestrator struct {
	resp  *search.Response
	err   error
	query string
	calls int
}

func (f *fakeOrchestrator) Handle(_ context.Context, query string) (*search.Response, error) {
	f.calls++
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func doSearch(t *testing.T, orch SearchOrchestrator, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewSearchHandler(orch, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Search(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSearchSuccess(t *testing.T) {
	orch := &fakeOrchestrator{resp: &search.Response{
		Answer: "an answer",
		Citations: []search.Citation{
			{Title: "T", URL: "https://example.com", Description: "d"},
		},
	}}

	w := doSearch(t, orch, `{"query":"best running shoes"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "best running shoes", orch.query)

	body := decodeBody(t, w)
	assert.Equal(t, "an answer", body["answer"])
	citations := body["citations"].([]interface{})
	require.Len(t, citations, 1)
	assert.Equal(t, "https://example.com", citations[0].(map[string]interface{})["url"])
}

func TestSearchEmptyCitationsSerializeAsArray(t *testing.T) {
	orch := &fakeOrchestrator{resp: &search.Response{
		Answer:    search.AnswerNoResults,
		Citations: []search.Citation{},
	}}

	w := doSearch(t, orch, `{"query":"xyzzy_no_such_thing_42"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"citations":[]`)
}

func TestSearchBlankQuery(t *testing.T) {
	orch := &fakeOrchestrator{err: search.ErrEmptyQuery}

	w := doSearch(t, orch, `{"query":"   "}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Query is required.", decodeBody(t, w)["error"])
}

func TestSearchUndecodableBody(t *testing.T) {
	orch := &fakeOrchestrator{}

	w := doSearch(t, orch, `{not json`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, orch.calls)
}

func TestSearchMissingCredential(t *testing.T) {
	orch := &fakeOrchestrator{err: search.ErrMissingCredential}

	w := doSearch(t, orch, `{"query":"q"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server configuration error: Missing API key.", decodeBody(t, w)["error"])
}

func TestSearchUpstreamStatusPassthrough(t *testing.T) {
	orch := &fakeOrchestrator{err: &search.UpstreamError{
		StatusCode: http.StatusTooManyRequests,
		Body:       "rate limited by upstream",
	}}

	w := doSearch(t, orch, `{"query":"q"}`)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Failed to fetch data from the search API.", body["error"])
	assert.Equal(t, "rate limited by upstream", body["details"])
}

func TestSearchUpstreamTransportErrorMapsToBadGateway(t *testing.T) {
	orch := &fakeOrchestrator{err: &search.UpstreamError{Body: "connection refused"}}

	w := doSearch(t, orch, `{"query":"q"}`)

	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSearchUnexpectedError(t *testing.T) {
	orch := &fakeOrchestrator{err: errors.New("boom")}

	w := doSearch(t, orch, `{"query":"q"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected server error occurred.", decodeBody(t, w)["error"])
}
