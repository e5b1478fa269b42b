package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/stockpair/internal/entity"
	"github.com/vadiminshakov/stockpair/internal/services/session"
	"go.uber.org/zap"
)

type fakeResponder struct{ answer string }

func (r fakeResponder) AnswerQuestion(context.Context, []entity.ConversationTurn, string, *entity.Snapshot, *entity.Snapshot) string {
	return r.answer
}

type fakeAnalyzer struct {
	err       error
	snapA     *entity.Snapshot
	snapB     *entity.Snapshot
	narrative string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, sess *session.Session, _, _ string) error {
	if a.err != nil {
		return a.err
	}
	sess.SetPair(a.snapA, a.snapB, a.narrative)
	return nil
}

type fakeNews struct {
	items []entity.NewsItem
	err   error

	lastSymbol string
}

func (n *fakeNews) FetchNews(_ context.Context, symbol string, _, _ int) ([]entity.NewsItem, error) {
	n.lastSymbol = symbol
	return n.items, n.err
}

func snapshotPair() (*entity.Snapshot, *entity.Snapshot) {
	return &entity.Snapshot{
			Symbol:       "NVDA",
			CompanyName:  "NVIDIA Corp",
			Sector:       "Semiconductors",
			Exchange:     "NASDAQ",
			Country:      "US",
			CurrentPrice: entity.Num(180.5),
			MarketCap:    entity.Num(4.4e12),
		}, &entity.Snapshot{
			Symbol:       "MSFT",
			CompanyName:  "Microsoft Corp",
			Sector:       "Software",
			Exchange:     "NASDAQ",
			Country:      "US",
			CurrentPrice: entity.Num(420),
		}
}

type testRig struct {
	server *Server
	mux    *http.ServeMux
	cookie *http.Cookie
}

func newRig(analyzer analyzerService, news newsProvider) *testRig {
	snapA, snapB := snapshotPair()
	if analyzer == nil {
		analyzer = &fakeAnalyzer{snapA: snapA, snapB: snapB, narrative: "the brief"}
	}
	if news == nil {
		news = &fakeNews{}
	}
	srv := NewServer(":0", session.NewManager(fakeResponder{answer: "chat answer"}), analyzer, news, nil, 7, 5, zap.NewNop())
	return &testRig{server: srv, mux: srv.mux()}
}

// do sends one request, carrying the session cookie across calls.
func (r *testRig) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	rec := httptest.NewRecorder()
	r.mux.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			r.cookie = c
		}
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleIndex(t *testing.T) {
	rig := newRig(nil, nil)

	rec := rig.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "stockpair")

	rec = rig.do(t, http.MethodGet, "/nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAnalyzeSuccess(t *testing.T) {
	rig := newRig(nil, nil)

	rec := rig.do(t, http.MethodPost, "/api/analyze", analyzeRequest{SymbolA: "NVDA", SymbolB: "MSFT"})
	require.Equal(t, http.StatusOK, rec.Code)

	state := decode[statePayload](t, rec)
	assert.True(t, state.Loaded)
	assert.Equal(t, "NVDA", state.SymbolA)
	assert.Equal(t, "MSFT", state.SymbolB)
	assert.Equal(t, "the brief", state.Narrative)
	assert.Equal(t, CannedQuestions, state.Questions)
	assert.NotEmpty(t, state.Rows)
	assert.Empty(t, state.Turns, "new pair starts with an empty chat log")
}

func TestHandleAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"unknown symbol", &entity.NotFoundError{Symbol: "XXXX"}, http.StatusNotFound},
		{"provider down", &entity.UpstreamError{Op: "quote", Err: errors.New("timeout")}, http.StatusBadGateway},
		{"generation down", &entity.GenerationError{Err: errors.New("overloaded")}, http.StatusBadGateway},
		{"validation", errors.New("both stock symbols are required"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newRig(&fakeAnalyzer{err: tt.err}, nil)

			rec := rig.do(t, http.MethodPost, "/api/analyze", analyzeRequest{SymbolA: "A", SymbolB: "B"})
			assert.Equal(t, tt.wantCode, rec.Code)

			body := decode[map[string]string](t, rec)
			assert.NotEmpty(t, body["error"], "every failure carries a user-visible message")
		})
	}
}

func TestHandleAnalyzeRejectsGet(t *testing.T) {
	rig := newRig(nil, nil)
	rec := rig.do(t, http.MethodGet, "/api/analyze", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleStateBeforeAnalysis(t *testing.T) {
	rig := newRig(nil, nil)

	rec := rig.do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	state := decode[statePayload](t, rec)
	assert.False(t, state.Loaded)
	assert.Equal(t, CannedQuestions, state.Questions, "quick prompts render before any analysis")
}

func TestHandleNews(t *testing.T) {
	news := &fakeNews{items: []entity.NewsItem{{Headline: "chips up"}}}
	rig := newRig(nil, news)

	t.Run("before analysis", func(t *testing.T) {
		rec := rig.do(t, http.MethodGet, "/api/news?side=a", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rig.do(t, http.MethodPost, "/api/analyze", analyzeRequest{SymbolA: "NVDA", SymbolB: "MSFT"})

	t.Run("side a", func(t *testing.T) {
		rec := rig.do(t, http.MethodGet, "/api/news?side=a", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "NVDA", news.lastSymbol)
		assert.Contains(t, rec.Body.String(), "chips up")
	})

	t.Run("side b", func(t *testing.T) {
		rec := rig.do(t, http.MethodGet, "/api/news?side=b", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "MSFT", news.lastSymbol)
	})
}

func TestHandleChat(t *testing.T) {
	rig := newRig(nil, nil)

	t.Run("before analysis", func(t *testing.T) {
		rec := rig.do(t, http.MethodPost, "/api/chat", chatRequest{Question: "q"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rig.do(t, http.MethodPost, "/api/analyze", analyzeRequest{SymbolA: "NVDA", SymbolB: "MSFT"})

	t.Run("empty question", func(t *testing.T) {
		rec := rig.do(t, http.MethodPost, "/api/chat", chatRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("question appends both turns", func(t *testing.T) {
		rec := rig.do(t, http.MethodPost, "/api/chat", chatRequest{Question: "which is cheaper?"})
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Answer string                    `json:"answer"`
			Turns  []entity.ConversationTurn `json:"turns"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "chat answer", body.Answer)
		require.Len(t, body.Turns, 2)
		assert.Equal(t, entity.RoleUser, body.Turns[0].Role)
		assert.Equal(t, entity.RoleAssistant, body.Turns[1].Role)
	})
}

func TestSessionCookiePersists(t *testing.T) {
	rig := newRig(nil, nil)

	rig.do(t, http.MethodPost, "/api/analyze", analyzeRequest{SymbolA: "NVDA", SymbolB: "MSFT"})
	require.NotNil(t, rig.cookie)

	rec := rig.do(t, http.MethodGet, "/api/state", nil)
	state := decode[statePayload](t, rec)
	assert.True(t, state.Loaded, "second request sees the same session")
}

func TestFundamentalsRows(t *testing.T) {
	a, b := snapshotPair()

	rows := fundamentalsRows(a, b)

	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
	}
	joined := strings.Join(labels, ",")
	for _, want := range []string{"Company", "Sector", "Price", "Market Cap", "P/E Ratio", "Dividend Yield", "52W High"} {
		assert.Contains(t, joined, want)
	}

	for _, r := range rows {
		switch r.Label {
		case "Market Cap":
			assert.Equal(t, "$4,400,000,000,000", r.A)
			assert.Equal(t, entity.NotAvailable, r.B)
		case "Price":
			assert.Equal(t, "$180.50", r.A)
			assert.Equal(t, "$420.00", r.B)
		case "Beta":
			assert.Equal(t, entity.NotAvailable, r.A)
		}
	}
}

func TestAnalysisStreamWithoutStore(t *testing.T) {
	rig := newRig(nil, nil)
	rec := rig.do(t, http.MethodGet, "/analyses/stream", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
