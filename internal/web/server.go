// Package web serves the browser dashboard: an embedded HTML page, a JSON API
// for the five views (narrative, charts, fundamentals, news, chat) and an SSE
// feed of completed analyses.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vadiminshakov/stockpair/internal/entity"
	"github.com/vadiminshakov/stockpair/internal/services/chart"
	"github.com/vadiminshakov/stockpair/internal/services/promptbuilder"
	"github.com/vadiminshakov/stockpair/internal/services/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

const (
	sessionCookie      = "stockpair_session"
	streamPollInterval = 3 * time.Second
)

// CannedQuestions is the sidebar list of one-click analysis prompts.
var CannedQuestions = []string{
	"Compare growth potential",
	"Which has better valuation?",
	"Analyze risk factors",
	"Compare dividend policies",
	"Technical analysis outlook",
}

type analyzerService interface {
	Analyze(ctx context.Context, sess *session.Session, symbolA, symbolB string) error
}

type newsProvider interface {
	FetchNews(ctx context.Context, symbol string, windowDays, limit int) ([]entity.NewsItem, error)
}

type analysisReader interface {
	EventsAfter(index uint64) ([]entity.AnalysisEventRecord, error)
}

// Server exposes the dashboard over HTTP.
type Server struct {
	Addr           string
	Sessions       *session.Manager
	Analyzer       analyzerService
	News           newsProvider
	Store          analysisReader
	NewsWindowDays int
	NewsLimit      int
	Logger         *zap.Logger
}

// NewServer creates a dashboard server. store may be nil when no activity
// feed is wired.
func NewServer(addr string, sessions *session.Manager, analyzer analyzerService, news newsProvider, store analysisReader, newsWindowDays, newsLimit int, logger *zap.Logger) *Server {
	return &Server{
		Addr:           addr,
		Sessions:       sessions,
		Analyzer:       analyzer,
		News:           news,
		Store:          store,
		NewsWindowDays: newsWindowDays,
		NewsLimit:      newsLimit,
		Logger:         logger,
	}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/news", s.handleNews)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/analyses/stream", s.handleAnalysisStream)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via
// ACME, plus an HTTP server on port 80 for the HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		_ = httpsSrv.Shutdown(shutdownCtx)
	}()

	errCh := make(chan error, 2)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// sessionFor resolves the browser session from the cookie, creating one (and
// setting the cookie) when absent.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		id = cookie.Value
	}
	sess := s.Sessions.GetOrCreate(id)
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

type analyzeRequest struct {
	SymbolA string `json:"symbol_a"`
	SymbolB string `json:"symbol_b"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.sessionFor(w, r)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeUserError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.Analyzer.Analyze(r.Context(), sess, req.SymbolA, req.SymbolB); err != nil {
		s.writeErr(w, err)
		return
	}

	s.writeJSON(w, s.statePayload(sess))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	s.writeJSON(w, s.statePayload(sess))
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	symbolA, symbolB := sess.Symbols()

	symbol := symbolA
	if r.URL.Query().Get("side") == "b" {
		symbol = symbolB
	}
	if symbol == "" {
		s.writeUserError(w, http.StatusBadRequest, "no stocks have been analyzed yet")
		return
	}

	items, err := s.News.FetchNews(r.Context(), symbol, s.NewsWindowDays, s.NewsLimit)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"symbol": symbol, "items": items})
}

type chatRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess := s.sessionFor(w, r)
	if !sess.Loaded() {
		s.writeUserError(w, http.StatusBadRequest, "analyze two stocks before asking questions")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		s.writeUserError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer := sess.AppendAndRespond(r.Context(), req.Question)
	s.writeJSON(w, map[string]any{"answer": answer, "turns": sess.Turns()})
}

// handleAnalysisStream streams completed analysis events over SSE.
func (s *Server) handleAnalysisStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "analysis store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat every 30s so proxies keep the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(streamPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendEvents := func() error {
		records, err := s.Store.EventsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Event)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: analysis\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendEvents(); err != nil {
		http.Error(w, "failed to load analyses", http.StatusInternalServerError)
		s.Logger.Error("analysis stream initial load", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendEvents(); err != nil {
				s.Logger.Warn("analysis stream poll", zap.Error(err))
			}
		}
	}
}

type fundamentalsRow struct {
	Label string `json:"label"`
	A     string `json:"a"`
	B     string `json:"b"`
}

type statePayload struct {
	Loaded    bool                      `json:"loaded"`
	SymbolA   string                    `json:"symbol_a"`
	SymbolB   string                    `json:"symbol_b"`
	Narrative string                    `json:"narrative"`
	ChartA    entity.ChartSeries        `json:"chart_a"`
	ChartB    entity.ChartSeries        `json:"chart_b"`
	Rows      []fundamentalsRow         `json:"fundamentals"`
	Turns     []entity.ConversationTurn `json:"turns"`
	Questions []string                  `json:"questions"`
}

func (s *Server) statePayload(sess *session.Session) statePayload {
	payload := statePayload{Questions: CannedQuestions, Turns: sess.Turns()}
	if !sess.Loaded() {
		return payload
	}

	a, b := sess.Pair()
	payload.Loaded = true
	payload.SymbolA, payload.SymbolB = a.Symbol, b.Symbol
	payload.Narrative = sess.Narrative()
	payload.ChartA = chart.ForSnapshot(a)
	payload.ChartB = chart.ForSnapshot(b)
	payload.Rows = fundamentalsRows(a, b)
	return payload
}

func fundamentalsRows(a, b *entity.Snapshot) []fundamentalsRow {
	row := func(label string, format func(entity.Metric) string, ma, mb entity.Metric) fundamentalsRow {
		return fundamentalsRow{Label: label, A: format(ma), B: format(mb)}
	}
	rows := []fundamentalsRow{
		{Label: "Company", A: a.CompanyName, B: b.CompanyName},
		{Label: "Sector", A: a.Sector, B: b.Sector},
		{Label: "Exchange", A: a.Exchange, B: b.Exchange},
		{Label: "Country", A: a.Country, B: b.Country},
		row("Price", promptbuilder.FormatPrice, a.CurrentPrice, b.CurrentPrice),
		row("Market Cap", promptbuilder.FormatCurrency, a.MarketCap, b.MarketCap),
		row("P/E Ratio", promptbuilder.FormatRatio, a.TrailingPE, b.TrailingPE),
		row("Forward P/E", promptbuilder.FormatRatio, a.ForwardPE, b.ForwardPE),
		row("Beta", promptbuilder.FormatRatio, a.Beta, b.Beta),
		row("Dividend Yield", promptbuilder.FormatYield, a.DividendYield, b.DividendYield),
		row("52W High", promptbuilder.FormatPrice, a.FiftyTwoWeekHigh, b.FiftyTwoWeekHigh),
		row("52W Low", promptbuilder.FormatPrice, a.FiftyTwoWeekLow, b.FiftyTwoWeekLow),
	}
	return rows
}

// writeErr maps domain errors to user-visible JSON messages. Nothing from the
// error taxonomy reaches the browser as an unhandled fault.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	var notFound *entity.NotFoundError
	var upstream *entity.UpstreamError
	var generation *entity.GenerationError

	switch {
	case errors.As(err, &notFound):
		s.writeUserError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &upstream):
		s.Logger.Warn("upstream failure", zap.Error(err))
		s.writeUserError(w, http.StatusBadGateway, "market data provider is unavailable, try again later")
	case errors.As(err, &generation):
		s.Logger.Warn("generation failure", zap.Error(err))
		s.writeUserError(w, http.StatusBadGateway, "analysis service is unavailable, try again later")
	case errors.Is(err, context.Canceled):
		// client went away, nothing to write
	default:
		s.Logger.Error("request failed", zap.Error(err))
		s.writeUserError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) writeUserError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("encode response", zap.Error(err))
	}
}
