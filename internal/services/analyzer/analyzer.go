// Package analyzer runs the analyze pipeline: fetch both snapshots
// sequentially, install them into the session, generate the comparison brief
// and record the run. One user action maps to one pipeline run.
package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/stockpair/internal/entity"
	"github.com/vadiminshakov/stockpair/internal/services/session"
	"go.uber.org/zap"
)

const defaultSymbolDelay = time.Second

type snapshotFetcher interface {
	FetchSnapshot(ctx context.Context, symbol string) (*entity.Snapshot, error)
}

type comparer interface {
	Compare(ctx context.Context, a, b *entity.Snapshot) (string, error)
}

type analysisWriter interface {
	Save(event entity.AnalysisEvent) error
}

// Analyzer orchestrates one comparison run.
type Analyzer struct {
	market      snapshotFetcher
	engine      comparer
	store       analysisWriter
	logger      *zap.Logger
	symbolDelay time.Duration
	model       string
}

// New creates an analyzer. store may be nil when no activity feed is wired.
func New(market snapshotFetcher, engine comparer, store analysisWriter, model string, symbolDelay time.Duration, logger *zap.Logger) *Analyzer {
	if symbolDelay <= 0 {
		symbolDelay = defaultSymbolDelay
	}
	return &Analyzer{
		market:      market,
		engine:      engine,
		store:       store,
		logger:      logger,
		symbolDelay: symbolDelay,
		model:       model,
	}
}

// Analyze fetches both symbols sequentially with the rate-limit delay between
// them and installs the result into sess, which resets the chat log. On any
// fetch error the session keeps its previous pair untouched. A failed
// narrative generation does not fail the run; the error message becomes the
// narrative text.
func (a *Analyzer) Analyze(ctx context.Context, sess *session.Session, symbolA, symbolB string) error {
	symbolA = strings.ToUpper(strings.TrimSpace(symbolA))
	symbolB = strings.ToUpper(strings.TrimSpace(symbolB))
	if symbolA == "" || symbolB == "" {
		return errors.New("both stock symbols are required")
	}

	snapA, err := a.market.FetchSnapshot(ctx, symbolA)
	if err != nil {
		return err
	}

	// stay under the provider rate limit between the two symbol fetches
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.symbolDelay):
	}

	snapB, err := a.market.FetchSnapshot(ctx, symbolB)
	if err != nil {
		return err
	}

	narrative, err := a.engine.Compare(ctx, snapA, snapB)
	if err != nil {
		a.logger.Warn("comparison narrative generation failed",
			zap.String("symbol_a", symbolA),
			zap.String("symbol_b", symbolB),
			zap.Error(err))
		narrative = "Analysis error: " + err.Error()
	}

	sess.SetPair(snapA, snapB, narrative)

	if a.store != nil {
		event := entity.AnalysisEvent{
			SymbolA:   symbolA,
			SymbolB:   symbolB,
			Narrative: narrative,
			Model:     a.model,
			Timestamp: time.Now(),
		}
		if err := a.store.Save(event); err != nil {
			a.logger.Warn("failed to record analysis event", zap.Error(err))
		}
	}

	a.logger.Info("analysis completed",
		zap.String("symbol_a", symbolA),
		zap.String("symbol_b", symbolB),
		zap.Int("history_a", len(snapA.PriceHistory)),
		zap.Int("history_b", len(snapB.PriceHistory)))

	return nil
}
