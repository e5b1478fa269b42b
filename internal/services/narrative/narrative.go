// Package narrative turns snapshot pairs into prose via the text-generation
// collaborator. The engine is stateless and holds no references to snapshots
// across calls.
package narrative

import (
	"context"
	"fmt"

	"github.com/vadiminshakov/stockpair/internal/clients"
	"github.com/vadiminshakov/stockpair/internal/entity"
	"github.com/vadiminshakov/stockpair/internal/services/promptbuilder"
	"go.uber.org/zap"
)

// Engine builds structured prompts and delegates generation to the LLM.
type Engine struct {
	generator clients.Generator
	builder   *promptbuilder.PromptBuilder
	logger    *zap.Logger
}

// NewEngine creates a narrative engine.
func NewEngine(generator clients.Generator, builder *promptbuilder.PromptBuilder, logger *zap.Logger) *Engine {
	return &Engine{
		generator: generator,
		builder:   builder,
		logger:    logger,
	}
}

// Compare renders the fixed-structure comparison brief for both snapshots and
// returns the generated prose verbatim. Collaborator failures come back as
// GenerationError for the boundary to convert into a user-visible message.
func (e *Engine) Compare(ctx context.Context, a, b *entity.Snapshot) (string, error) {
	prompt := e.builder.BuildComparison(a, b)

	text, err := e.generator.Complete(ctx, promptbuilder.SystemPrompt, prompt)
	if err != nil {
		return "", &entity.GenerationError{Err: err}
	}
	return text, nil
}

// AnswerQuestion answers a free-form chat question with both snapshots and
// the prior conversation as context. It fails soft: any collaborator failure
// is logged and converted into a user-visible error string, never propagated.
func (e *Engine) AnswerQuestion(ctx context.Context, history []entity.ConversationTurn, question string, a, b *entity.Snapshot) string {
	prompt := e.builder.BuildQuestion(history, question, a, b)

	text, err := e.generator.Complete(ctx, promptbuilder.SystemPrompt, prompt)
	if err != nil {
		e.logger.Warn("chat answer generation failed",
			zap.String("symbol_a", a.Symbol),
			zap.String("symbol_b", b.Symbol),
			zap.Error(err))
		return fmt.Sprintf("Sorry, I could not generate an answer: %v", err)
	}
	return text
}
