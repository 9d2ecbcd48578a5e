// Package pipeline turns a natural-language question into an executed SQL
// statement and a structured outcome. A run is strictly sequential: generate,
// sanitize, classify, then either build a confirmation preview or resolve
// columns, execute, and normalize the result. Dangerous statements are never
// executed on this path; they come back as a confirmation request and are
// executed only through ConfirmExecute.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/querygenie/querygenie/internal/dbexec"
	"github.com/querygenie/querygenie/internal/nl2sql"
	"github.com/querygenie/querygenie/internal/observability"
	"github.com/querygenie/querygenie/internal/resultset"
	"github.com/querygenie/querygenie/internal/safety"
)

// Target is the connected database a run executes against. The postgres
// adapter satisfies all three roles.
type Target interface {
	dbexec.Runner
	dbexec.MetadataQuerier
	dbexec.Inspector
}

// Reply is the full result of a Translate run: the generated statement, the
// outcome variant, and the two-line textual envelope sent back to the caller.
type Reply struct {
	Statement string
	Outcome   Outcome
	Envelope  string
}

type Pipeline struct {
	translator nl2sql.Translator
	logger     *slog.Logger
}

func New(translator nl2sql.Translator, logger *slog.Logger) *Pipeline {
	return &Pipeline{translator: translator, logger: logger}
}

// Translate runs the full question-to-outcome pipeline against the target.
// Generation, execution, and parse failures are embedded as Error outcomes;
// the caller always receives a renderable reply.
func (p *Pipeline) Translate(ctx context.Context, target Target, schema string, question string, history []nl2sql.Message) Reply {
	result, err := p.translator.Translate(ctx, nl2sql.Request{
		Schema:   schema,
		History:  history,
		Question: question,
	})
	if err != nil {
		observability.ObserveTranslation(true)
		p.logger.Error("sql generation failed", slog.String("error", err.Error()))
		return p.reply("N/A", ErrorOutcome(fmt.Sprintf("failed to generate SQL: %v", err)))
	}
	observability.ObserveTranslation(false)

	statement := safety.Sanitize(result.SQL)
	classification := safety.Classify(statement)

	if classification.Dangerous() {
		observability.IncrementDangerousStatement()
		p.logger.Warn("dangerous statement flagged",
			slog.String("statement", statement),
			slog.Any("reasons", classification.Reasons))
		preview := safety.ExtractPreview(statement)
		return p.reply(statement, ConfirmationOutcome(statement, preview, classification.Reasons))
	}

	return p.reply(statement, p.execute(ctx, target, statement))
}

// ConfirmExecute is the second phase of the confirmation flow. The statement
// is executed exactly as supplied; sanitization and classification are not
// re-applied. A false confirm flag cancels without touching the database.
func (p *Pipeline) ConfirmExecute(ctx context.Context, target Target, statement string, confirm bool) Outcome {
	if !confirm {
		observability.IncrementConfirmCancelled()
		p.logger.Info("confirmation declined", slog.String("statement", statement))
		return StatusOutcome("SQL execution cancelled by user", 0)
	}

	started := time.Now()
	raw, err := target.Run(ctx, statement)
	observability.ObserveStatementExecution(time.Since(started))
	if err != nil {
		p.logger.Error("confirmed statement failed",
			slog.String("statement", statement),
			slog.String("error", err.Error()))
		return ErrorOutcome(fmt.Sprintf("SQL execution failed: %v", err))
	}
	return StatusOutcome(fmt.Sprintf("SQL executed successfully. Result: %s", raw), 0)
}

func (p *Pipeline) execute(ctx context.Context, target Target, statement string) Outcome {
	rowReturning := safety.IsRowReturning(statement)

	var columns resultset.ColumnSet
	if rowReturning {
		columns = p.resolveColumns(ctx, target, statement)
	}

	started := time.Now()
	raw, err := target.Run(ctx, statement)
	observability.ObserveStatementExecution(time.Since(started))
	if err != nil {
		p.logger.Error("statement execution failed",
			slog.String("statement", statement),
			slog.String("error", err.Error()))
		return ErrorOutcome(fmt.Sprintf("SQL execution failed: %v", err))
	}

	if !rowReturning {
		message, affected := resultset.ParseStatus(raw)
		return StatusOutcome(message, affected)
	}

	table, err := resultset.BuildTable(raw, columns, func() ([]string, bool) {
		return p.catalogColumns(ctx, target, statement)
	})
	if err != nil {
		observability.IncrementResultParseFailure()
		p.logger.Error("result payload could not be decoded",
			slog.String("statement", statement),
			slog.String("error", err.Error()))
		return ErrorOutcome(err.Error())
	}
	return SelectOutcome(table)
}

// resolveColumns prefers the result descriptor because it is exact for
// computed and aliased columns; the catalog is consulted only when the
// descriptor yields nothing.
func (p *Pipeline) resolveColumns(ctx context.Context, target Target, statement string) resultset.ColumnSet {
	names, err := target.QueryColumns(ctx, statement)
	if err == nil && len(names) > 0 {
		return resultset.ColumnSet{Names: names, Source: resultset.SourceMetadata}
	}
	if err != nil {
		p.logger.Debug("result metadata unavailable", slog.String("error", err.Error()))
	}

	if names, ok := p.catalogColumns(ctx, target, statement); ok {
		return resultset.ColumnSet{Names: names, Source: resultset.SourceCatalog}
	}
	return resultset.ColumnSet{}
}

func (p *Pipeline) catalogColumns(ctx context.Context, target Target, statement string) ([]string, bool) {
	tableName := safety.ExtractTableName(statement)
	if tableName == "" {
		return nil, false
	}
	names, err := target.ColumnsOf(ctx, tableName)
	if err != nil || len(names) == 0 {
		if err != nil {
			p.logger.Debug("catalog lookup failed",
				slog.String("table", tableName),
				slog.String("error", err.Error()))
		}
		return nil, false
	}
	return names, true
}

func (p *Pipeline) reply(statement string, outcome Outcome) Reply {
	return Reply{
		Statement: statement,
		Outcome:   outcome,
		Envelope:  RenderEnvelope(statement, outcome),
	}
}

// RenderEnvelope formats the two-line textual response: the echoed statement
// and the outcome payload as JSON.
func RenderEnvelope(statement string, outcome Outcome) string {
	payload, err := json.Marshal(outcome)
	if err != nil {
		payload = []byte(`{"type":"error","message":"failed to encode outcome"}`)
	}
	return fmt.Sprintf("SQL: `%s`\nOutput: %s", statement, payload)
}
