package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/querygenie/querygenie/internal/nl2sql"
	"github.com/querygenie/querygenie/internal/resultset"
)

type fakeTranslator struct {
	sql string
	err error
}

func (f *fakeTranslator) Translate(_ context.Context, _ nl2sql.Request) (nl2sql.Result, error) {
	if f.err != nil {
		return nl2sql.Result{}, f.err
	}
	return nl2sql.Result{SQL: f.sql, Provider: "openai", Model: "gpt-5"}, nil
}

type fakeTarget struct {
	runResult    string
	runErr       error
	runCalls     []string
	metaColumns  []string
	metaErr      error
	tableColumns map[string][]string
}

func (f *fakeTarget) Run(_ context.Context, sql string) (string, error) {
	f.runCalls = append(f.runCalls, sql)
	return f.runResult, f.runErr
}

func (f *fakeTarget) QueryColumns(_ context.Context, _ string) ([]string, error) {
	return f.metaColumns, f.metaErr
}

func (f *fakeTarget) ColumnsOf(_ context.Context, tableName string) ([]string, error) {
	columns, ok := f.tableColumns[tableName]
	if !ok {
		return nil, fmt.Errorf("table %q not found", tableName)
	}
	return columns, nil
}

func newTestPipeline(translator nl2sql.Translator) *Pipeline {
	return New(translator, slog.New(slog.DiscardHandler))
}

func TestTranslateSafeSelect(t *testing.T) {
	target := &fakeTarget{
		runResult:   "[(1, 'alice'), (2, 'bob')]",
		metaColumns: []string{"id", "name"},
	}
	p := newTestPipeline(&fakeTranslator{sql: "SELECT id, name FROM users"})

	reply := p.Translate(context.Background(), target, "Table users:\n  id integer\n", "list users", nil)

	if reply.Statement != "SELECT id, name FROM users" {
		t.Fatalf("Statement = %q", reply.Statement)
	}
	if reply.Outcome.Type != OutcomeSelect {
		t.Fatalf("Outcome.Type = %q", reply.Outcome.Type)
	}
	if reply.Outcome.RowCount != 2 {
		t.Fatalf("RowCount = %d", reply.Outcome.RowCount)
	}
	if got := reply.Outcome.Data[0]; got[0] != "1" || got[1] != "alice" {
		t.Fatalf("first row = %v", got)
	}
	if len(reply.Outcome.Columns) != 2 || reply.Outcome.Columns[0] != "id" {
		t.Fatalf("Columns = %v", reply.Outcome.Columns)
	}
	if !strings.HasPrefix(reply.Envelope, "SQL: `SELECT id, name FROM users`\nOutput: ") {
		t.Fatalf("Envelope = %q", reply.Envelope)
	}
}

func TestTranslateDangerousStatementIsNotExecuted(t *testing.T) {
	target := &fakeTarget{runResult: "1 row affected"}
	p := newTestPipeline(&fakeTranslator{sql: "DELETE FROM users WHERE id = 5"})

	reply := p.Translate(context.Background(), target, "", "remove user 5", nil)

	if reply.Outcome.Type != OutcomeConfirmationRequired {
		t.Fatalf("Outcome.Type = %q", reply.Outcome.Type)
	}
	if len(target.runCalls) != 0 {
		t.Fatalf("dangerous statement was executed: %v", target.runCalls)
	}
	if reply.Outcome.SQL != "DELETE FROM users WHERE id = 5" {
		t.Fatalf("Outcome.SQL = %q", reply.Outcome.SQL)
	}
	row := reply.Outcome.Table.Data[0]
	if row[0] != "DELETE" || row[1] != "USERS" || row[2] != "id = 5" {
		t.Fatalf("preview row = %v", row)
	}
	if len(reply.Outcome.Warnings) == 0 || reply.Outcome.Warnings[0] != "DELETE" {
		t.Fatalf("Warnings = %v", reply.Outcome.Warnings)
	}
}

func TestTranslateSanitizesBeforeClassifying(t *testing.T) {
	target := &fakeTarget{
		runResult:   "[(1,)]",
		metaColumns: []string{"id"},
	}
	p := newTestPipeline(&fakeTranslator{sql: "SELECT id FROM users -- trailing note"})

	reply := p.Translate(context.Background(), target, "", "ids", nil)

	if reply.Statement != "SELECT id FROM users" {
		t.Fatalf("Statement = %q", reply.Statement)
	}
	if reply.Outcome.Type != OutcomeSelect {
		t.Fatalf("Outcome.Type = %q", reply.Outcome.Type)
	}
}

func TestTranslateGenerationFailure(t *testing.T) {
	target := &fakeTarget{}
	p := newTestPipeline(&fakeTranslator{err: errors.New("model unavailable")})

	reply := p.Translate(context.Background(), target, "", "anything", nil)

	if reply.Statement != "N/A" {
		t.Fatalf("Statement = %q", reply.Statement)
	}
	if reply.Outcome.Type != OutcomeError {
		t.Fatalf("Outcome.Type = %q", reply.Outcome.Type)
	}
	if !strings.Contains(reply.Outcome.Message, "model unavailable") {
		t.Fatalf("Message = %q", reply.Outcome.Message)
	}
	if len(target.runCalls) != 0 {
		t.Fatal("target should not be touched when generation fails")
	}
}

func TestTranslateExecutionFailureBecomesErrorOutcome(t *testing.T) {
	target := &fakeTarget{
		runErr:      errors.New("relation \"missing\" does not exist"),
		metaErr:     errors.New("relation \"missing\" does not exist"),
		metaColumns: nil,
	}
	p := newTestPipeline(&fakeTranslator{sql: "SELECT * FROM missing"})

	reply := p.Translate(context.Background(), target, "", "q", nil)

	if reply.Outcome.Type != OutcomeError {
		t.Fatalf("Outcome.Type = %q", reply.Outcome.Type)
	}
	if !strings.Contains(reply.Outcome.Message, "does not exist") {
		t.Fatalf("Message = %q", reply.Outcome.Message)
	}
}

func TestTranslateUnparseablePayloadBecomesErrorOutcome(t *testing.T) {
	target := &fakeTarget{
		runResult:   "not-a-list",
		metaColumns: []string{"id"},
	}
	p := newTestPipeline(&fakeTranslator{sql: "SELECT id FROM users"})

	reply := p.Translate(context.Background(), target, "", "q", nil)

	if reply.Outcome.Type != OutcomeError {
		t.Fatalf("Outcome.Type = %q", reply.Outcome.Type)
	}
	if !strings.Contains(reply.Outcome.Message, "unexpected result format") {
		t.Fatalf("Message = %q", reply.Outcome.Message)
	}
}

func TestTranslateFallsBackToCatalogColumns(t *testing.T) {
	target := &fakeTarget{
		runResult:    "[(1, 'a'), (2, 'b')]",
		metaErr:      errors.New("descriptor unavailable"),
		tableColumns: map[string][]string{"users": {"id", "email"}},
	}
	p := newTestPipeline(&fakeTranslator{sql: "SELECT * FROM users"})

	reply := p.Translate(context.Background(), target, "", "q", nil)

	if reply.Outcome.Type != OutcomeSelect {
		t.Fatalf("Outcome.Type = %q", reply.Outcome.Type)
	}
	if len(reply.Outcome.Columns) != 2 || reply.Outcome.Columns[1] != "email" {
		t.Fatalf("Columns = %v", reply.Outcome.Columns)
	}
}

func TestTranslateSynthesizesColumnsWhenNothingResolves(t *testing.T) {
	target := &fakeTarget{
		runResult: "[(1, 'a')]",
		metaErr:   errors.New("descriptor unavailable"),
	}
	p := newTestPipeline(&fakeTranslator{sql: "SELECT * FROM users"})

	reply := p.Translate(context.Background(), target, "", "q", nil)

	if reply.Outcome.Type != OutcomeSelect {
		t.Fatalf("Outcome.Type = %q", reply.Outcome.Type)
	}
	want := []string{"column_0", "column_1"}
	for i, name := range want {
		if reply.Outcome.Columns[i] != name {
			t.Fatalf("Columns = %v, want %v", reply.Outcome.Columns, want)
		}
	}
}

func TestTranslateStatusForNonRowReturning(t *testing.T) {
	target := &fakeTarget{runResult: "3 rows affected"}
	p := newTestPipeline(&fakeTranslator{sql: "INSERT INTO users (name) VALUES ('x'), ('y'), ('z')"})

	reply := p.Translate(context.Background(), target, "", "add three", nil)

	if reply.Outcome.Type != OutcomeStatus {
		t.Fatalf("Outcome.Type = %q", reply.Outcome.Type)
	}
	if reply.Outcome.AffectedRows != 3 {
		t.Fatalf("AffectedRows = %d", reply.Outcome.AffectedRows)
	}
	if reply.Outcome.Message != "Statement executed successfully. 3 rows affected." {
		t.Fatalf("Message = %q", reply.Outcome.Message)
	}
}

func TestConfirmExecuteDeclined(t *testing.T) {
	target := &fakeTarget{}
	p := newTestPipeline(&fakeTranslator{})

	outcome := p.ConfirmExecute(context.Background(), target, "DELETE FROM users", false)

	if outcome.Type != OutcomeStatus {
		t.Fatalf("Type = %q", outcome.Type)
	}
	if outcome.Message != "SQL execution cancelled by user" {
		t.Fatalf("Message = %q", outcome.Message)
	}
	if len(target.runCalls) != 0 {
		t.Fatal("declined confirmation must not execute")
	}
}

func TestConfirmExecuteRunsStatementVerbatim(t *testing.T) {
	target := &fakeTarget{runResult: "1 row affected"}
	p := newTestPipeline(&fakeTranslator{})

	outcome := p.ConfirmExecute(context.Background(), target, "DELETE FROM users WHERE id = 5", true)

	if outcome.Type != OutcomeStatus {
		t.Fatalf("Type = %q", outcome.Type)
	}
	if !strings.Contains(outcome.Message, "Result: 1 row affected") {
		t.Fatalf("Message = %q", outcome.Message)
	}
	if len(target.runCalls) != 1 || target.runCalls[0] != "DELETE FROM users WHERE id = 5" {
		t.Fatalf("runCalls = %v", target.runCalls)
	}
}

func TestConfirmExecuteFailure(t *testing.T) {
	target := &fakeTarget{runErr: errors.New("permission denied")}
	p := newTestPipeline(&fakeTranslator{})

	outcome := p.ConfirmExecute(context.Background(), target, "DROP TABLE users", true)

	if outcome.Type != OutcomeError {
		t.Fatalf("Type = %q", outcome.Type)
	}
	if !strings.Contains(outcome.Message, "permission denied") {
		t.Fatalf("Message = %q", outcome.Message)
	}
}

func selectTable() resultset.Table {
	return resultset.Table{
		Columns:  []string{"id", "name"},
		Source:   resultset.SourceMetadata,
		Rows:     [][]string{{"1", "alice"}},
		RowCount: 1,
	}
}

func TestOutcomeJSONShapes(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{
			"select",
			SelectOutcome(selectTable()),
			`{"type":"select","data":[["1","alice"]],"columns":["id","name"],"row_count":1}`,
		},
		{
			"status",
			StatusOutcome("Statement executed successfully. 1 row affected.", 1),
			`{"type":"status","message":"Statement executed successfully. 1 row affected.","affected_rows":1}`,
		},
		{
			"error",
			ErrorOutcome("boom"),
			`{"type":"error","message":"boom"}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.outcome)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("Marshal() = %s, want %s", got, tc.want)
			}
		})
	}
}
