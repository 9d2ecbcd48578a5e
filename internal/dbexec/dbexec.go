// Package dbexec defines the contracts for talking to the user-connected
// target database. The pipeline and the connection manager compose their
// dependency interfaces from these; internal/dbexec/postgres implements
// them all.
package dbexec

import "context"

// Runner executes a statement against the target database and returns the
// raw textual result payload: a bracket literal for row-returning
// statements, an affected-row message otherwise.
type Runner interface {
	Run(ctx context.Context, sql string) (string, error)
}

// SchemaDescriber renders the target's schema as text for the generation
// prompt.
type SchemaDescriber interface {
	DescribeSchema(ctx context.Context) (string, error)
}

// MetadataQuerier resolves result column names by executing the statement
// and reading the result descriptor. Exact for computed and aliased columns.
type MetadataQuerier interface {
	QueryColumns(ctx context.Context, sql string) ([]string, error)
}

// Inspector looks up a table's column names from catalog metadata.
type Inspector interface {
	ColumnsOf(ctx context.Context, tableName string) ([]string, error)
}
