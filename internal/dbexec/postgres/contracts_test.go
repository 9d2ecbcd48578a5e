package postgres

import "github.com/querygenie/querygenie/internal/dbexec"

// The adapter must keep satisfying every dbexec contract; the pipeline and
// the connection manager compose their dependency interfaces from them.
var (
	_ dbexec.Runner          = (*Adapter)(nil)
	_ dbexec.SchemaDescriber = (*Adapter)(nil)
	_ dbexec.MetadataQuerier = (*Adapter)(nil)
	_ dbexec.Inspector       = (*Adapter)(nil)
)
