package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Connector error taxonomy. Connectors wrap backend failures in one of these
// sentinels so callers can classify without depending on driver error types.
var (
	// ErrConnection means the live connection could not be established or used.
	ErrConnection = errors.New("failed to establish backend connection")
	// ErrDriverMissing means the configured database/sql driver is not compiled in.
	ErrDriverMissing = errors.New("database driver not available")
	// ErrInvalidArgument means a required parameter was absent.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrBackend means the query or catalog call failed on the backend side.
	ErrBackend = errors.New("backend error")
)

// maxErrorTextLen bounds backend error text included in messages; driver
// errors can embed whole statements.
const maxErrorTextLen = 500

// DefaultTableLimit is the row bound applied to table listings when the
// caller does not specify one.
const DefaultTableLimit = 50

// Table describes one table from the backend catalog.
type Table struct {
	Catalog     string
	Schema      string
	Name        string
	Description string
}

// Column describes one column of a table, in the backend's physical order.
type Column struct {
	Catalog     string
	Schema      string
	Table       string
	Name        string
	DataType    string
	Description string
}

// Row is one result row. Columns preserves the backend's reported column
// order; Values maps column name (case as returned) to the scanned value.
// Duplicate column names collide in Values (last one wins), same as the
// backends' own cursor-to-dict behavior. The Columns slice is shared across
// all rows of one result set.
type Row struct {
	Columns []string
	Values  map[string]any
}

// TableFilter narrows a table listing. Schema is an exact match, Search is a
// case-insensitive substring match on the table name, Limit bounds the number
// of catalog rows fetched. Connectors that cannot push a filter down ignore it
// rather than failing.
type TableFilter struct {
	Catalog string
	Schema  string
	Search  string
	Limit   int
}

// Connector is the uniform database-access contract implemented per backend.
//
// A connector owns at most one live connection, created lazily on first use
// and replaced (never leaked) on reconnect. Connectors are not safe for
// concurrent use; callers must serialize access to an instance.
type Connector interface {
	// Connect establishes the live connection, replacing any existing one.
	Connect(ctx context.Context) error

	// GetTables lists tables matching the filter, ordered by (schema, name)
	// where the backend exposes ordering.
	GetTables(ctx context.Context, filter TableFilter) ([]Table, error)

	// GetColumns lists the columns of table in physical position order.
	// table is required.
	GetColumns(ctx context.Context, table, catalog, schema string) ([]Column, error)

	// ExecuteQuery runs sql exactly as given and materializes all rows.
	ExecuteQuery(ctx context.Context, sql string) ([]Row, error)

	// TestConnection reports whether the backend is reachable. It never
	// returns an error; failures are retained for LastError.
	TestConnection(ctx context.Context) bool

	// LastError returns the message of the most recent TestConnection failure.
	LastError() string

	// Close releases the live connection. No-op when none exists.
	Close() error

	// QuoteIdentifier wraps name in the backend's identifier quoting.
	QuoteIdentifier(name string) string
}

// NewConnector builds the connector selected by the configuration's type tag.
func NewConnector(cfg *Config) (Connector, error) {
	switch cfg.Connector.Type {
	case "hana":
		return NewHanaConnector(cfg.Connector.HanaParams()), nil
	case "odbc":
		oc := cfg.Connector.OdbcParams()
		return NewGenericConnector(oc.Driver, oc.ConnectionString)
	default:
		return nil, fmt.Errorf("%w: unknown connector type %q", ErrInvalidArgument, cfg.Connector.Type)
	}
}

// quoteIdentifier is the shared default quoting convention: double quotes,
// with embedded double quotes doubled. Variants may override.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// truncateError bounds err's text for display.
func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > maxErrorTextLen {
		msg = msg[:maxErrorTextLen] + "..."
	}
	return msg
}

// driverRegistered reports whether a database/sql driver is compiled in.
func driverRegistered(name string) bool {
	return slices.Contains(sql.Drivers(), name)
}

// scanRows materializes an executed query into rows, converting []byte values
// to strings. All rows share one Columns slice.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
			} else {
				rec[col] = values[i]
			}
		}
		out = append(out, Row{Columns: columns, Values: rec})
	}
	return out, rows.Err()
}
