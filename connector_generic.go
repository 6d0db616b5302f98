package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// GenericConnector accesses any registered database/sql driver through a
// pre-built connection string, using per-driver catalog introspection for
// metadata. Its filtering capabilities are a strict subset of the HANA
// connector's: catalog and schema filter exactly where the driver's catalog
// supports it, while search and limit are accepted but not pushed down (the
// full set is returned rather than failing).
type GenericConnector struct {
	driver  string
	connStr string
	db      *sql.DB
	lastErr string
}

var _ Connector = (*GenericConnector)(nil)

// NewGenericConnector builds a connector for the named driver. The driver
// must be compiled into the binary; see the blank imports in main.go.
func NewGenericConnector(driver, connectionString string) (*GenericConnector, error) {
	if driver == "" {
		driver = "odbc"
	}
	if !driverRegistered(driver) {
		return nil, fmt.Errorf("%w: %s (registered drivers: %s)",
			ErrDriverMissing, driver, strings.Join(sql.Drivers(), ", "))
	}
	return &GenericConnector{driver: driver, connStr: connectionString}, nil
}

func (c *GenericConnector) Connect(ctx context.Context) error {
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}

	db, err := sql.Open(c.driver, c.connStr)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConnection, truncateError(err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%w: %s", ErrConnection, truncateError(err))
	}

	c.db = db
	return nil
}

func (c *GenericConnector) getDB(ctx context.Context) (*sql.DB, error) {
	if c.db == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}
	return c.db, nil
}

// placeholder returns the driver's positional parameter marker for the
// 1-based index i. Only PostgreSQL deviates from the ODBC-style "?".
func (c *GenericConnector) placeholder(i int) string {
	if c.driver == "postgres" {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// tablesQuery builds the catalog query for the configured driver. Every
// variant projects exactly (catalog, schema, table, description) so the scan
// is uniform; drivers without a notion of catalog or comments project empty
// literals.
func (c *GenericConnector) tablesQuery(filter TableFilter) (string, []any) {
	if c.driver == "sqlite" {
		// No catalogs or schemas in a single-file database.
		return `SELECT '', '', name, '' FROM sqlite_master WHERE type = 'table' ORDER BY name`, nil
	}

	var cols string
	switch c.driver {
	case "mysql":
		cols = "TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, TABLE_COMMENT"
	default: // odbc, postgres and anything else with INFORMATION_SCHEMA
		cols = "TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, ''"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM INFORMATION_SCHEMA.TABLES WHERE 1=1", cols)

	var args []any
	if filter.Catalog != "" {
		fmt.Fprintf(&b, " AND TABLE_CATALOG = %s", c.placeholder(len(args)+1))
		args = append(args, filter.Catalog)
	}
	if filter.Schema != "" {
		fmt.Fprintf(&b, " AND TABLE_SCHEMA = %s", c.placeholder(len(args)+1))
		args = append(args, filter.Schema)
	}
	b.WriteString(" ORDER BY TABLE_SCHEMA, TABLE_NAME")

	return b.String(), args
}

// columnsQuery builds the column catalog query, projecting exactly
// (catalog, schema, table, column, data type, description) ordered by the
// backend's column position.
func (c *GenericConnector) columnsQuery(table, catalog, schema string) (string, []any) {
	if c.driver == "sqlite" {
		return `SELECT '', '', ?, name, type, '' FROM pragma_table_info(?) ORDER BY cid`,
			[]any{table, table}
	}

	var cols string
	switch c.driver {
	case "mysql":
		cols = "TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, DATA_TYPE, COLUMN_COMMENT"
	default:
		cols = "TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, DATA_TYPE, ''"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = %s", cols, c.placeholder(1))
	args := []any{table}

	if catalog != "" {
		fmt.Fprintf(&b, " AND TABLE_CATALOG = %s", c.placeholder(len(args)+1))
		args = append(args, catalog)
	}
	if schema != "" {
		fmt.Fprintf(&b, " AND TABLE_SCHEMA = %s", c.placeholder(len(args)+1))
		args = append(args, schema)
	}
	b.WriteString(" ORDER BY ORDINAL_POSITION")

	return b.String(), args
}

func (c *GenericConnector) GetTables(ctx context.Context, filter TableFilter) ([]Table, error) {
	db, err := c.getDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args := c.tablesQuery(filter)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var catalog, schema, name, description sql.NullString
		if err := rows.Scan(&catalog, &schema, &name, &description); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
		}
		tables = append(tables, Table{
			Catalog:     catalog.String,
			Schema:      schema.String,
			Name:        name.String,
			Description: description.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
	}
	return tables, nil
}

func (c *GenericConnector) GetColumns(ctx context.Context, table, catalog, schema string) ([]Column, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: table is required", ErrInvalidArgument)
	}

	db, err := c.getDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args := c.columnsQuery(table, catalog, schema)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var cat, sch, tbl, col, dataType, description sql.NullString
		if err := rows.Scan(&cat, &sch, &tbl, &col, &dataType, &description); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
		}
		columns = append(columns, Column{
			Catalog:     cat.String,
			Schema:      sch.String,
			Table:       tbl.String,
			Name:        col.String,
			DataType:    dataType.String,
			Description: description.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
	}
	return columns, nil
}

func (c *GenericConnector) ExecuteQuery(ctx context.Context, query string) ([]Row, error) {
	db, err := c.getDB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
	}
	return result, nil
}

func (c *GenericConnector) TestConnection(ctx context.Context) bool {
	db, err := c.getDB(ctx)
	if err != nil {
		c.lastErr = err.Error()
		return false
	}

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		c.lastErr = truncateError(err)
		return false
	}
	return true
}

func (c *GenericConnector) LastError() string {
	if c.lastErr == "" {
		return "Unknown error"
	}
	return c.lastErr
}

func (c *GenericConnector) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *GenericConnector) QuoteIdentifier(name string) string {
	return quoteIdentifier(name)
}
