package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// HanaParams holds the connection parameters of the HANA connector. Immutable
// once the connector is constructed.
type HanaParams struct {
	Host     string
	Port     int
	User     string
	Password string
	// DatabaseName is the tenant database for multi-tenant HANA systems.
	DatabaseName string
	Encrypt      bool
	SSLValidate  bool
}

// HanaConnector accesses SAP HANA through the go-hdb driver, using the
// SYS.TABLES and SYS.TABLE_COLUMNS system views for metadata.
type HanaConnector struct {
	params  HanaParams
	db      *sql.DB
	lastErr string
}

var _ Connector = (*HanaConnector)(nil)

func NewHanaConnector(params HanaParams) *HanaConnector {
	return &HanaConnector{params: params}
}

// dsn builds the go-hdb DSN from the connection parameters.
func (c *HanaConnector) dsn() string {
	u := url.URL{
		Scheme: "hdb",
		User:   url.UserPassword(c.params.User, c.params.Password),
		Host:   net.JoinHostPort(c.params.Host, strconv.Itoa(c.params.Port)),
	}

	q := url.Values{}
	if c.params.DatabaseName != "" {
		q.Set("databaseName", c.params.DatabaseName)
	}
	if c.params.Encrypt {
		q.Set("TLSServerName", c.params.Host)
		if !c.params.SSLValidate {
			q.Set("TLSInsecureSkipVerify", "true")
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func (c *HanaConnector) Connect(ctx context.Context) error {
	if !driverRegistered("hdb") {
		return fmt.Errorf("%w: hdb (go-hdb driver not compiled in)", ErrDriverMissing)
	}

	// Replace, never leak, a previous handle.
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}

	db, err := sql.Open("hdb", c.dsn())
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConnection, truncateError(err))
	}
	// sql.Open is lazy; ping to actually establish the connection.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%w: %s", ErrConnection, truncateError(err))
	}

	c.db = db
	return nil
}

// getDB returns the live connection, establishing it on first use.
func (c *HanaConnector) getDB(ctx context.Context) (*sql.DB, error) {
	if c.db == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}
	return c.db, nil
}

// tablesQuery builds the SYS.TABLES catalog query. Schema filters exactly,
// search matches the upper-cased table name as a substring, and the limit is
// pushed down as a native LIMIT clause.
func (c *HanaConnector) tablesQuery(filter TableFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT SCHEMA_NAME, TABLE_NAME, COMMENTS FROM SYS.TABLES WHERE 1=1`)

	var args []any
	if filter.Schema != "" {
		b.WriteString(" AND SCHEMA_NAME = ?")
		args = append(args, filter.Schema)
	}
	if filter.Search != "" {
		b.WriteString(" AND upper(TABLE_NAME) LIKE ?")
		args = append(args, "%"+strings.ToUpper(filter.Search)+"%")
	}

	b.WriteString(" ORDER BY SCHEMA_NAME, TABLE_NAME")

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultTableLimit
	}
	fmt.Fprintf(&b, " LIMIT %d", limit)

	return b.String(), args
}

func (c *HanaConnector) GetTables(ctx context.Context, filter TableFilter) ([]Table, error) {
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
		var schema, name string
		var comments sql.NullString
		if err := rows.Scan(&schema, &name, &comments); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
		}
		tables = append(tables, Table{
			Schema:      schema,
			Name:        name,
			Description: comments.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
	}
	return tables, nil
}

func (c *HanaConnector) GetColumns(ctx context.Context, table, catalog, schema string) ([]Column, error) {
	if table == "" {
		return nil, fmt.Errorf("%w: table is required", ErrInvalidArgument)
	}

	db, err := c.getDB(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT SCHEMA_NAME, TABLE_NAME, COLUMN_NAME, DATA_TYPE_NAME, COMMENTS
		FROM SYS.TABLE_COLUMNS WHERE TABLE_NAME = ?`
	args := []any{table}
	if schema != "" {
		query += " AND SCHEMA_NAME = ?"
		args = append(args, schema)
	}
	query += " ORDER BY POSITION"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var schemaName, tableName, colName, dataType string
		var comments sql.NullString
		if err := rows.Scan(&schemaName, &tableName, &colName, &dataType, &comments); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
		}
		columns = append(columns, Column{
			Schema:      schemaName,
			Table:       tableName,
			Name:        colName,
			DataType:    dataType,
			Description: comments.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBackend, truncateError(err))
	}
	return columns, nil
}

func (c *HanaConnector) ExecuteQuery(ctx context.Context, query string) ([]Row, error) {
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

// TestConnection probes the connection with HANA's DUMMY table. Failures are
// converted to false and retained for LastError.
func (c *HanaConnector) TestConnection(ctx context.Context) bool {
	db, err := c.getDB(ctx)
	if err != nil {
		c.lastErr = err.Error()
		return false
	}

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1 FROM DUMMY").Scan(&one); err != nil {
		c.lastErr = truncateError(err)
		return false
	}
	return true
}

func (c *HanaConnector) LastError() string {
	if c.lastErr == "" {
		return "Unknown error"
	}
	return c.lastErr
}

func (c *HanaConnector) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *HanaConnector) QuoteIdentifier(name string) string {
	return quoteIdentifier(name)
}
