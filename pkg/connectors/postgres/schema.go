package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
)

type tableRef struct {
	schema string
	name   string
}

// listTables returns user tables, excluding system schemas, optionally
// narrowed by schema and/or table name.
func listTables(ctx context.Context, pool *pgxpool.Pool, opts connectors.SchemaOptions) ([]tableRef, error) {
	const query = `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		  AND ($1 = '' OR table_schema = $1)
		  AND ($2 = '' OR table_name = $2)
		ORDER BY table_schema, table_name`

	rows, err := pool.Query(ctx, query, opts.SchemaName, opts.TableName)
	if err != nil {
		return nil, apperrors.NewConnectionError("PostgreSQL", fmt.Errorf("query tables: %w", err))
	}
	defer rows.Close()

	var tables []tableRef
	for rows.Next() {
		var t tableRef
		if err := rows.Scan(&t.schema, &t.name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

func listColumns(ctx context.Context, pool *pgxpool.Pool, schema, table string) ([]connectors.Column, error) {
	const query = `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := pool.Query(ctx, query, schema, table)
	if err != nil {
		return nil, apperrors.NewConnectionError("PostgreSQL", fmt.Errorf("query columns: %w", err))
	}
	defer rows.Close()

	var columns []connectors.Column
	for rows.Next() {
		var c connectors.Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

// listPrimaryKeys uses pg_index.indisprimary, which detects primary keys
// even when they were created as unique indexes by an ORM.
func listPrimaryKeys(ctx context.Context, pool *pgxpool.Pool, schema, table string) ([]string, error) {
	const query = `
		SELECT a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE ix.indisprimary = true
		  AND n.nspname = $1
		  AND t.relname = $2
		ORDER BY a.attnum`

	rows, err := pool.Query(ctx, query, schema, table)
	if err != nil {
		return nil, apperrors.NewConnectionError("PostgreSQL", fmt.Errorf("query primary keys: %w", err))
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan primary key: %w", err)
		}
		pks = append(pks, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate primary keys: %w", err)
	}
	return pks, nil
}

func listForeignKeys(ctx context.Context, pool *pgxpool.Pool, schema, table string) ([]connectors.ForeignKey, error) {
	const query = `
		SELECT
			tc.constraint_name,
			kcu.column_name,
			ccu.table_schema,
			ccu.table_name,
			ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2`

	rows, err := pool.Query(ctx, query, schema, table)
	if err != nil {
		return nil, apperrors.NewConnectionError("PostgreSQL", fmt.Errorf("query foreign keys: %w", err))
	}
	defer rows.Close()

	var fks []connectors.ForeignKey
	for rows.Next() {
		var fk connectors.ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.ReferencedSchema, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}
	return fks, nil
}
