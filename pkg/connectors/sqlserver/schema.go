package sqlserver

import (
	"context"
	"database/sql"

	"github.com/datalinkhq/connector-engine/pkg/apperrors"
	"github.com/datalinkhq/connector-engine/pkg/connectors"
)

func listTables(ctx context.Context, db *sql.DB, schema, table string) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = @p1
		  AND table_type = 'BASE TABLE'
		  AND (@p2 = '' OR table_name = @p2)
		ORDER BY table_name`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewConnectionError("SQL Server", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	return tables, nil
}

func listColumns(ctx context.Context, db *sql.DB, schema, table string) ([]connectors.Column, error) {
	const query = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = @p1 AND table_name = @p2
		ORDER BY ordinal_position`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	defer rows.Close()

	var columns []connectors.Column
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, apperrors.NewConnectionError("SQL Server", err)
		}
		columns = append(columns, connectors.Column{
			Name:     name,
			Type:     dataType,
			Nullable: nullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	return columns, nil
}

func listPrimaryKeys(ctx context.Context, db *sql.DB, schema, table string) ([]string, error) {
	const query = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = @p1
		  AND tc.table_name = @p2
		ORDER BY kcu.ordinal_position`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	defer rows.Close()

	var pks []string
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, apperrors.NewConnectionError("SQL Server", err)
		}
		pks = append(pks, column)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	return pks, nil
}

func listForeignKeys(ctx context.Context, db *sql.DB, schema, table string) ([]connectors.ForeignKey, error) {
	const query = `
		SELECT
			fk.name,
			pc.name,
			rs.name,
			rt.name,
			rc.name
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		JOIN sys.tables pt ON fkc.parent_object_id = pt.object_id
		JOIN sys.schemas ps ON pt.schema_id = ps.schema_id
		JOIN sys.columns pc ON fkc.parent_object_id = pc.object_id AND fkc.parent_column_id = pc.column_id
		JOIN sys.tables rt ON fkc.referenced_object_id = rt.object_id
		JOIN sys.schemas rs ON rt.schema_id = rs.schema_id
		JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
		WHERE ps.name = @p1 AND pt.name = @p2
		ORDER BY fk.name`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	defer rows.Close()

	var fks []connectors.ForeignKey
	for rows.Next() {
		var fk connectors.ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.ReferencedSchema, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, apperrors.NewConnectionError("SQL Server", err)
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewConnectionError("SQL Server", err)
	}
	return fks, nil
}
