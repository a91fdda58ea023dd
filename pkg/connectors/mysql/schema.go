package mysql

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
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		  AND (? = '' OR table_name = ?)
		ORDER BY table_name`

	rows, err := db.QueryContext(ctx, query, schema, table, table)
	if err != nil {
		return nil, apperrors.NewConnectionError("MySQL", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewConnectionError("MySQL", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewConnectionError("MySQL", err)
	}
	return tables, nil
}

func listColumns(ctx context.Context, db *sql.DB, schema, table string) ([]connectors.Column, error) {
	const query = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, apperrors.NewConnectionError("MySQL", err)
	}
	defer rows.Close()

	var columns []connectors.Column
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, apperrors.NewConnectionError("MySQL", err)
		}
		columns = append(columns, connectors.Column{
			Name:     name,
			Type:     dataType,
			Nullable: nullable == "YES",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewConnectionError("MySQL", err)
	}
	return columns, nil
}

// listKeys reads KEY_COLUMN_USAGE once and splits primary keys from
// foreign key references.
func listKeys(ctx context.Context, db *sql.DB, schema, table string) ([]string, []connectors.ForeignKey, error) {
	const query = `
		SELECT column_name, constraint_name,
		       COALESCE(referenced_table_name, ''),
		       COALESCE(referenced_column_name, '')
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, nil, apperrors.NewConnectionError("MySQL", err)
	}
	defer rows.Close()

	var pks []string
	var fks []connectors.ForeignKey
	for rows.Next() {
		var column, constraint, refTable, refColumn string
		if err := rows.Scan(&column, &constraint, &refTable, &refColumn); err != nil {
			return nil, nil, apperrors.NewConnectionError("MySQL", err)
		}
		switch {
		case constraint == "PRIMARY":
			pks = append(pks, column)
		case refTable != "":
			fks = append(fks, connectors.ForeignKey{
				Column:           column,
				ReferencedTable:  refTable,
				ReferencedColumn: refColumn,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewConnectionError("MySQL", err)
	}
	return pks, fks, nil
}

func listIndexes(ctx context.Context, db *sql.DB, schema, table string) ([]connectors.Index, error) {
	const query = `
		SELECT index_name, column_name, non_unique
		FROM information_schema.statistics
		WHERE table_schema = ? AND table_name = ?
		ORDER BY index_name, seq_in_index`

	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, apperrors.NewConnectionError("MySQL", err)
	}
	defer rows.Close()

	// Preserve first-seen order while grouping columns per index.
	var order []string
	grouped := make(map[string]*connectors.Index)
	for rows.Next() {
		var name, column string
		var nonUnique int
		if err := rows.Scan(&name, &column, &nonUnique); err != nil {
			return nil, apperrors.NewConnectionError("MySQL", err)
		}
		idx, ok := grouped[name]
		if !ok {
			idx = &connectors.Index{Name: name, Unique: nonUnique == 0}
			grouped[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewConnectionError("MySQL", err)
	}

	indexes := make([]connectors.Index, 0, len(order))
	for _, name := range order {
		indexes = append(indexes, *grouped[name])
	}
	return indexes, nil
}
