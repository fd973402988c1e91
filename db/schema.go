package database

import (
	"context"
	"fmt"
	"strings"
)

type column struct {
	name    string
	sqlType string
	notNull bool
}

type tableDef struct {
	name    string
	columns []column
	indexes []string
}

var ledgerSchema = []tableDef{
	{
		name: "categories",
		columns: []column{
			{"id", "VARCHAR(64)", true},
			{"group", "VARCHAR(64)", true},
			{"category", "VARCHAR(255)", false},
			{"category1", "VARCHAR(255)", false},
			{"category2", "VARCHAR(255)", false},
		},
	},
	{
		name: "institutions",
		columns: []column{
			{"id", "VARCHAR(64)", true},
			{"name", "VARCHAR(255)", true},
		},
	},
	{
		name: "accounts",
		columns: []column{
			{"id", "VARCHAR(64)", true},
			{"institution_id", "VARCHAR(64)", true},
			{"balance_current", "NUMERIC(14,2)", false},
			{"mask", "VARCHAR(16)", false},
			{"name", "VARCHAR(255)", true},
			{"type", "VARCHAR(32)", true},
			{"subtype", "VARCHAR(64)", false},
		},
		indexes: []string{"institution_id"},
	},
	{
		name: "transactions",
		columns: []column{
			{"id", "VARCHAR(64)", true},
			{"account_id", "VARCHAR(64)", true},
			{"name", "VARCHAR(255)", true},
			{"amount", "NUMERIC(14,2)", true},
			{"date", "DATE", true},
			{"category_id", "VARCHAR(64)", false},
			{"currency_code", "VARCHAR(8)", false},
			{"location_city", "VARCHAR(128)", false},
			{"location_state", "VARCHAR(64)", false},
			{"location_country", "VARCHAR(64)", false},
			{"payment_channel", "VARCHAR(32)", false},
		},
		indexes: []string{"account_id", "date"},
	},
}

func quoteIdent(driver, ident string) string {
	if driver == DriverMySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// SchemaStatements returns the DDL that creates the ledger tables for driver.
// Every statement is safe to run again.
func SchemaStatements(driver string) []string {
	var stmts []string
	for _, t := range ledgerSchema {
		defs := make([]string, 0, len(t.columns)+1)
		for _, c := range t.columns {
			def := quoteIdent(driver, c.name) + " " + c.sqlType
			if c.notNull {
				def += " NOT NULL"
			}
			defs = append(defs, def)
		}
		defs = append(defs, "PRIMARY KEY ("+quoteIdent(driver, "id")+")")
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
			quoteIdent(driver, t.name), strings.Join(defs, ",\n  ")))

		for _, col := range t.indexes {
			name := fmt.Sprintf("idx_%s_%s", t.name, col)
			if driver == DriverMySQL {
				// MySQL has no IF NOT EXISTS for indexes; declare it inline instead.
				stmts[len(stmts)-1] = strings.TrimSuffix(stmts[len(stmts)-1], "\n)") +
					fmt.Sprintf(",\n  INDEX %s (%s)\n)", quoteIdent(driver, name), quoteIdent(driver, col))
				continue
			}
			stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				quoteIdent(driver, name), quoteIdent(driver, t.name), quoteIdent(driver, col)))
		}
	}
	return stmts
}

// Migrate creates any missing ledger tables.
func (s *DBService) Migrate(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range SchemaStatements(s.Driver) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return tx.Commit()
}
