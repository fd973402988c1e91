package infrastructure

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sebuszqo/FinanceSync/internal/ledger/domain"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
)

func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(name)); d {
	case DialectPostgres, DialectSQLite, DialectMySQL:
		return d, nil
	case "pgx", "postgresql":
		return DialectPostgres, nil
	case "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q", name)
	}
}

func (d Dialect) quote(ident string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// maxParams is the bind-parameter cap of each driver.
func (d Dialect) maxParams() int {
	if d == DialectSQLite {
		return 32766
	}
	return 65535
}

// Batch is one executable INSERT covering a slice of the rows.
type Batch struct {
	SQL  string
	Args []any
}

// Statement is one bulk upsert. Batches are what the driver executes, split so
// none exceeds the driver's parameter cap; Text is the whole upsert as a single
// statement with every argument inlined as a literal.
type Statement struct {
	Table   string
	Batches []Batch
	Text    string
}

const previewLength = 100

// Preview is a one-line summary of the statement for logs.
func (s Statement) Preview() string {
	if utf8.RuneCountInString(s.Text) <= previewLength {
		return s.Text
	}
	cut, n := 0, 0
	for i := range s.Text {
		if n == previewLength-3 {
			cut = i
			break
		}
		n++
	}
	return strings.ReplaceAll(s.Text[:cut], "\n", " ") + "..."
}

// BuildUpsert renders an INSERT covering every row. On an identifier
// collision every other column takes the incoming value. All rows must share
// the column set of the first one.
func BuildUpsert(d Dialect, table string, rows []domain.Row) (Statement, error) {
	return buildUpsert(d, table, rows, d.maxParams())
}

func buildUpsert(d Dialect, table string, rows []domain.Row, maxParams int) (Statement, error) {
	if len(rows) == 0 {
		return Statement{}, fmt.Errorf("no rows to upsert into %s", table)
	}
	columns := rows[0].Columns()
	if len(columns) == 0 || columns[0] != domain.PrimaryKey {
		return Statement{}, fmt.Errorf("rows for %s must start with the %s column", table, domain.PrimaryKey)
	}
	perBatch := maxParams / len(columns)
	if perBatch < 1 {
		return Statement{}, fmt.Errorf("%s has more columns than the driver accepts parameters", table)
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = d.quote(col)
	}
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES", d.quote(table), strings.Join(quoted, ", "))
	conflict := "\n" + d.conflictClause(quoted) + ";"

	var literalText strings.Builder
	literalText.WriteString(head)

	stmt := Statement{Table: table}
	var sqlText strings.Builder
	var args []any
	params := make([]string, len(columns))
	literals := make([]string, len(columns))
	for i, row := range rows {
		values := row.Values()
		if len(values) != len(columns) {
			return Statement{}, fmt.Errorf("row %d for %s has %d values, want %d", i, table, len(values), len(columns))
		}
		if i%perBatch == 0 {
			sqlText.Reset()
			sqlText.WriteString(head)
			args = make([]any, 0, min(len(rows)-i, perBatch)*len(columns))
		}
		for j, v := range values {
			args = append(args, v)
			params[j] = d.placeholder(len(args))
			lit, err := d.literal(v)
			if err != nil {
				return Statement{}, fmt.Errorf("row %d column %s: %w", i, columns[j], err)
			}
			literals[j] = lit
		}

		last := i == len(rows)-1
		batchEnd := last || (i+1)%perBatch == 0
		fmt.Fprintf(&sqlText, "\n(%s)", strings.Join(params, ", "))
		if !batchEnd {
			sqlText.WriteString(",")
		}
		fmt.Fprintf(&literalText, "\n(%s)", strings.Join(literals, ", "))
		if !last {
			literalText.WriteString(",")
		}
		if batchEnd {
			sqlText.WriteString(conflict)
			stmt.Batches = append(stmt.Batches, Batch{SQL: sqlText.String(), Args: args})
		}
	}

	literalText.WriteString(conflict)
	stmt.Text = literalText.String()
	return stmt, nil
}

func (d Dialect) conflictClause(quoted []string) string {
	key, rest := quoted[0], quoted[1:]
	updates := make([]string, len(rest))
	for i, col := range rest {
		switch d {
		case DialectMySQL:
			updates[i] = fmt.Sprintf("%s = VALUES(%s)", col, col)
		case DialectSQLite:
			updates[i] = fmt.Sprintf("%s = excluded.%s", col, col)
		default:
			updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
		}
	}

	if d == DialectMySQL {
		if len(updates) == 0 {
			return fmt.Sprintf("ON DUPLICATE KEY UPDATE %s = %s", key, key)
		}
		return "ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
	}
	if len(updates) == 0 {
		return fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", key)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(updates, ", "))
}

func (d Dialect) literal(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case domain.Numeric:
		return string(val), nil
	case string:
		return d.stringLiteral(val), nil
	case []byte:
		return d.stringLiteral(string(val)), nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case time.Time:
		return d.stringLiteral(val.Format("2006-01-02 15:04:05")), nil
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return "", err
		}
		return d.literal(inner)
	default:
		return "", fmt.Errorf("cannot render %T as sql literal", v)
	}
}

func (d Dialect) stringLiteral(s string) string {
	s = strings.ReplaceAll(s, "'", "''")
	if d == DialectMySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + s + "'"
}
