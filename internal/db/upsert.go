package db

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Placeholder styles for bind parameters.
type Placeholder int

const (
	// Dollar numbers parameters $1, $2, ... (PostgreSQL).
	Dollar Placeholder = iota
	// Question uses ? for every parameter (SQLite).
	Question
)

// UpsertConfig describes a multi-row INSERT ... ON CONFLICT DO UPDATE.
type UpsertConfig struct {
	Table        string
	Columns      []string
	ConflictKeys []string
	// UpdateCols are set from EXCLUDED on conflict. nil means every column
	// that is not a conflict key.
	UpdateCols  []string
	Placeholder Placeholder
}

// UpsertSQL renders the statement for nrows rows along with the flattened
// argument list.
func UpsertSQL(cfg UpsertConfig, rows [][]any) (string, []any, error) {
	if len(cfg.Columns) == 0 {
		return "", nil, eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return "", nil, eris.New("db: upsert: no conflict keys specified")
	}
	if len(rows) == 0 {
		return "", nil, eris.New("db: upsert: no rows")
	}

	updateCols := cfg.UpdateCols
	if updateCols == nil {
		keys := make(map[string]bool, len(cfg.ConflictKeys))
		for _, k := range cfg.ConflictKeys {
			keys[k] = true
		}
		for _, c := range cfg.Columns {
			if !keys[c] {
				updateCols = append(updateCols, c)
			}
		}
	}

	args := make([]any, 0, len(rows)*len(cfg.Columns))
	tuples := make([]string, len(rows))
	n := 0
	for i, row := range rows {
		if len(row) != len(cfg.Columns) {
			return "", nil, eris.New(fmt.Sprintf("db: upsert: row %d has %d values, want %d", i, len(row), len(cfg.Columns)))
		}
		ph := make([]string, len(row))
		for j := range row {
			n++
			ph[j] = cfg.Placeholder.render(n)
		}
		tuples[i] = "(" + strings.Join(ph, ", ") + ")"
		args = append(args, row...)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) ",
		sanitizeTable(cfg.Table),
		quoteAndJoin(cfg.Columns),
		strings.Join(tuples, ", "),
		quoteAndJoin(cfg.ConflictKeys),
	)
	if len(updateCols) == 0 {
		sb.WriteString("DO NOTHING")
		return sb.String(), args, nil
	}
	sets := make([]string, len(updateCols))
	for i, c := range updateCols {
		q := pgx.Identifier{c}.Sanitize()
		sets[i] = q + " = EXCLUDED." + q
	}
	sb.WriteString("DO UPDATE SET ")
	sb.WriteString(strings.Join(sets, ", "))
	return sb.String(), args, nil
}

func (p Placeholder) render(n int) string {
	if p == Question {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// sanitizeTable quotes a possibly schema-qualified table name.
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	return pgx.Identifier(parts).Sanitize()
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
