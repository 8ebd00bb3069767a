package storage

import (
	"strconv"
	"strings"
	"time"

	"github.com/kubo-market/batch-dashboard/internal/domain"
)

// Driver names accepted by Open.
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
)

// sqliteTimeLayout matches the text produced by sqlite's datetime().
const sqliteTimeLayout = "2006-01-02 15:04:05"

// dialect captures the few SQL differences between the supported row sources.
type dialect struct {
	name  string
	top   bool // SELECT TOP (n) instead of LIMIT n
	param func(n int) string
	quote func(ident string) string
	arg   func(v any) any
}

var dialects = map[string]dialect{
	DriverSQLServer: {
		name:  DriverSQLServer,
		top:   true,
		param: func(n int) string { return "@p" + strconv.Itoa(n) },
		quote: func(ident string) string { return "[" + ident + "]" },
		arg:   identity,
	},
	DriverPostgres: {
		name:  DriverPostgres,
		param: func(n int) string { return "$" + strconv.Itoa(n) },
		quote: doubleQuote,
		arg:   identity,
	},
	DriverSQLite: {
		name:  DriverSQLite,
		param: func(int) string { return "?" },
		quote: doubleQuote,
		arg: func(v any) any {
			if t, ok := v.(time.Time); ok {
				return t.UTC().Format(sqliteTimeLayout)
			}
			return v
		},
	},
}

var driverAliases = map[string]string{
	"sqlserver":  DriverSQLServer,
	"mssql":      DriverSQLServer,
	"postgres":   DriverPostgres,
	"postgresql": DriverPostgres,
	"pq":         DriverPostgres,
	"sqlite":     DriverSQLite,
	"sqlite3":    DriverSQLite,
}

func dialectFor(driver string) (dialect, error) {
	name, ok := driverAliases[strings.ToLower(strings.TrimSpace(driver))]
	if !ok {
		return dialect{}, domain.ErrUnsupportedDriver
	}
	return dialects[name], nil
}

// InferDriver guesses the driver from the shape of dsn.
func InferDriver(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "sqlserver://"), strings.Contains(lower, "server="):
		return DriverSQLServer
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"), strings.Contains(lower, "host="):
		return DriverPostgres
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"),
		lower == ":memory:", strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		return DriverSQLite
	default:
		return ""
	}
}

func identity(v any) any { return v }

func doubleQuote(ident string) string { return `"` + ident + `"` }

// selectQuery assembles one SELECT against a view.
type selectQuery struct {
	d        dialect
	table    string
	columns  []string
	where    []string
	args     []any
	orderBy  string
	desc     bool
	limit    int
	distinct bool
}

func (d dialect) selectFrom(table string, columns []string) *selectQuery {
	return &selectQuery{d: d, table: table, columns: columns}
}

// whereArg adds "col op ?" with v bound to the dialect's next placeholder.
func (q *selectQuery) whereArg(column, op string, v any) *selectQuery {
	q.args = append(q.args, q.d.arg(v))
	q.where = append(q.where, q.d.quote(column)+" "+op+" "+q.d.param(len(q.args)))
	return q
}

// whereArgOrNull adds "(col op ? OR col IS NULL)".
func (q *selectQuery) whereArgOrNull(column, op string, v any) *selectQuery {
	q.args = append(q.args, q.d.arg(v))
	c := q.d.quote(column)
	q.where = append(q.where, "("+c+" "+op+" "+q.d.param(len(q.args))+" OR "+c+" IS NULL)")
	return q
}

func (q *selectQuery) whereNotNull(column string) *selectQuery {
	q.where = append(q.where, q.d.quote(column)+" IS NOT NULL")
	return q
}

func (q *selectQuery) order(column string, desc bool) *selectQuery {
	q.orderBy, q.desc = column, desc
	return q
}

func (q *selectQuery) unique() *selectQuery {
	q.distinct = true
	return q
}

func (q *selectQuery) take(n int) *selectQuery {
	q.limit = n
	return q
}

func (q *selectQuery) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.distinct {
		b.WriteString("DISTINCT ")
	}
	if q.d.top && q.limit > 0 {
		b.WriteString("TOP (" + strconv.Itoa(q.limit) + ") ")
	}
	for i, c := range q.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(q.d.quote(c))
	}
	b.WriteString(" FROM ")
	b.WriteString(q.d.quote(q.table))
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if q.orderBy != "" {
		b.WriteString(" ORDER BY " + q.d.quote(q.orderBy))
		if q.desc {
			b.WriteString(" DESC")
		}
	}
	if !q.d.top && q.limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(q.limit))
	}
	return b.String()
}
