// Package dataset implements the §6 Dataset contract
// (open/fetch/close/fieldNames) with two concrete drivers: a JDBC-style
// SQL driver with pooled database/sql connections, and a delimited
// text-table reader. Both are wired behind interp.DatasetOpener so the
// language runtime in internal/interp never imports database/sql or
// encoding/csv directly.
package dataset

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
	"golang.org/x/sync/singleflight"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/interp"
	"mapyrus/internal/value"
)

// driverFor maps a Mapyrus "dataset" type name to the registered
// database/sql driver name, picked from a DSN scheme the same way a
// multi-backend connection manager would.
func driverFor(kind string) (string, bool) {
	switch strings.ToLower(kind) {
	case "postgresql", "postgres":
		return "postgres", true
	case "mysql":
		return "mysql", true
	case "mssql", "sqlserver":
		return "sqlserver", true
	case "sqlite", "sqlite3":
		return "sqlite", true
	default:
		return "", false
	}
}

// pool keeps one *sql.DB per (driver, dsn) pair, guarded by a mutex,
// reused across interpreter clones opened concurrently from the same
// process.
type pool struct {
	mu    sync.Mutex
	conns map[string]*sql.DB
	group singleflight.Group
}

var pools = &pool{conns: make(map[string]*sql.DB)}

func (p *pool) open(driver, dsn string) (*sql.DB, error) {
	key := driver + "|" + dsn
	p.mu.Lock()
	if db, ok := p.conns[key]; ok {
		p.mu.Unlock()
		return db, nil
	}
	p.mu.Unlock()

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(4)
		p.mu.Lock()
		p.conns[key] = db
		p.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

// jdbcDataset wraps a *sql.Rows cursor over a query issued against a
// driverFor-resolved database/sql driver.
type jdbcDataset struct {
	rows   *sql.Rows
	cols   []string
	closed bool
}

// Open resolves a "dataset" command's (type, spec, extras) triple to a
// concrete Dataset. "spec" is a DSN; "extras" is the SQL query for JDBC
// datasets, or field-width/delimiter options for text tables. stdin
// backs the "-" text-table pseudo-file.
func Open(kind, spec, extras string, stdin io.Reader) (interp.Dataset, error) {
	if driver, ok := driverFor(kind); ok {
		return openJDBC(driver, spec, extras)
	}
	if strings.EqualFold(kind, "textfile") || strings.EqualFold(kind, "text") {
		return openText(spec, extras, stdin)
	}
	return nil, mapyruserr.Newf(mapyruserr.InvalidFormat, "unknown dataset type %q", kind)
}

func openJDBC(driver, dsn, query string) (interp.Dataset, error) {
	db, err := pools.open(driver, dsn)
	if err != nil {
		return nil, mapyruserr.Wrap(mapyruserr.Io, err, "open dataset connection")
	}
	if strings.TrimSpace(query) == "" {
		return nil, mapyruserr.New(mapyruserr.WrongParameters, "dataset requires a query in its extras field")
	}
	rows, err := db.Query(query)
	if err != nil {
		return nil, mapyruserr.Wrap(mapyruserr.Io, err, "query dataset")
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, mapyruserr.Wrap(mapyruserr.Io, err, "read dataset columns")
	}
	return &jdbcDataset{rows: rows, cols: cols}, nil
}

func (d *jdbcDataset) FieldNames() []string { return d.cols }

func (d *jdbcDataset) Fetch() (interp.Row, error) {
	if !d.rows.Next() {
		if err := d.rows.Err(); err != nil {
			return nil, mapyruserr.Wrap(mapyruserr.Io, err, "fetch dataset row")
		}
		return nil, io.EOF
	}
	raw := make([]interface{}, len(d.cols))
	ptrs := make([]interface{}, len(d.cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := d.rows.Scan(ptrs...); err != nil {
		return nil, mapyruserr.Wrap(mapyruserr.Io, err, "scan dataset row")
	}
	row := make(interp.Row, len(raw))
	for i, v := range raw {
		row[i] = toValue(v)
	}
	return row, nil
}

func toValue(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.String("")
	case int64:
		return value.Number(float64(t))
	case float64:
		return value.Number(t)
	case []byte:
		return value.String(string(t))
	case string:
		return value.String(t)
	case bool:
		if t {
			return value.Number(1)
		}
		return value.Number(0)
	default:
		return value.String(fmt.Sprintf("%v", t))
	}
}

func (d *jdbcDataset) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.rows.Close()
}

// textDataset reads a delimited table from disk or stdin, the "other
// named driver kind" per §6's dataset contract. The CSV reader is
// standard library: no corpus dependency supplies a table-file parser.
type textDataset struct {
	r      *csv.Reader
	closer io.Closer
	header []string
}

func openText(spec, extras string, stdin io.Reader) (interp.Dataset, error) {
	var rc io.ReadCloser
	delim := ','
	if extras != "" {
		if f, err := strconv.ParseFloat(extras, 64); err == nil && f >= 0 {
			// extras given as an ASCII code for the delimiter.
			delim = rune(int(f))
		} else if len(extras) == 1 {
			delim = rune(extras[0])
		}
	}
	if spec == "" || spec == "-" {
		rc = io.NopCloser(stdin)
	} else {
		f, err := openTextFile(spec)
		if err != nil {
			return nil, mapyruserr.Wrap(mapyruserr.Io, err, "open text dataset")
		}
		rc = f
	}
	r := csv.NewReader(bufio.NewReader(rc))
	r.Comma = delim
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		rc.Close()
		return nil, mapyruserr.Wrap(mapyruserr.Io, err, "read text dataset header")
	}
	return &textDataset{r: r, closer: rc, header: header}, nil
}

func (d *textDataset) FieldNames() []string { return d.header }

func (d *textDataset) Fetch() (interp.Row, error) {
	rec, err := d.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, mapyruserr.Wrap(mapyruserr.Io, err, "fetch text dataset row")
	}
	row := make(interp.Row, len(rec))
	for i, f := range rec {
		if n, err := strconv.ParseFloat(f, 64); err == nil {
			row[i] = value.Number(n)
		} else {
			row[i] = value.String(f)
		}
	}
	return row, nil
}

func (d *textDataset) Close() error { return d.closer.Close() }
