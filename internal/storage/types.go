package storage

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"saldo/internal/core"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

// dbDate maps core.Date to a DATE column (TEXT on SQLite). Empty dates
// are NULL.
type dbDate struct {
	d *core.Date
}

func (v dbDate) Value() (driver.Value, error) {
	if v.d == nil || v.d.IsEmpty() {
		return nil, nil
	}
	return v.d.Format(dateLayout), nil
}

func (v dbDate) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		*v.d = core.Date{}
		return nil
	case time.Time:
		*v.d = core.DateOf(s)
		return nil
	case string:
		return v.parse(s)
	case []byte:
		return v.parse(string(s))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (v dbDate) parse(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	*v.d = d
	return nil
}

// dbTime stores instants in UTC with a fixed width so TEXT columns sort.
type dbTime struct {
	t *time.Time
}

func (v dbTime) Value() (driver.Value, error) {
	return v.t.UTC().Format(timestampLayout), nil
}

var timeLayouts = []string{
	timestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (v dbTime) Scan(src any) error {
	var s string
	switch x := src.(type) {
	case nil:
		*v.t = time.Time{}
		return nil
	case time.Time:
		*v.t = x.UTC()
		return nil
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*v.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: unrecognised format %q", s)
}

var (
	_ sql.Scanner   = dbDate{}
	_ driver.Valuer = dbDate{}
	_ sql.Scanner   = dbTime{}
	_ driver.Valuer = dbTime{}
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// isForeignKeyViolation recognises referential failures of both drivers.
func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// mapDeleteError turns a foreign key failure on delete into a conflict.
func mapDeleteError(err error, entity, id string) error {
	if isForeignKeyViolation(err) {
		return core.Conflict(entity, id, core.ErrReferenced)
	}
	return err
}
