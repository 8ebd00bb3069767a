package storage

import (
	"database/sql"
	"fmt"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	sqliteTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// nullTime scans a nullable timestamp into a *time.Time. Drivers that store
// timestamps as text (sqlite) are parsed with the common layouts.
type nullTime struct {
	dst **time.Time
}

func (n nullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n.dst = nil
		return nil
	case time.Time:
		*n.dst = &v
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("scan time: unsupported type %T", src)
	}
}

func (n nullTime) parse(s string) error {
	if s == "" {
		*n.dst = nil
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*n.dst = &t
			return nil
		}
	}
	return fmt.Errorf("scan time: cannot parse %q", s)
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func floatOrZero(n sql.NullFloat64) float64 {
	if !n.Valid {
		return 0
	}
	return n.Float64
}
