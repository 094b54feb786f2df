package store

import (
	"database/sql"
	"fmt"
	"time"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullInt64 maps an optional foreign key to a nullable column value.
func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func errDuplicate(what, value string) error {
	return fmt.Errorf("duplicate %s %q", what, value)
}
