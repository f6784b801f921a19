package handlers

import (
	"fmt"
	"time"
)

// fakeRow satisfies pgx.Row over a fixed value list.
type fakeRow struct {
	vals []any
	err  error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	if len(dest) != len(f.vals) {
		return fmt.Errorf("scan arity mismatch: %d dest, %d vals", len(dest), len(f.vals))
	}
	for i, d := range dest {
		if err := assign(d, f.vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func assign(dest, val any) error {
	switch d := dest.(type) {
	case *string:
		*d, _ = val.(string)
	case *bool:
		*d, _ = val.(bool)
	case *int:
		*d, _ = val.(int)
	case *int64:
		*d, _ = val.(int64)
	case *time.Time:
		*d, _ = val.(time.Time)
	case **time.Time:
		*d, _ = val.(*time.Time)
	case *[]byte:
		*d, _ = val.([]byte)
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}
	return nil
}
