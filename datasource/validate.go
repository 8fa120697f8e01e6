package datasource

import (
	"errors"
	"fmt"
	"math"
)

// Validate checks that t has an integer timestamp column followed by numeric
// series columns. Empty and closed tables pass, since they simply render as
// an empty chart.
func Validate(t Table) error {
	err := t.View(ValidateRows)
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// ValidateRows applies the checks of Validate to every row of a view. Null
// series cells are accepted and read as zero. NaN and infinite values are
// rejected.
func ValidateRows(rows Rows) error {
	if rows.Len() == 0 {
		return nil
	}
	columns := rows.Columns()
	if len(columns) < 2 {
		return fmt.Errorf("need a timestamp column and at least one series, got %d columns: %w", len(columns), ErrSchema)
	}
	for r := 0; r < rows.Len(); r++ {
		if typ := rows.Type(r, 0); typ != Integer {
			return fmt.Errorf("row %d: timestamp column %q holds %s: %w", r, columns[0], typ, ErrSchema)
		}
		for c := 1; c < len(columns); c++ {
			switch typ := rows.Type(r, c); typ {
			case Integer, Null:
			case Float:
				if v, err := rows.Float64(r, c); err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("row %d: series column %q holds non-finite value %v: %w", r, columns[c], v, ErrSchema)
				}
			default:
				return fmt.Errorf("row %d: series column %q holds %s: %w", r, columns[c], typ, ErrSchema)
			}
		}
	}
	return nil
}
