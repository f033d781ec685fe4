package ledger

import "fmt"

// MalformedDateError reports a ledger cell whose date could not be parsed.
// One bad cell invalidates the whole load: Normalize returns the first
// failure and no records.
type MalformedDateError struct {
	Row   int // 1-based data row, excluding the header
	Field string
	Value string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("row %d: cannot parse %s value %q as a date", e.Row, e.Field, e.Value)
}
