package action

import (
	"fmt"
	"math"
	"time"
)

// row positions in the action table, as returned by "SELECT * FROM action"
const (
	colID = iota
	colDesc
	colEstDuration
	colActualDuration
	colStart
	rowLen
)

// FromRow makes Action from a stored (id, desc, est_duration, actual_duration, start_datetime) row.
// Only description and estimated duration are restored, start and actual duration stay unset.
func FromRow(row []any) (Action, error) {
	if len(row) != rowLen {
		return Action{}, fmt.Errorf("action row has %d columns, expected %d", len(row), rowLen)
	}

	var res Action
	switch v := row[colDesc].(type) {
	case string:
		res.Desc = v
	case []byte:
		res.Desc = string(v)
	default:
		return Action{}, fmt.Errorf("unexpected description type %T", row[colDesc])
	}

	est, err := DurationFromSeconds(row[colEstDuration])
	if err != nil {
		return Action{}, fmt.Errorf("bad estimated duration for %q: %w", res.Desc, err)
	}
	res.estDuration = est
	return res, nil
}

// Seconds converts duration to the stored form, whole seconds with the fraction dropped.
// Returns nil for unset duration, including anything under a second, so it can be passed
// as a query argument directly.
func Seconds(d time.Duration) any {
	secs := int64(d / time.Second)
	if secs == 0 {
		return nil
	}
	return secs
}

// DurationFromSeconds converts a stored seconds value back to duration.
// nil gives zero duration, integer and float values are accepted.
func DurationFromSeconds(v any) (time.Duration, error) {
	switch s := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return time.Duration(s) * time.Second, nil
	case int:
		return time.Duration(s) * time.Second, nil
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return 0, fmt.Errorf("invalid seconds value %v", s)
		}
		return time.Duration(s * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unexpected seconds type %T", v)
	}
}
