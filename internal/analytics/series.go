package analytics

import "time"

// Column names one count series of a bucket.
type Column string

const (
	ColumnTotal   Column = "total"
	ColumnLocal   Column = "local"
	ColumnRemote  Column = "remote"
	ColumnBoth    Column = "both"
	ColumnUnknown Column = "unknown"
)

// Label returns the legend text for the column.
func (c Column) Label() string {
	switch c {
	case ColumnTotal:
		return "Total Servers"
	case ColumnLocal:
		return "Local Servers"
	case ColumnRemote:
		return "Remote Servers"
	case ColumnBoth:
		return "Both Types"
	case ColumnUnknown:
		return "Unknown"
	default:
		return string(c)
	}
}

// Value reads the column's count from b.
func (c Column) Value(b Bucket) int {
	switch c {
	case ColumnLocal:
		return b.LocalCount
	case ColumnRemote:
		return b.RemoteCount
	case ColumnBoth:
		return b.BothCount
	case ColumnUnknown:
		return b.UnknownCount
	default:
		return b.TotalCount
	}
}

// Columns returns the series displayed for a filter. Unrecognized filters
// fall back to the total series.
func Columns(filter FilterState) []Column {
	switch filter {
	case FilterShowAll:
		return []Column{ColumnTotal, ColumnLocal, ColumnRemote, ColumnBoth, ColumnUnknown}
	case FilterLocal:
		return []Column{ColumnLocal}
	case FilterRemote:
		return []Column{ColumnRemote}
	default:
		return []Column{ColumnTotal}
	}
}

// AxisLabel formats a period start for display at the given granularity,
// in loc (nil means time.Local).
func AxisLabel(t time.Time, granularity Granularity, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)

	switch granularity {
	case Hourly:
		return t.Format("15:04")
	case Monthly:
		return t.Format("Jan 2006")
	default:
		return t.Format("Jan 2")
	}
}
