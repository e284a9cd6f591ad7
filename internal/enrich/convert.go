package enrich

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// timestamp layouts accepted from text columns, most specific first
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006", // slashed dates are month first
}

// textOf renders a driver value as text so join keys of different types
// compare equal (42, int64(42), 42.0 and "42" all give "42")
func textOf(v any) pgtype.Text {
	switch x := v.(type) {
	case nil:
		return pgtype.Text{}
	case string:
		return pgtype.Text{String: x, Valid: true}
	case []byte:
		return pgtype.Text{String: string(x), Valid: true}
	case pgtype.Text:
		return x
	case int:
		return pgtype.Text{String: strconv.Itoa(x), Valid: true}
	case int8:
		return pgtype.Text{String: strconv.FormatInt(int64(x), 10), Valid: true}
	case int16:
		return pgtype.Text{String: strconv.FormatInt(int64(x), 10), Valid: true}
	case int32:
		return pgtype.Text{String: strconv.FormatInt(int64(x), 10), Valid: true}
	case int64:
		return pgtype.Text{String: strconv.FormatInt(x, 10), Valid: true}
	case uint, uint8, uint16, uint32, uint64:
		n, _ := unsignedOf(x)
		return pgtype.Text{String: strconv.FormatUint(n, 10), Valid: true}
	case float32:
		return textOf(float64(x))
	case float64:
		if math.IsNaN(x) {
			return pgtype.Text{}
		}
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return pgtype.Text{String: strconv.FormatInt(int64(x), 10), Valid: true}
		}
		return pgtype.Text{String: strconv.FormatFloat(x, 'f', -1, 64), Valid: true}
	case bool:
		return pgtype.Text{String: strconv.FormatBool(x), Valid: true}
	case pgtype.Numeric:
		f := floatOf(x)
		if !f.Valid {
			return pgtype.Text{}
		}
		return textOf(f.Float64)
	case [16]byte:
		return pgtype.Text{String: uuid.UUID(x).String(), Valid: true}
	case time.Time:
		return pgtype.Text{String: x.UTC().Format(time.RFC3339Nano), Valid: true}
	default:
		return pgtype.Text{}
	}
}

// floatOf converts coordinates; anything unparseable is null
func floatOf(v any) pgtype.Float8 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint, uint8, uint16, uint32, uint64:
		n, _ := unsignedOf(x)
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return pgtype.Float8{}
		}
		f = parsed
	case pgtype.Numeric:
		fv, err := x.Float64Value()
		if err != nil || !fv.Valid {
			return pgtype.Float8{}
		}
		f = fv.Float64
	case pgtype.Float8:
		return x
	default:
		return pgtype.Float8{}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}

// timeOf parses a timestamp without failing: unparseable input is null
func timeOf(v any) pgtype.Timestamp {
	switch x := v.(type) {
	case time.Time:
		return pgtype.Timestamp{Time: x.UTC(), Valid: true}
	case pgtype.Timestamp:
		if x.InfinityModifier != pgtype.Finite {
			return pgtype.Timestamp{}
		}
		return x
	case pgtype.Timestamptz:
		if !x.Valid || x.InfinityModifier != pgtype.Finite {
			return pgtype.Timestamp{}
		}
		return pgtype.Timestamp{Time: x.Time.UTC(), Valid: true}
	case pgtype.Date:
		if !x.Valid || x.InfinityModifier != pgtype.Finite {
			return pgtype.Timestamp{}
		}
		return pgtype.Timestamp{Time: x.Time, Valid: true}
	case []byte:
		return timeOf(string(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return pgtype.Timestamp{}
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return pgtype.Timestamp{Time: t.UTC(), Valid: true}
			}
		}
		return pgtype.Timestamp{}
	default:
		return pgtype.Timestamp{}
	}
}

// intOf reads the presence indicator. Numbers of any width are
// truncated toward zero; NaN and unparseable text are not a number.
func intOf(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	case []byte:
		return intOf(string(x))
	}

	f := floatOf(v)
	return int(f.Float64), f.Valid
}

// unsignedOf widens any unsigned integer
func unsignedOf(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	default:
		return 0, false
	}
}
