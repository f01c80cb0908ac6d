// Package tags normalizes per-format tag maps into the canonical output schema:
// fixed key ordering, composite "N/M" splitting and per-format type coercion.
package tags

import (
	"strconv"
	"strings"

	"github.com/simonhull/metaspector/internal/types"
)

// Order returns a new Fields with the listed keys first, in list order,
// followed by the remaining keys in their original insertion order.
func Order(in *types.Fields, keys []string) *types.Fields {
	out := types.NewFields()
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if v, ok := in.Get(k); ok && !seen[k] {
			out.Set(k, v)
			seen[k] = true
		}
	}
	for _, k := range in.Keys() {
		if seen[k] {
			continue
		}
		v, _ := in.Get(k)
		out.Set(k, v)
	}
	return out
}

// SplitComposite parses a "N/M" track or disc string.
//
// Returns ok=false when the number part is not an integer (MalformedComposite);
// callers then store the raw string. total is "" when there is no "/M" part.
func SplitComposite(s string) (num int, total string, ok bool) {
	s = strings.TrimSpace(s)
	numPart, totalPart, hasTotal := strings.Cut(s, "/")
	n, err := strconv.Atoi(strings.TrimSpace(numPart))
	if err != nil {
		return 0, "", false
	}
	if hasTotal {
		total = strings.TrimSpace(totalPart)
	}
	return n, total, true
}

// SetNumberPair stores a track/disc value under numberKey, splitting a
// composite "N/M" into numberKey (int) and totalKey (string).
// Non-numeric input is stored unchanged.
func SetNumberPair(f *types.Fields, numberKey, totalKey, value string) {
	n, total, ok := SplitComposite(value)
	if !ok {
		f.Set(numberKey, value)
		return
	}
	f.Set(numberKey, n)
	if total != "" {
		f.Set(totalKey, total)
	}
}

// TotalStyle selects the emitted type of track_total and disc_total.
type TotalStyle int

const (
	// TotalsAsInt emits totals as integers (MP4).
	TotalsAsInt TotalStyle = iota
	// TotalsAsString emits totals as strings (FLAC, MP3).
	TotalsAsString
)

// CoerceTotals converts track_total and disc_total to the given style.
// Values that cannot be converted to an int are left as they are.
func CoerceTotals(f *types.Fields, style TotalStyle) {
	for _, key := range []string{"track_total", "disc_total"} {
		v, ok := f.Get(key)
		if !ok {
			continue
		}
		switch style {
		case TotalsAsInt:
			if n, ok := ToInt(v); ok {
				f.Set(key, n)
			}
		case TotalsAsString:
			f.Set(key, ToString(v))
		}
	}
}

// ToInt converts an integer or a numeric string.
func ToInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint32:
		return int(x), true
	case uint64:
		return int(x), true
	case float64:
		return int(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// ToString renders a scalar as a string.
func ToString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case nil:
		return ""
	}
	return ""
}

// Tempo parses a BPM value such as "120" or "119.6" into an int.
func Tempo(v any) (int, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return int(f), true
	}
	return ToInt(v)
}

// DropEmpty removes keys whose value is nil or "", except the listed ones.
func DropEmpty(f *types.Fields, keep ...string) {
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}
	for _, k := range f.Keys() {
		if kept[k] {
			continue
		}
		v, _ := f.Get(k)
		if v == nil {
			f.Delete(k)
		} else if s, ok := v.(string); ok && s == "" {
			f.Delete(k)
		}
	}
}

// Advisory normalizes an iTunes advisory value to "0" (clean) or "1"
// (explicit). 0 and 2 are clean, 1 and 4 explicit; other values are
// rendered as they are.
func Advisory(v any) string {
	n, ok := ToInt(v)
	if !ok {
		return ToString(v)
	}
	switch n {
	case 0, 2:
		return "0"
	case 1, 4:
		return "1"
	}
	return strconv.Itoa(n)
}
