package inputs

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// RawKey holds inputs that arrived as an unparseable string
const RawKey = "raw"

// Entry is one labelled input value
type Entry struct {
	Key   string
	Label string
	Value string
}

// Parse decodes a project's inputs into display entries. Objects keep their
// key order, with integer-like keys first in ascending order. A string is
// parsed as JSON; when that does not yield an object or array it is shown
// whole under RawKey.
func Parse(raw json.RawMessage) []Entry {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	switch raw[0] {
	case '{':
		return parseObject(raw)
	case '[':
		return parseArray(raw)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		inner := bytes.TrimSpace([]byte(s))
		if len(inner) > 0 && json.Valid(inner) {
			switch inner[0] {
			case '{':
				return parseObject(inner)
			case '[':
				return parseArray(inner)
			}
		}
		return []Entry{{Key: RawKey, Label: Label(RawKey), Value: s}}
	default:
		return nil
	}
}

func parseObject(raw []byte) []Entry {
	om := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, om); err != nil {
		return nil
	}

	var indexed, named []Entry
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		e := Entry{Key: pair.Key, Label: Label(pair.Key), Value: FormatValue(pair.Value)}
		if _, ok := arrayIndex(pair.Key); ok {
			indexed = append(indexed, e)
		} else {
			named = append(named, e)
		}
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		a, _ := arrayIndex(indexed[i].Key)
		b, _ := arrayIndex(indexed[j].Key)
		return a < b
	})
	return append(indexed, named...)
}

func parseArray(raw []byte) []Entry {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		key := strconv.Itoa(i)
		entries = append(entries, Entry{Key: key, Label: Label(key), Value: FormatValue(item)})
	}
	return entries
}

// arrayIndex reports whether key is a canonical non-negative integer
func arrayIndex(key string) (uint32, bool) {
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || strconv.FormatUint(n, 10) != key || n == math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

// FormatValue renders one input value: null as empty, strings as-is, objects
// and arrays pretty-printed with a two space indent
func FormatValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case 'n':
		return ""
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return string(raw)
		}
		return buf.String()
	case 't', 'f':
		return string(raw)
	default:
		return formatNumber(raw)
	}
}

func formatNumber(raw []byte) string {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return string(raw)
	}
	if abs := math.Abs(f); abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
