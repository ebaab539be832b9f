// Package persist serializes state trees to the durable snapshot format and
// restores them on startup.
//
// The snapshot is a single JSON document. Containers that JSON cannot express
// natively are wrapped:
//
//	{"__type": "Set", "values": ["a", "b"]}
//	{"__type": "Map", "entries": [["key", <value>], ...]}
//
// Integers decode as int, other numbers as float64.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/vicoolz/palimpseste/internal/tree"
)

const (
	typeKey    = "__type"
	typeSet    = "Set"
	typeMap    = "Map"
	valuesKey  = "values"
	entriesKey = "entries"
)

// ErrNotObject is returned when a snapshot's root is not a JSON object.
var ErrNotObject = errors.New("persist: snapshot root is not an object")

// Encode renders t as a snapshot document.
func Encode(t tree.Tree) ([]byte, error) {
	data, err := json.Marshal(wrap(t))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot document.
func Decode(data []byte) (tree.Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	out, err := revive(obj)
	if err != nil {
		return nil, err
	}
	return out.(tree.Tree), nil
}

func wrap(v any) any {
	switch val := v.(type) {
	case *tree.Set:
		values := val.Values()
		if values == nil {
			values = []string{}
		}
		return map[string]any{typeKey: typeSet, valuesKey: values}
	case *tree.OrderedMap:
		entries := make([][2]any, 0, val.Len())
		for _, e := range val.Entries() {
			entries = append(entries, [2]any{e.Key, wrap(e.Value)})
		}
		return map[string]any{typeKey: typeMap, entriesKey: entries}
	case tree.Tree:
		return wrapRecord(val)
	case map[string]any:
		return wrapRecord(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = wrap(item)
		}
		return out
	default:
		return v
	}
}

func wrapRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = wrap(v)
	}
	return out
}

func revive(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		switch val[typeKey] {
		case typeSet:
			return reviveSet(val)
		case typeMap:
			return reviveMap(val)
		}
		out := make(tree.Tree, len(val))
		for k, item := range val {
			r, err := revive(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			r, err := revive(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case json.Number:
		return reviveNumber(val)
	default:
		return v, nil
	}
}

func reviveSet(obj map[string]any) (any, error) {
	raw, ok := obj[valuesKey].([]any)
	if !ok {
		return nil, fmt.Errorf("set without values array")
	}
	values := make([]string, 0, len(raw))
	for _, item := range raw {
		switch s := item.(type) {
		case string:
			values = append(values, s)
		case json.Number:
			values = append(values, s.String())
		default:
			return nil, fmt.Errorf("set value %v is not a string", item)
		}
	}
	return tree.NewSet(values...), nil
}

func reviveMap(obj map[string]any) (any, error) {
	raw, ok := obj[entriesKey].([]any)
	if !ok {
		return nil, fmt.Errorf("map without entries array")
	}
	entries := make([]tree.Entry, 0, len(raw))
	for _, item := range raw {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("map entry %v is not a pair", item)
		}
		key, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("map key %v is not a string", pair[0])
		}
		value, err := revive(pair[1])
		if err != nil {
			return nil, fmt.Errorf("map entry %q: %w", key, err)
		}
		entries = append(entries, tree.Entry{Key: key, Value: value})
	}
	return tree.NewOrderedMap(entries...), nil
}

func reviveNumber(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("number %q: %w", n, err)
	}
	return f, nil
}
