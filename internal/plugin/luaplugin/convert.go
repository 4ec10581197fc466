package luaplugin

import (
	"encoding/json"
	"math"

	rt "github.com/arnodel/golua/runtime"
)

// maxDepth bounds conversion of nested tables, which may be cyclic.
const maxDepth = 32

// plainValue reduces v to maps, slices, strings, numbers and booleans.
func plainValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toLua(v any, depth int) rt.Value {
	if depth > maxDepth {
		return rt.NilValue
	}
	switch t := v.(type) {
	case nil:
		return rt.NilValue
	case string:
		return rt.StringValue(t)
	case bool:
		return rt.BoolValue(t)
	case int:
		return rt.IntValue(int64(t))
	case int64:
		return rt.IntValue(t)
	case uint64:
		if t > math.MaxInt64 {
			return rt.FloatValue(float64(t))
		}
		return rt.IntValue(int64(t))
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return rt.IntValue(int64(t))
		}
		return rt.FloatValue(t)
	case map[string]any:
		tbl := rt.NewTable()
		for k, e := range t {
			tbl.Set(rt.StringValue(k), toLua(e, depth+1))
		}
		return rt.TableValue(tbl)
	case []any:
		tbl := rt.NewTable()
		for i, e := range t {
			tbl.Set(rt.IntValue(int64(i+1)), toLua(e, depth+1))
		}
		return rt.TableValue(tbl)
	}
	plain, err := plainValue(v)
	if err != nil {
		return rt.NilValue
	}
	return toLua(plain, depth+1)
}

// fromLua converts a Lua value. Tables whose keys are exactly 1..n become
// slices; other tables become maps with non-string keys skipped.
func fromLua(v rt.Value, depth int) any {
	if depth > maxDepth {
		return nil
	}
	switch v.Type() {
	case rt.NilType:
		return nil
	case rt.BoolType:
		b, _ := v.TryBool()
		return b
	case rt.IntType:
		n, _ := v.TryInt()
		return n
	case rt.FloatType:
		f, _ := v.TryFloat()
		return f
	case rt.StringType:
		s, _ := v.TryString()
		return s
	case rt.TableType:
		tbl, _ := v.TryTable()
		return fromTable(tbl, depth)
	}
	return nil
}

func fromTable(tbl *rt.Table, depth int) any {
	m := make(map[string]any)
	indexed := make(map[int64]any)

	k := rt.NilValue
	for {
		next, val, ok := tbl.Next(k)
		if !ok || next == rt.NilValue {
			break
		}
		k = next

		switch next.Type() {
		case rt.StringType:
			s, _ := next.TryString()
			m[s] = fromLua(val, depth+1)
		case rt.IntType:
			n, _ := next.TryInt()
			indexed[n] = fromLua(val, depth+1)
		}
	}

	if len(m) > 0 || len(indexed) == 0 {
		return m
	}
	seq := make([]any, len(indexed))
	for i := range seq {
		e, ok := indexed[int64(i+1)]
		if !ok {
			return m
		}
		seq[i] = e
	}
	return seq
}
