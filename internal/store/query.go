package store

import (
	"sort"
	"strings"
)

// Comparison operators accepted in a Where condition.
const (
	OpEqual          = "=="
	OpNotEqual       = "!="
	OpLess           = "<"
	OpLessOrEqual    = "<="
	OpGreater        = ">"
	OpGreaterOrEqual = ">="
	OpIn             = "in"
	OpArrayContains  = "array-contains"
)

// Where is one field condition.
type Where struct {
	Field string
	Op    string
	Value any
}

// Query filters, orders and limits a collection scan.
type Query struct {
	Wheres  []Where
	OrderBy string
	Desc    bool
	Limit   int
}

// Eq is shorthand for a single equality condition.
func Eq(field string, value any) Where {
	return Where{Field: field, Op: OpEqual, Value: value}
}

// Matches reports whether fields satisfies every condition of q.
func (q Query) Matches(fields Record) bool {
	for _, w := range q.Wheres {
		if !w.matches(fields) {
			return false
		}
	}
	return true
}

// Apply filters, orders and truncates docs per q. The input is not modified.
func (q Query) Apply(docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if q.Matches(d.Fields) {
			out = append(out, d)
		}
	}
	if q.OrderBy != "" {
		field, desc := q.OrderBy, q.Desc
		sort.SliceStable(out, func(i, j int) bool {
			less := lessValues(out[i].Fields[field], out[j].Fields[field])
			if desc {
				return lessValues(out[j].Fields[field], out[i].Fields[field])
			}
			return less
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (w Where) matches(fields Record) bool {
	got := fields[w.Field]
	switch w.Op {
	case OpEqual:
		return equalValues(got, w.Value)
	case OpNotEqual:
		return !equalValues(got, w.Value)
	case OpLess:
		return lessValues(got, w.Value)
	case OpLessOrEqual:
		return lessValues(got, w.Value) || equalValues(got, w.Value)
	case OpGreater:
		return lessValues(w.Value, got)
	case OpGreaterOrEqual:
		return lessValues(w.Value, got) || equalValues(got, w.Value)
	case OpIn:
		list, ok := anyList(w.Value)
		return ok && containsValue(list, got)
	case OpArrayContains:
		list, ok := anyList(got)
		return ok && containsValue(list, w.Value)
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// value comparison
// ---------------------------------------------------------------------------

// equalValues compares two record values after normalising numerics to
// float64 (the type JSON decoding yields).
func equalValues(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}

// lessValues orders strings lexicographically and numbers numerically;
// mixed or non-orderable types compare as not-less.
func lessValues(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af < bf
		}
		return false
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs) < 0
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func anyList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}
