package prefs

// Typed front end over the tagged-variant store. One generic function
// per operation replaces the four near-identical per-type APIs this
// kind of store tends to grow.

// kindOf maps a scalar to its Kind and wraps it as a Value.
func kindOf[T Scalar](v T) Value {
	switch x := any(v).(type) {
	case bool:
		return Value{Kind: KindBool, Bool: x}
	case int:
		return Value{Kind: KindInt, Int: x}
	case float64:
		return Value{Kind: KindFloat, Float: x}
	case string:
		return Value{Kind: KindString, String: x}
	default:
		// unreachable: Scalar admits exactly the four cases above
		return Value{}
	}
}

func unwrap[T Scalar](v Value) T {
	var out T
	switch any(out).(type) {
	case bool:
		out = any(v.Bool).(T)
	case int:
		out = any(v.Int).(T)
	case float64:
		out = any(v.Float).(T)
	case string:
		out = any(v.String).(T)
	}
	return out
}

// Get returns the stored value for key in the kind matching T. On a
// miss it inserts def, persists immediately, and returns def. A nil
// store returns def without side effects.
func Get[T Scalar](s *Store, key string, def T) T {
	if s == nil {
		return def
	}
	wrapped := kindOf(def)
	return unwrap[T](s.GetValue(wrapped.Kind, key, wrapped))
}

// Set upserts key in the kind matching T. The record is persisted
// immediately when forceSave is set; otherwise the write stays
// in memory until the next Save (or insert-on-miss Get).
func Set[T Scalar](s *Store, key string, v T, forceSave bool) error {
	return s.SetValue(key, kindOf(v), forceSave)
}

// Remove deletes key from the kind matching T only. Reports whether a
// deletion occurred; never persists.
func Remove[T Scalar](s *Store, key string) bool {
	var zero T
	return s.Remove(kindOf(zero).Kind, key)
}
