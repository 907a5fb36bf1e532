// Package prefs is a small file-backed preference store: four
// independent typed key spaces (bool, int, float, string) persisted
// together in one yaml record. The store is an explicit object handed
// to whoever needs it; there is no global singleton.
package prefs

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/SnapGo/internal/debug"
)

// Kind discriminates the four value spaces. The same key string may
// exist in several kinds at once with unrelated values.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a kind name ("bool", "int", "float", "string") back
// to its Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "bool":
		return KindBool, true
	case "int":
		return KindInt, true
	case "float":
		return KindFloat, true
	case "string":
		return KindString, true
	default:
		return 0, false
	}
}

// Value is the tagged variant stored per (kind, key) entry.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int
	Float  float64
	String string
}

// Interface returns the active variant as an untyped value.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	default:
		return v.String
	}
}

// Scalar is the set of storable preference types.
type Scalar interface {
	bool | int | float64 | string
}

type entryKey struct {
	kind Kind
	name string
}

// Store holds the preference record for one backing file.
// A nil *Store is valid: every operation degrades to a typed-default
// no-op, mirroring a record that could not be located or created.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[entryKey]Value
}

// record is the on-disk shape: four per-kind maps, kept human-editable
// the same way the app config file is.
type record struct {
	Bools   map[string]bool    `yaml:"bools,omitempty"`
	Ints    map[string]int     `yaml:"ints,omitempty"`
	Floats  map[string]float64 `yaml:"floats,omitempty"`
	Strings map[string]string  `yaml:"strings,omitempty"`
}

// Open loads an existing preference record.
func Open(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preference record: %w", err)
	}

	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal preference record: %w", err)
	}

	s := &Store{path: path, values: make(map[entryKey]Value)}
	for k, v := range rec.Bools {
		s.values[entryKey{KindBool, k}] = Value{Kind: KindBool, Bool: v}
	}
	for k, v := range rec.Ints {
		s.values[entryKey{KindInt, k}] = Value{Kind: KindInt, Int: v}
	}
	for k, v := range rec.Floats {
		s.values[entryKey{KindFloat, k}] = Value{Kind: KindFloat, Float: v}
	}
	for k, v := range rec.Strings {
		s.values[entryKey{KindString, k}] = Value{Kind: KindString, String: v}
	}
	return s, nil
}

// Create writes a new empty record at path and returns its store.
// The backing directory must already exist.
func Create(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[entryKey]Value)}
	if err := s.Save(); err != nil {
		return nil, fmt.Errorf("create preference record: %w", err)
	}
	debug.Info("Created preference record at %s", path)
	return s, nil
}

// OpenOrCreate loads the record at path, creating it first if no file
// exists.
func OpenOrCreate(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Create(path)
	}
	return Open(path)
}

// Path returns the backing file path, empty for a nil store.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Len returns the number of stored entries across all kinds.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// Save synchronously writes the whole record to the backing file.
// Last writer wins; partial-write protection is the filesystem's
// contract, not this package's.
func (s *Store) Save() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	rec := record{}
	for k, v := range s.values {
		switch k.kind {
		case KindBool:
			if rec.Bools == nil {
				rec.Bools = make(map[string]bool)
			}
			rec.Bools[k.name] = v.Bool
		case KindInt:
			if rec.Ints == nil {
				rec.Ints = make(map[string]int)
			}
			rec.Ints[k.name] = v.Int
		case KindFloat:
			if rec.Floats == nil {
				rec.Floats = make(map[string]float64)
			}
			rec.Floats[k.name] = v.Float
		case KindString:
			if rec.Strings == nil {
				rec.Strings = make(map[string]string)
			}
			rec.Strings[k.name] = v.String
		}
	}

	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("marshal preference record: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write preference record: %w", err)
	}
	return nil
}

// Lookup returns the stored value for (kind, key) and whether it was
// present. It never inserts.
func (s *Store) Lookup(kind Kind, key string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[entryKey{kind, key}]
	return v, ok
}

// SetValue upserts a value under its kind. The record is persisted
// immediately when forceSave is set.
func (s *Store) SetValue(key string, v Value, forceSave bool) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[entryKey{v.Kind, key}] = v
	if forceSave {
		return s.saveLocked()
	}
	return nil
}

// GetValue returns the stored value for (kind, key); on a miss it
// inserts def and persists the record immediately. The insert-on-miss
// save is unconditional: a read can flush writes a prior
// forceSave=false Set left pending.
func (s *Store) GetValue(kind Kind, key string, def Value) Value {
	if s == nil {
		return def
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.values[entryKey{kind, key}]; ok {
		return v
	}
	s.values[entryKey{kind, key}] = def
	if err := s.saveLocked(); err != nil {
		debug.Error(err)
	}
	return def
}

// Remove deletes the key from the given kind only; the same key string
// under any other kind is untouched. Returns whether a deletion
// occurred. Remove never persists: callers wanting durability must
// call Save explicitly.
func (s *Store) Remove(kind Kind, key string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := entryKey{kind, key}
	if _, ok := s.values[k]; !ok {
		return false
	}
	delete(s.values, k)
	return true
}
