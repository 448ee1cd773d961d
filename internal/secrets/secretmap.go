// Package secrets merges credentials from a remote credential store and
// local dotenv overrides into a single map, and renders that map back out
// as dotenv files for the report scripts.
package secrets

import (
	"fmt"
	"sort"
)

// AllowList restricts which keys are admitted from any source.
// A nil AllowList admits every key.
type AllowList map[string]struct{}

// NewAllowList builds an AllowList from key names. The result is never
// nil, so an empty call yields a list that admits nothing; callers who
// want to admit everything pass a nil AllowList instead.
func NewAllowList(keys ...string) AllowList {
	al := make(AllowList, len(keys))
	for _, k := range keys {
		al[k] = struct{}{}
	}
	return al
}

// Allows reports whether key is admitted. Nil admits everything.
func (al AllowList) Allows(key string) bool {
	if al == nil {
		return true
	}
	_, ok := al[key]
	return ok
}

// SecretMap is an insertion-ordered mapping of secret names to values.
// Formatting one (%v, %s, %#v) yields an opaque handle, never contents,
// so a SecretMap can appear in log and error messages without leaking.
type SecretMap struct {
	keys   []string
	values map[string]string
}

// NewSecretMap creates an empty SecretMap
func NewSecretMap() *SecretMap {
	return &SecretMap{values: make(map[string]string)}
}

// Get returns the value for key and whether it is present
func (m *SecretMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key. A key keeps the position of its first
// insertion when its value is overridden later.
func (m *SecretMap) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Len returns the number of entries
func (m *SecretMap) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order
func (m *SecretMap) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Export returns a plain copy of the entries. Callers own the copy and are
// responsible for not logging it.
func (m *SecretMap) Export() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Merge copies the entries of src that pass the allow list into the map,
// overriding existing values on key collision. Source keys are merged in
// sorted order so results are deterministic regardless of map iteration.
func (m *SecretMap) Merge(src map[string]string, allowed AllowList) {
	keys := make([]string, 0, len(src))
	for k := range src {
		if allowed.Allows(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.Set(k, src[k])
	}
}

// String implements Stringer with an opaque handle
func (m *SecretMap) String() string {
	return fmt.Sprintf("<secrets.SecretMap at %p>", m)
}

// GoString implements GoStringer for %#v formatting
func (m *SecretMap) GoString() string {
	return m.String()
}
