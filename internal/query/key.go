// Package query is the read side of intake's data layer: a keyed cache of
// fetch results with in-flight deduplication.
//
// Callers describe a request by a Key and a FetchFunc. Fetch answers from the
// cache when the key already holds a successful result, otherwise it runs
// the fetch once, however many callers are waiting on that key, and records
// the outcome. Retries never happen here.
package query

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Key identifies a cacheable request: a resource kind followed by scalar
// discriminators. A nil part, including a nil pointer, is an undefined
// discriminator. It still occupies its position, so ("patients", nil)
// differs from ("patients").
type Key struct {
	kind  string
	parts []any
	enc   string
}

// NewKey builds a key. Pointer parts are dereferenced.
func NewKey(kind string, parts ...any) Key {
	norm := make([]any, len(parts))
	for i, p := range parts {
		norm[i] = normalize(p)
	}
	k := Key{kind: kind, parts: norm}
	k.enc = encode(kind, norm)
	return k
}

func normalize(p any) any {
	if p == nil {
		return nil
	}
	v := reflect.ValueOf(p)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

func encode(kind string, parts []any) string {
	tuple := make([]any, 0, len(parts)+1)
	tuple = append(tuple, kind)
	tuple = append(tuple, parts...)
	b, err := json.Marshal(tuple)
	if err != nil {
		// Non-JSON parts still need a stable identity.
		return fmt.Sprintf("%#v", tuple)
	}
	return string(b)
}

// Kind returns the resource-kind tag.
func (k Key) Kind() string { return k.kind }

// Parts returns a copy of the discriminators.
func (k Key) Parts() []any {
	out := make([]any, len(k.parts))
	copy(out, k.parts)
	return out
}

// String is the canonical encoding, e.g. ["patients","h1",25,0,null,null].
func (k Key) String() string {
	if k.enc == "" {
		return encode(k.kind, k.parts)
	}
	return k.enc
}

// Equal reports whether both keys name the same request.
func (k Key) Equal(other Key) bool {
	return k.String() == other.String()
}
