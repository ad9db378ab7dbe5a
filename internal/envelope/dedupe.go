package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// Dedupe keeps the first occurrence of each item. Objects with an "id" are
// keyed by it; everything else by a fingerprint of its JSON encoding.
func Dedupe(items []any) []any {
	seen := make(map[string]struct{}, len(items))
	out := make([]any, 0, len(items))
	for _, item := range items {
		key := IdentityKey(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// IdentityKey returns the dedupe key of item. The type is part of the key so
// that 1 and "1" stay distinct.
func IdentityKey(item any) string {
	if r := AsRecord(item); r != nil {
		if id, ok := r["id"]; ok && id != nil {
			return fmt.Sprintf("id:%T:%v", id, id)
		}
	}
	return "fp:" + Fingerprint(item)
}

// Fingerprint is a blake3 digest of v's JSON encoding. encoding/json sorts map
// keys, so equal objects fingerprint equally regardless of key order.
func Fingerprint(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", v))
	}
	hasher := blake3.New()
	hasher.Write(data)
	return fmt.Sprintf("%x", hasher.Sum(nil))
}
