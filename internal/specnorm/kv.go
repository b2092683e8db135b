package specnorm

import "strings"

// KV is one entry of an ordered key/value list.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (kv KV) String() string { return kv.Key + "=" + kv.Value }

// FromMap converts a map into a key-sorted list. Go map iteration order is
// randomized, so anything fingerprinted or emitted goes through here first.
func FromMap(m map[string]string) []KV {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortStrings(keys)
	out := make([]KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, KV{Key: k, Value: m[k]})
	}
	return out
}

// Lines renders K=V lines in list order.
func Lines(kvs []KV) []string {
	out := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, kv.String())
	}
	return out
}

// Lookup returns the value of the first entry whose key equals key.
func Lookup(kvs []KV, key string) (string, bool) {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Join is strings.Join over Lines.
func Join(kvs []KV, sep string) string { return strings.Join(Lines(kvs), sep) }
