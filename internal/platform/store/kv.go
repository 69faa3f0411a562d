package store

import "context"

// Namespace scopes every key of kv under prefix; visitor state uses "visitor:<id>:"
func Namespace(kv KV, prefix string) KV {
	if prefix == "" {
		return kv
	}
	return namespaced{kv: kv, prefix: prefix}
}

type namespaced struct {
	kv     KV
	prefix string
}

func (n namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.kv.Get(ctx, n.prefix+key)
}

func (n namespaced) Set(ctx context.Context, key, value string) error {
	return n.kv.Set(ctx, n.prefix+key, value)
}
