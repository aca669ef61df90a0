package cache

// scopedKeyer prefixes every key of an inner Keyer.
type scopedKeyer struct {
	Keyer
	prefix string
}

// NewScopedKeyer returns a Keyer whose keys all start with prefix, so
// several deployments can share one Redis or MongoDB cache without reading
// each other's entries. A nil inner uses [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return scopedKeyer{Keyer: inner, prefix: prefix}
}

func (k scopedKeyer) CompletionKey(opts CompletionKeyOpts) string {
	return k.prefix + k.Keyer.CompletionKey(opts)
}

func (k scopedKeyer) DocumentKey(filename string, data []byte) string {
	return k.prefix + k.Keyer.DocumentKey(filename, data)
}
