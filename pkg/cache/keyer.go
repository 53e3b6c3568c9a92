package cache

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey keys a backend response by namespace and request.
	HTTPKey(namespace, key string) string

	// LayoutKey keys a computed layout by description hash and options.
	LayoutKey(descHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts are the layout inputs besides the description.
type LayoutKeyOpts struct {
	Engine    string  `json:"engine"`
	Direction string  `json:"direction"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	NodeSep   float64 `json:"nodesep"`
	RankSep   float64 `json:"ranksep"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:{namespace}:{key}".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// LayoutKey returns "layout:{sha256(descHash, opts)}".
func (DefaultKeyer) LayoutKey(descHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", descHash, opts)
}
