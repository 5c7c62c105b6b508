package cache

// compilePrefix namespaces compilation-result keys.
const compilePrefix = "compile"

// Keyer derives cache keys from a graph's structural hash plus the
// compile options that affect generated output.
type Keyer interface {
	CompileKey(graphHash string, arrayCapacity int) (string, error)
}

// DefaultKeyer hashes the graph hash and options into a namespaced key.
type DefaultKeyer struct{}

// CompileKey implements Keyer.
func (DefaultKeyer) CompileKey(graphHash string, arrayCapacity int) (string, error) {
	return hashKey(compilePrefix, graphHash, arrayCapacity)
}

// ScopedKeyer prefixes every key with a scope, isolating tenants that share
// one backend (e.g. one redis instance behind the compile service).
type ScopedKeyer struct {
	Scope string
	Inner Keyer
}

// CompileKey implements Keyer.
func (k ScopedKeyer) CompileKey(graphHash string, arrayCapacity int) (string, error) {
	inner := k.Inner
	if inner == nil {
		inner = DefaultKeyer{}
	}
	key, err := inner.CompileKey(graphHash, arrayCapacity)
	if err != nil {
		return "", err
	}
	return k.Scope + ":" + key, nil
}
