package library

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/shaderflow/shaderflow/pkg/errors"
)

// manifest is the on-disk shape of a TOML definition file:
//
//	[[node]]
//	id = "invert"
//	label = "Invert"
//	body = """..."""
type manifest struct {
	Nodes []Definition `toml:"node"`
}

// LoadDir reads every *.toml manifest in dir and returns the validated
// definitions sorted by id. A duplicate id across files is an error.
func LoadDir(dir string) ([]Definition, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "scan manifest dir %s", dir)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest dir %s", dir)
	}

	var defs []Definition
	seen := make(map[string]string)
	for _, path := range paths {
		var m manifest
		if _, err := toml.DecodeFile(path, &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
		}
		for _, d := range m.Nodes {
			if err := d.Validate(); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s", path)
			}
			if prev, ok := seen[d.ID]; ok {
				return nil, errors.New(errors.ErrCodeInvalidManifest,
					"definition %q in %s already defined in %s", d.ID, path, prev)
			}
			seen[d.ID] = path
			defs = append(defs, d)
		}
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}
