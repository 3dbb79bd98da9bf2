package passes

import (
	"sort"

	"github.com/pkg/errors"
)

var registry = map[string]Pass{
	"copyprop":  {Name: "copyprop", Fn: CopyPropagation},
	"deadcode":  {Name: "deadcode", Fn: DeadCode},
	"phicopies": {Name: "phicopies", Fn: PhiCopies},
}

// DefaultPipeline is run when no passes are configured.
var DefaultPipeline = []string{"copyprop", "deadcode"}

// Lookup returns the pass registered under name.
func Lookup(name string) (Pass, bool) {
	p, ok := registry[name]
	return p, ok
}

// Names returns the registered pass names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pipeline resolves pass names in order.
func Pipeline(names []string) ([]Pass, error) {
	passes := make([]Pass, 0, len(names))
	for _, name := range names {
		p, ok := Lookup(name)
		if !ok {
			return nil, errors.Errorf("unknown pass %q (available: %v)", name, Names())
		}
		passes = append(passes, p)
	}
	return passes, nil
}
