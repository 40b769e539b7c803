// Package codec implements the wire encodings of benchmark payloads.
package codec

import (
	"fmt"
	"sort"

	"github.com/bft-labs/rpmsgbench/internal/ports"
)

// DefaultName is the codec used when none is configured.
const DefaultName = "bincode"

var registry = map[string]func() ports.Codec{
	"bincode":   func() ports.Codec { return Bincode{} },
	"protowire": func() ports.Codec { return Protowire{} },
}

// ByName returns the codec registered under name.
func ByName(name string) (ports.Codec, error) {
	if name == "" {
		name = DefaultName
	}
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (available: %v)", name, Names())
	}
	return ctor(), nil
}

// Names lists registered codecs in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
