// Package recipient maps original envelope recipients to forward targets.
package recipient

import (
	"slices"
	"strings"
)

// Resolve returns the deduplicated forward targets for the original
// recipients. Each recipient is lower-cased and looked up by exact address
// first, then by the domain after its last "@". Recipients matching neither
// contribute nothing. The result is sorted; an empty result means the message
// should be dropped.
func Resolve(original []string, mapping map[string][]string) []string {
	var targets []string
	for _, r := range original {
		addr := strings.ToLower(r)
		if dest, ok := mapping[addr]; ok {
			targets = append(targets, dest...)
			continue
		}
		if domain, ok := Domain(addr); ok {
			if dest, ok := mapping[domain]; ok {
				targets = append(targets, dest...)
			}
		}
	}

	slices.Sort(targets)
	return slices.Compact(targets)
}

// Domain returns the part of addr after its last "@".
func Domain(addr string) (string, bool) {
	i := strings.LastIndexByte(addr, '@')
	if i < 0 {
		return "", false
	}
	return addr[i+1:], true
}
