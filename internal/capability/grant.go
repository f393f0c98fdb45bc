// Package capability implements the process-wide capability grant and the
// checker that enforces it. A Grant is immutable for the lifetime of the
// process: there is no API to widen it at runtime, only to derive a
// narrower one for a skill subprocess.
package capability

import "time"

// Grant is the set of resources a process (or a skill subprocess derived
// from it) is permitted to touch. All path and command matching is done
// against canonicalized, absolute forms; see Checker.
type Grant struct {
	ReadPaths      []string
	WritePaths     []string
	Commands       []string
	NetEndpoints   []string
	AllowedUsers   []string
	CommandTimeout time.Duration
}

// Narrow returns the capability set a skill may run under: the
// intersection of what it declares it needs (required ∪ optional) and
// what this grant already allows. A skill can never gain a capability
// its host process doesn't have.
func (g Grant) Narrow(requiredCaps, optionalCaps []string) Grant {
	wanted := make(map[string]bool, len(requiredCaps)+len(optionalCaps))
	for _, c := range requiredCaps {
		wanted[c] = true
	}
	for _, c := range optionalCaps {
		wanted[c] = true
	}

	out := Grant{CommandTimeout: g.CommandTimeout}
	if wanted["read_paths"] {
		out.ReadPaths = append([]string(nil), g.ReadPaths...)
	}
	if wanted["write_paths"] {
		out.WritePaths = append([]string(nil), g.WritePaths...)
	}
	if wanted["commands"] {
		out.Commands = append([]string(nil), g.Commands...)
	}
	if wanted["net_endpoints"] {
		out.NetEndpoints = append([]string(nil), g.NetEndpoints...)
	}
	out.AllowedUsers = append([]string(nil), g.AllowedUsers...)
	return out
}

// Missing reports which of requiredCaps this grant does not hold, so a
// skill whose manifest demands more than the process allows can be
// rejected at discovery time instead of failing on first use.
func (g Grant) Missing(requiredCaps []string) []string {
	held := map[string]bool{}
	if len(g.ReadPaths) > 0 {
		held["read_paths"] = true
	}
	if len(g.WritePaths) > 0 {
		held["write_paths"] = true
	}
	if len(g.Commands) > 0 {
		held["commands"] = true
	}
	if len(g.NetEndpoints) > 0 {
		held["net_endpoints"] = true
	}

	var missing []string
	for _, c := range requiredCaps {
		if !held[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
