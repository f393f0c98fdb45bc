package capability

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/LuperIQ/sentinel/internal/audit"
)

// commandShellMetachars matches the shell metacharacters that could turn
// an allowlisted command into something else once the OS shell (or a
// naively-built argv) gets hold of it.
var commandShellMetachars = regexp.MustCompile(`[;&|` + "`" + `$<>]`)

// Result is the outcome of a capability check.
type Result struct {
	Allowed bool
	Reason  string
}

func allow() Result { return Result{Allowed: true} }

func deny(reason string) Result { return Result{Allowed: false, Reason: reason} }

// Checker enforces a Grant and records exactly one audit event for every
// decision it makes. On the general-purpose OS backend the checker is the
// enforcement mechanism; on a capability-microkernel backend it becomes a
// defense-in-depth layer on top of kernel-enforced isolation, but its
// contract — one event per check, fail closed on error — never changes.
type Checker struct {
	grant Grant
	sink  audit.Sink

	canonRead  []string
	canonWrite []string
}

// NewChecker canonicalizes the grant's path lists once at construction so
// the grant side of every subsequent check needs no filesystem round
// trip; only the requested path is resolved on each check.
func NewChecker(grant Grant, sink audit.Sink) *Checker {
	return &Checker{
		grant:      grant,
		sink:       sink,
		canonRead:  canonicalizeAll(grant.ReadPaths),
		canonWrite: canonicalizeAll(grant.WritePaths),
	}
}

func canonicalizeAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		c, err := canonicalize(p)
		if err != nil {
			// The prefix itself can't be resolved (e.g. configured
			// before the directory was created). Keep the lexical
			// form so it can still match; a real traversal attempt
			// still has to canonicalize to something under it.
			c = filepath.Clean(p)
		}
		out = append(out, c)
	}
	return out
}

// canonicalize resolves path to an absolute, symlink-free form. If the
// path (or any component of it) doesn't exist yet — the common case for a
// file a tool is about to create — it falls back to lexical resolution of
// "." and ".." against the working directory so the check still has
// something stable to compare against.
func canonicalize(path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	// Walk up to the nearest existing ancestor, resolve symlinks on
	// that ancestor, then reattach the non-existent suffix.
	dir := abs
	var suffix []string
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			for i := len(suffix) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, suffix[i])
			}
			return resolved, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		suffix = append(suffix, filepath.Base(dir))
		dir = parent
	}
	return filepath.Clean(abs), nil
}

// hasPrefix reports whether candidate is prefix itself or a strict
// descendant of it. A naive strings.HasPrefix would let "/data/foo_other"
// match a grant for "/data/foo"; requiring the separator boundary closes
// that hole.
func hasPrefix(candidate, prefix string) bool {
	if candidate == prefix {
		return true
	}
	sep := string(os.PathSeparator)
	return strings.HasPrefix(candidate, strings.TrimSuffix(prefix, sep)+sep)
}

func (c *Checker) emit(ev audit.Event) {
	if c.sink == nil {
		return
	}
	// Best-effort is not an option here: a failed write must not be
	// silently swallowed, but it also must not be allowed to turn an
	// audit outage into a way to suppress evidence of a denial. Errors
	// are surfaced to the caller via the return value of Write in
	// wiring that cares; the checker itself has nowhere else to put
	// them without changing every call site's signature.
	_ = c.sink.Write(ev)
}

// CheckRead reports whether path may be opened for reading.
func (c *Checker) CheckRead(path string) Result {
	return c.checkPath(path, c.canonRead, "read_paths", audit.KindCapabilityCheck)
}

// CheckWrite reports whether path may be opened for writing.
func (c *Checker) CheckWrite(path string) Result {
	return c.checkPath(path, c.canonWrite, "write_paths", audit.KindCapabilityCheck)
}

func (c *Checker) checkPath(path string, grantedPrefixes []string, capName string, kind audit.Kind) Result {
	var result Result

	if len(grantedPrefixes) == 0 {
		result = deny("no " + capName + " are granted")
	} else if candidate, err := canonicalize(path); err != nil {
		result = deny("internal_error")
	} else {
		result = deny(capName + ": " + path + " is outside the granted paths")
		for _, prefix := range grantedPrefixes {
			if hasPrefix(candidate, prefix) {
				result = allow()
				break
			}
		}
	}

	c.emit(audit.Event{
		Kind:       kind,
		Capability: capName,
		Resource:   path,
		Decision:   decisionOf(result),
		Reason:     result.Reason,
	})
	return result
}

// CheckCommand reports whether name may be spawned with args. name must
// be a bare basename: anything containing a path separator or a shell
// metacharacter is rejected outright, so a grant for "ls" can never be
// satisfied by "/tmp/evil/ls" or "ls;rm". Every argument that begins
// with "-" must itself appear in the commands allowlist verbatim, or
// the whole call is denied.
func (c *Checker) CheckCommand(name string, args []string) Result {
	var result Result

	switch {
	case len(c.grant.Commands) == 0:
		result = deny("no commands are granted")
	case strings.Contains(name, "/"):
		result = deny("command '" + name + "' must not contain a path separator")
	case commandShellMetachars.MatchString(name):
		result = deny("command '" + name + "' contains shell metacharacters")
	case filepath.Base(name) != name:
		result = deny("command '" + name + "' must be a bare name, not a path")
	default:
		result = deny("command '" + name + "' is not in the allowlist")
		for _, allowed := range c.grant.Commands {
			if allowed == name {
				result = allow()
				break
			}
		}
		if result.Allowed {
			if reason := c.checkArgs(args); reason != "" {
				result = deny(reason)
			}
		}
	}

	c.emit(audit.Event{
		Kind:       audit.KindCapabilityCheck,
		Capability: "commands",
		Resource:   name,
		Decision:   decisionOf(result),
		Reason:     result.Reason,
	})
	return result
}

// checkArgs rejects any flag-like argument that hasn't been explicitly
// allowlisted alongside the command itself, returning the deny reason
// or "" if every argument is clean.
func (c *Checker) checkArgs(args []string) string {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		if commandShellMetachars.MatchString(arg) {
			return "argument '" + arg + "' contains shell metacharacters"
		}
		allowed := false
		for _, a := range c.grant.Commands {
			if a == arg {
				allowed = true
				break
			}
		}
		if !allowed {
			return "argument '" + arg + "' is not explicitly allowlisted"
		}
	}
	return ""
}

// CheckNet reports whether endpoint (host:port or host) may be dialed.
func (c *Checker) CheckNet(endpoint string) Result {
	var result Result

	if len(c.grant.NetEndpoints) == 0 {
		result = deny("no net_endpoints are granted")
	} else {
		result = deny("endpoint '" + endpoint + "' is not in the allowlist")
		for _, allowed := range c.grant.NetEndpoints {
			if allowed == endpoint {
				result = allow()
				break
			}
		}
	}

	c.emit(audit.Event{
		Kind:       audit.KindCapabilityCheck,
		Capability: "net_endpoints",
		Resource:   endpoint,
		Decision:   decisionOf(result),
		Reason:     result.Reason,
	})
	return result
}

// CheckUser reports whether userID may interact with the agent at all.
// An empty allowlist means every user is allowed; the caller is
// responsible for warning at startup that this is wide open, since a
// platform's bot-token auth is the only remaining gate in that case.
func (c *Checker) CheckUser(userID string) Result {
	var result Result

	if len(c.grant.AllowedUsers) == 0 {
		result = allow()
	} else {
		result = deny("user '" + userID + "' is not in allowed_users")
		for _, allowed := range c.grant.AllowedUsers {
			if allowed == userID {
				result = allow()
				break
			}
		}
	}

	c.emit(audit.Event{
		Kind:       audit.KindCapabilityCheck,
		Capability: "allowed_users",
		Resource:   userID,
		Decision:   decisionOf(result),
		Reason:     result.Reason,
	})
	return result
}

// CommandTimeout returns the configured timeout for spawned commands and
// whether it is disabled. command_timeout=0 means no deadline is applied
// to spawned processes at all, matching the manager's zero-duration
// skip-the-context-deadline convention.
func (c *Checker) CommandTimeout() (timeout time.Duration, disabled bool) {
	return c.grant.CommandTimeout, c.grant.CommandTimeout == 0
}

func decisionOf(r Result) audit.Decision {
	if r.Allowed {
		return audit.Allowed
	}
	return audit.Denied
}
