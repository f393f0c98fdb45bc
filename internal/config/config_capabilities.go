package config

import (
	"time"

	"github.com/LuperIQ/sentinel/internal/capability"
)

// CapabilitiesConfig is the `[capabilities]` section: the on-disk form
// of the process-wide Grant. CommandTimeout of zero (or unset) means
// disabled, not immediate kill, matching internal/tool's run_command
// contract.
type CapabilitiesConfig struct {
	ReadPaths      []string `yaml:"read_paths"`
	WritePaths     []string `yaml:"write_paths"`
	Commands       []string `yaml:"commands"`
	NetEndpoints   []string `yaml:"net_endpoints"`
	CommandTimeout string   `yaml:"command_timeout"`
}

// Grant converts the on-disk capabilities section into a
// capability.Grant, folding in the allowed_users list from the
// security section since the two together form the runtime Grant.
func (c *CapabilitiesConfig) Grant(allowedUsers []string) (capability.Grant, error) {
	timeout, err := c.parseTimeout()
	if err != nil {
		return capability.Grant{}, err
	}
	return capability.Grant{
		ReadPaths:      c.ReadPaths,
		WritePaths:     c.WritePaths,
		Commands:       c.Commands,
		NetEndpoints:   c.NetEndpoints,
		AllowedUsers:   allowedUsers,
		CommandTimeout: timeout,
	}, nil
}

func (c *CapabilitiesConfig) parseTimeout() (time.Duration, error) {
	if c.CommandTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.CommandTimeout)
	if err != nil {
		return 0, newError("capabilities.command_timeout", "invalid duration", err)
	}
	return d, nil
}
