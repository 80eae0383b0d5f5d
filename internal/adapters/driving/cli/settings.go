package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vault-rag/internal/config"
)

// flagKey binds a command flag to a configuration key.
type flagKey struct {
	flag string
	key  string
}

// loadSettings resolves settings for cmd. Flags listed in bindings override
// the environment only when set on the command line.
func loadSettings(cmd *cobra.Command, bindings ...flagKey) (*config.Settings, error) {
	if err := config.LoadEnvFiles(envFile, localEnvFile); err != nil {
		return nil, err
	}

	v := config.NewViper()
	for _, b := range bindings {
		flag := cmd.Flags().Lookup(b.flag)
		if flag == nil {
			return nil, fmt.Errorf("unknown flag %q", b.flag)
		}
		if !flag.Changed {
			continue
		}
		if err := v.BindPFlag(b.key, flag); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", b.flag, err)
		}
	}

	settings := config.FromViper(v)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
