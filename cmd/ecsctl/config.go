package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ecs-microservices/internal/infra"
)

// stackFlags are shared by every command that runs the program.
type stackFlags struct {
	stack  string
	region string
	config []string
}

func (f *stackFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.stack, "stack", "s", "dev", "Stack name")
	cmd.Flags().StringVar(&f.region, "region", "", "AWS region (default from stack configuration)")
	cmd.Flags().StringArrayVarP(&f.config, "config", "c", nil, "Stack configuration as key=value, may be repeated")
}

// configMap parses the key=value flags. Keys without a namespace belong to
// the project.
func (f *stackFlags) configMap() (map[string]string, error) {
	cfg := map[string]string{}
	for _, kv := range f.config {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid config %q, expected key=value", kv)
		}
		if !strings.Contains(k, ":") {
			k = infra.ProjectName + ":" + k
		}
		cfg[k] = v
	}
	if f.region != "" {
		cfg["aws:region"] = f.region
	}
	return cfg, nil
}
