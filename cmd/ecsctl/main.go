// Command ecsctl synthesizes and deploys the ECS microservices stack.
//
// Usage:
//
//	ecsctl synth                  Print the resources the program declares
//	ecsctl graph -f mermaid       Draw their dependency graph
//	ecsctl preview --stack dev    Preview an update
//	ecsctl up --stack dev         Deploy
//	ecsctl destroy --stack dev    Tear down
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ecs-microservices/internal/logging"
)

type rootOptions struct {
	verbose  bool
	encoding string
	color    string
}

func main() {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:   "ecsctl",
		Short: "Synthesize and deploy the ECS microservices stack",
		Long: `ecsctl builds a client service and its gold and silver upstreams on
ECS Fargate, each behind its own load balancer, with a database instance in
a private subnet.

synth and graph run the program offline. preview, up, destroy and outputs
talk to the Pulumi backend; set ` + "ECS_MICROSERVICES_ORGANIZATION" + ` to pick the
organisation owning the stack.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.LogOpts{
				Verbose:  opts.verbose,
				Encoding: opts.encoding,
				Color:    opts.color,
			}.NewLogger()
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.encoding, "log-encoding", "console", "Log encoding: console or json")
	rootCmd.PersistentFlags().StringVar(&opts.color, "color", "auto", "Colored logs: auto, always or never")

	rootCmd.AddCommand(
		newSynthCmd(),
		newGraphCmd(),
		newPreviewCmd(),
		newUpCmd(),
		newDestroyCmd(),
		newOutputsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
