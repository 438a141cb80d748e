// Command fusionctl feeds tool output into a fusion session over gRPC.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "fusionctl",
		Short:         "Import tool output into a fusion session and read its analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("server", "localhost:50051", "address of the fusion gRPC API")
	rootCmd.PersistentFlags().Duration("timeout", defaultTimeout, "per-call timeout")
	rootCmd.Version = version

	rootCmd.AddCommand(newCreateCmd(), newImportCmd(), newBulkCmd(), newAnalyticsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
