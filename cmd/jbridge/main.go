package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "jbridge",
		Short: "Inspect JVM class metadata and overload dispatch",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbosity, nil)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newMethodsCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newPackagesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
