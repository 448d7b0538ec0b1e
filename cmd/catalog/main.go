// Command catalog serves the product catalog storefront and offers a terminal listing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command.
func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Product catalog storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Serves the product catalog (filter, sort, show more) over HTTP
and lists the same pipeline result from the terminal.

Products come from GET {CATALOG_SERVER_URL}/products, or from
CATALOG_FIXTURE when no server URL is set.`,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with local overrides (empty disables)")

	root.AddCommand(newServeCmd(&envFile))
	root.AddCommand(newListCmd(&envFile))
	return root
}
