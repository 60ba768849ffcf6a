package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the top-level CLI command.
var RootCmd = &cobra.Command{
	Use:   "cms",
	Short: "YEFOSR CMS operator CLI",
	Long:  "Command line interface for the YEFOSR CMS admin API: audit logs, retention settings and archival.",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// GetRoot returns the root command for subcommand registration.
func GetRoot() *cobra.Command {
	return RootCmd
}
