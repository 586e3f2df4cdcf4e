package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set by -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func versionString() string {
	return fmt.Sprintf("nain %s (%s) %s/%s %s", Version, GitCommit, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
