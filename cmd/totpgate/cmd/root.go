package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	listenAddr  string
	auditDBPath string
)

var rootCmd = &cobra.Command{
	Use:   "totpgate [config-file]",
	Short: "totpgate is a TOTP authentication gateway",
	Long: `totpgate sits behind a reverse proxy that supports subrequest-based
authorization: it answers /auth with 200 or 401, serves a /login form that
validates username, password, and TOTP code, and issues a signed session
cookie on success.

Called with a single config-file argument, totpgate serves it directly —
"totpgate config.yaml" and "totpgate serve config.yaml" are equivalent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runServe(cmd, args)
	},
}

// Execute runs the root command, exiting nonzero on any startup error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen", ":8080", "address to listen on")
	rootCmd.PersistentFlags().StringVar(&auditDBPath, "audit-db", "", "path to the hash-chained audit database (disabled if empty)")
}
