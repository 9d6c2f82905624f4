package cmd

import "github.com/spf13/cobra"

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail inspection tools",
	Long:  `Commands for verifying the hash-chained audit trail written by a running gateway.`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
