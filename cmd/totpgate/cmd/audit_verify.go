package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relayauth/totpgate/internal/audit"
)

var verifyJSONOutput bool

var verifyCmd = &cobra.Command{
	Use:   "verify <audit.db>",
	Short: "Verify the integrity of an audit database's hash chain",
	Long: `Opens the bbolt-backed audit database written by "totpgate serve
--audit-db" and re-derives every chain link, reporting whether the trail
has been tampered with.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	auditCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyJSONOutput, "json", false, "output the result as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]

	store, err := audit.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open audit database: %v\n", err)
		os.Exit(2)
	}
	defer store.Close()

	entries, err := store.All()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read entries: %v\n", err)
		os.Exit(2)
	}

	result := audit.VerifyChain(entries)

	if verifyJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	} else {
		printHumanResult(path, result)
	}

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

func printHumanResult(path string, result audit.VerifyResult) {
	fmt.Printf("Audit chain verification: %s\n", path)
	fmt.Printf("Entries: %d\n\n", result.EntryCount)

	for _, c := range result.Checks {
		tag := "[PASS]"
		if c.Status == audit.StatusFail {
			tag = "[FAIL]"
		}
		if c.Detail != "" {
			fmt.Printf("%s %s: %s\n", tag, c.Name, c.Detail)
		} else {
			fmt.Printf("%s %s\n", tag, c.Name)
		}
	}

	fmt.Println()
	if result.Valid {
		fmt.Println("Result: VALID")
		return
	}

	failures := 0
	for _, c := range result.Checks {
		if c.Status == audit.StatusFail {
			failures++
		}
	}
	fmt.Printf("Result: INVALID (%d error(s))\n", failures)
}
