package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/crosscheck/internal/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and validate review policies",
}

var policyShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print the effective policy",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := policy.Default()
		if len(args) == 1 {
			var err error
			if cfg, err = policy.Load(args[0]); err != nil {
				return err
			}
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var policyCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a policy file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := policy.Load(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
			return err
		}
		fmt.Println("OK")
		return nil
	},
}

func init() {
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyCheckCmd)
}
