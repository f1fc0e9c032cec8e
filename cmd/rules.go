package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nilaware/nilify/internal"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the registered rewrite rules",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range internal.RuleNames() {
			fmt.Println(name)
		}
	},
}
