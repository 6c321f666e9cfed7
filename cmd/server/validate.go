package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/hall-runner/internal/services/strategy"
)

var validateCmd = &cobra.Command{
	Use:   "validate [strategy]",
	Short: "Parse a hall strategy and print its directives",
	Long: `Parse a strategy string the same way the server does. Examples:

  validate "5:空蓝|27:NPC|30:切换"
  validate "1:!(破甲式0人,{心眼式,灭情战意})"`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	parsed, err := strategy.Parse(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if parsed.IsEmpty() {
		fmt.Fprintln(out, "empty strategy: every floor passes through")
		return nil
	}

	fmt.Fprintf(out, "canonical: %s\n", strategy.Format(parsed))
	for _, d := range parsed.Directives {
		line := fmt.Sprintf("  floor %-3d %s", d.Floor, d.Target)
		if d.Skills != nil {
			line += fmt.Sprintf("  skills %s + {%s}", d.Skills.Primary, strings.Join(d.Skills.Support, ","))
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
