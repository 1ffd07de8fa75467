package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"constcheck/internal/diagfmt"
)

var explainCmd = &cobra.Command{
	Use:   "explain <CODE>",
	Short: "Show a detailed explanation for a diagnostic code",
	Long:  "Print the long-form explanation for a diagnostic code such as CHK3001.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	code := args[0]
	text, ok := diagfmt.Explain(code)
	if !ok {
		return fmt.Errorf("no extended explanation for %q", code)
	}

	out := cmd.OutOrStdout()
	if useColor(cmd) {
		heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
		fmt.Fprintln(out, heading.Render(code))
	} else {
		fmt.Fprintln(out, code)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, text)
	return nil
}
