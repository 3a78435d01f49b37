package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sena-ops/wpguard/internal/contrast"
	"github.com/Sena-ops/wpguard/internal/rules"
	"github.com/Sena-ops/wpguard/internal/scanner"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lista as auditorias disponíveis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv("")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range scanner.Names(env.Rules) {
			title := ""
			if t, ok := env.Rules.Table(name); ok {
				title = t.Title
			}
			fmt.Fprintf(out, "%-18s %s\n", name, title)
		}
		return nil
	},
}

var largeText bool

var contrastCmd = &cobra.Command{
	Use:   "contrast <frente> <fundo>",
	Short: "Calcula a razão de contraste WCAG entre duas cores hex",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ratio, err := contrast.ContrastRatio(args[0], args[1])
		if err != nil {
			return err
		}
		required := contrast.RequiredRatio(largeText)
		aaa := contrast.AAA
		if largeText {
			aaa = contrast.AANormal
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Contraste: %.2f:1\n", ratio)
		fmt.Fprintf(out, "AA  (%.1f:1): %s\n", required, passFail(ratio >= required))
		fmt.Fprintf(out, "AAA (%.1f:1): %s\n", aaa, passFail(ratio >= aaa))
		return nil
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules [auditoria]",
	Short: "Lista as regras declarativas (embutidas e do arquivo do usuário)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv("")
		if err != nil {
			return err
		}
		audits := env.Rules.Audits()
		if len(args) == 1 {
			if _, ok := env.Rules.Table(args[0]); !ok {
				return fmt.Errorf("%w: '%s'", scanner.ErrUnknownAudit, args[0])
			}
			audits = []string{args[0]}
		}
		out := cmd.OutOrStdout()
		for _, a := range audits {
			t, _ := env.Rules.Table(a)
			fmt.Fprintf(out, "%s - %s\n", t.Audit, t.Title)
			for _, c := range t.Categories {
				printCategory(cmd, c)
			}
		}
		return nil
	},
}

func printCategory(cmd *cobra.Command, c rules.Category) {
	out := cmd.OutOrStdout()
	if len(c.Rules) == 0 {
		fmt.Fprintf(out, "  %s (verificação estrutural)\n", c.ID)
		return
	}
	fmt.Fprintf(out, "  %s [%s]\n", c.ID, strings.Join(c.Kinds, ","))
	for _, r := range c.Rules {
		fmt.Fprintf(out, "    %-28s %-9s %s\n", r.ID, r.Severity, r.Message)
	}
}

func passFail(ok bool) string {
	if ok {
		return "passa"
	}
	return "falha"
}

func init() {
	contrastCmd.Flags().BoolVar(&largeText, "large", false, "Texto grande (>= 18px, ou >= 14px em negrito)")
	rootCmd.AddCommand(listCmd, contrastCmd, rulesCmd)
}
