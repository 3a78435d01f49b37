package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Sena-ops/wpguard/internal/adapters"
	"github.com/Sena-ops/wpguard/internal/logging"
	"github.com/Sena-ops/wpguard/internal/report"
)

var (
	renderFormats []string
	renderCap     int
	renderOut     string
)

var renderCmd = &cobra.Command{
	Use:   "render <auditoria>",
	Short: "Gera Markdown/SARIF a partir de reports/<auditoria>.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv("")
		if err != nil {
			return err
		}
		cfg := env.Config
		dir := cfg.ReportsDir
		if renderOut != "" {
			dir = renderOut
		}
		rep, err := adapters.LoadReport(dir, args[0])
		if err != nil {
			return err
		}
		report.Summarize(rep, cfg.Grading)

		capN := renderCap
		if capN < 0 {
			capN = cfg.MarkdownCap
		}
		w := report.Writer{Dir: dir, Formats: renderFormats, Cap: capN, ToolName: "wpguard", ToolVersion: version}
		paths, err := w.Write(cmd.Context(), rep)
		if err != nil {
			return err
		}
		logging.Logger.Infow("Relatório renderizado", "auditoria", rep.Audit, "arquivos", paths)
		report.Console(os.Stdout, rep, paths)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringSliceVar(&renderFormats, "format", []string{"markdown"}, "Formatos: markdown,sarif")
	renderCmd.Flags().IntVar(&renderCap, "cap", -1, "Máximo de findings por categoria no Markdown")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "Diretório dos relatórios (padrão: reports)")
	rootCmd.AddCommand(renderCmd)
}
