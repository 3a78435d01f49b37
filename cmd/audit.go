package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sena-ops/wpguard/internal/history"
	"github.com/Sena-ops/wpguard/internal/logging"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
	"github.com/Sena-ops/wpguard/internal/publish"
	"github.com/Sena-ops/wpguard/internal/report"
	"github.com/Sena-ops/wpguard/internal/scanner"
)

type auditOptions struct {
	formats   []string
	outDir    string
	cap       int
	failOn    string
	publish   bool
	history   bool
	threshold model.Severity
}

var auditOpts auditOptions

var auditCmd = &cobra.Command{
	Use:   "audit <nome|all> [raiz]",
	Short: "Roda uma auditoria (ou todas) e grava os relatórios",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv(rootArg(args, 1))
		if err != nil {
			return err
		}
		if err := auditOpts.apply(cmd, &env); err != nil {
			return err
		}
		names, err := selectAudits(env, args[0])
		if err != nil {
			return err
		}
		outcome, err := runAudits(cmd.Context(), env, names, auditOpts)
		runOutcome = model.Worse(runOutcome, outcome)
		return err
	},
}

func init() {
	addReportFlags(auditCmd, &auditOpts)
	rootCmd.AddCommand(auditCmd)
}

func addReportFlags(c *cobra.Command, o *auditOptions) {
	c.Flags().StringSliceVar(&o.formats, "format", nil, "Formatos de saída: json,markdown,sarif")
	c.Flags().StringVar(&o.outDir, "out", "", "Diretório dos relatórios (padrão: reports)")
	c.Flags().IntVar(&o.cap, "cap", -1, "Máximo de findings por categoria no Markdown")
	c.Flags().StringVar(&o.failOn, "fail-on", "", "Sai com código 4 se houver finding com esta severidade ou pior")
	c.Flags().BoolVar(&o.publish, "publish", false, "Envia os relatórios para o bucket S3 configurado")
	c.Flags().BoolVar(&o.history, "history", false, "Grava a execução no Postgres configurado")
}

// apply sobrepõe as flags à configuração carregada.
func (o *auditOptions) apply(cmd *cobra.Command, env *scanner.Env) error {
	cfg := &env.Config
	if len(o.formats) == 0 {
		o.formats = cfg.Formats
	}
	if o.outDir != "" {
		cfg.ReportsDir = o.outDir
	}
	if o.cap < 0 {
		o.cap = cfg.MarkdownCap
	}
	if o.failOn != "" {
		sev, err := model.ParseSeverity(o.failOn)
		if err != nil {
			return fmt.Errorf("--fail-on: %w", err)
		}
		o.threshold = sev
	}
	if !cmd.Flags().Changed("publish") {
		o.publish = cfg.Publish.Enabled
	}
	if !cmd.Flags().Changed("history") {
		o.history = cfg.History.Enabled
	}
	if o.publish && (cfg.Publish.Endpoint == "" || cfg.Publish.Bucket == "") {
		return errors.New("--publish exige publish.endpoint e publish.bucket")
	}
	if o.history && cfg.History.DatabaseURL == "" {
		return errors.New("--history exige history.database_url")
	}
	return nil
}

func selectAudits(env scanner.Env, name string) ([]string, error) {
	all := scanner.Names(env.Rules)
	if name == "all" {
		return all, nil
	}
	for _, n := range all {
		if n == name {
			return []string{name}, nil
		}
	}
	return nil, fmt.Errorf("%w: '%s' (disponíveis: %s)", scanner.ErrUnknownAudit, name, strings.Join(all, ", "))
}

// runAudits executa as auditorias em sequência. Uma pré-condição ausente numa
// auditoria não impede as demais; só erros internos interrompem.
func runAudits(ctx context.Context, env scanner.Env, names []string, opts auditOptions) (model.Outcome, error) {
	outcome := model.Success
	writer := report.Writer{
		Dir:         env.Config.ReportsDir,
		Formats:     opts.formats,
		Cap:         opts.cap,
		ToolName:    "wpguard",
		ToolVersion: version,
	}

	var store *history.Store
	if opts.history {
		s, err := history.Open(ctx, env.Config.History.DatabaseURL)
		if err != nil {
			return model.InternalError, err
		}
		defer s.Close()
		if err := s.EnsureSchema(ctx); err != nil {
			return model.InternalError, err
		}
		store = s
	}
	var uploader publish.Uploader
	if opts.publish {
		c, err := publish.New(env.Config.Publish)
		if err != nil {
			return model.InternalError, err
		}
		uploader = c
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		logging.Logger.Infow("Executando auditoria", "auditoria", name, "raiz", env.Config.Root)

		rep, err := scanner.Execute(name, env)
		if err != nil {
			if errors.Is(err, parser.ErrRootNotFound) {
				logging.Logger.Errorw("Pré-condição ausente", "auditoria", name, "erro", err)
				outcome = model.Worse(outcome, model.PreconditionFailed)
				continue
			}
			return model.Worse(outcome, model.InternalError), err
		}
		report.Summarize(rep, env.Config.Grading)

		if store != nil {
			if prev, err := store.Recent(ctx, name, 1); err == nil && len(prev) > 0 {
				logging.Logger.Infow("Execução anterior", "auditoria", name, "findings", prev[0].Total, "nota", prev[0].Grade)
			}
		}

		paths, err := writer.Write(ctx, rep)
		if err != nil {
			return model.Worse(outcome, model.InternalError), err
		}
		report.Console(os.Stdout, rep, paths)

		if len(rep.Warnings) > 0 {
			outcome = model.Worse(outcome, model.PartialWarnings)
		}
		if report.Exceeds(rep, opts.threshold) {
			logging.Logger.Warnw("Findings acima do limite", "auditoria", name, "limite", opts.threshold, "pior", rep.MaxSeverity())
			outcome = model.Worse(outcome, model.FindingsOverThreshold)
		}

		if uploader != nil {
			if _, err := publish.Publish(ctx, uploader, env.Config.Publish, rep.Audit, rep.RunID, paths); err != nil {
				return model.Worse(outcome, model.InternalError), err
			}
		}
		if store != nil {
			if err := store.Record(ctx, rep); err != nil {
				return model.Worse(outcome, model.InternalError), fmt.Errorf("history: %w", err)
			}
		}
	}
	return outcome, nil
}
