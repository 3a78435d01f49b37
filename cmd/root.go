package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sena-ops/wpguard/internal/adapters"
	"github.com/Sena-ops/wpguard/internal/config"
	"github.com/Sena-ops/wpguard/internal/contrast"
	"github.com/Sena-ops/wpguard/internal/logging"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/parser"
	"github.com/Sena-ops/wpguard/internal/rules"
	"github.com/Sena-ops/wpguard/internal/scanner"
)

const version = "0.1.0"

var (
	configPath string
	debugMode  bool

	// outcome acumulado pelos comandos; vira o código de saída
	runOutcome = model.Success
)

var rootCmd = &cobra.Command{
	Use:           "wpguard",
	Short:         "wpguard - Auditoria estática de plugins WordPress",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.InitLogger(debugMode); err != nil {
			return fmt.Errorf("iniciando logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Arquivo de configuração YAML (padrão: <raiz>/.wpguard.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Habilita logs em nível debug")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	outcome := runOutcome
	if err != nil {
		outcome = model.Worse(outcome, classify(err))
		logging.Logger.Errorw("Falha", "erro", err)
		fmt.Fprintln(os.Stderr, "Erro:", err)
	}
	logging.Sync()
	os.Exit(outcome.ExitCode())
}

// classify mapeia erros sentinela para o outcome correspondente.
func classify(err error) model.Outcome {
	switch {
	case errors.Is(err, parser.ErrRootNotFound),
		errors.Is(err, adapters.ErrReportNotFound),
		errors.Is(err, contrast.ErrUnparseable),
		errors.Is(err, scanner.ErrUnknownAudit):
		return model.PreconditionFailed
	default:
		return model.InternalError
	}
}

// loadEnv resolve configuração e tabelas de regras para a raiz informada.
func loadEnv(root string) (scanner.Env, error) {
	cfg, err := config.Resolve(configPath, root)
	if err != nil {
		return scanner.Env{}, fmt.Errorf("configuração: %w", err)
	}
	if info, statErr := os.Stat(cfg.Root); statErr != nil || !info.IsDir() {
		return scanner.Env{}, fmt.Errorf("%w: raiz %s", parser.ErrRootNotFound, cfg.Root)
	}
	if abs, absErr := filepath.Abs(cfg.Root); absErr == nil {
		cfg.Root = abs
	}

	rulesFile := ""
	if cfg.RulesFile != "" {
		rulesFile = cfg.Path(cfg.RulesFile)
	}
	set, err := rules.Load(rulesFile)
	if err != nil {
		return scanner.Env{}, fmt.Errorf("regras: %w", err)
	}
	logging.Logger.Debugw("Configuração carregada", "raiz", cfg.Root, "relatorios", cfg.ReportsDir, "regras", rulesFile)
	return scanner.Env{Config: cfg, Rules: set}, nil
}

func rootArg(args []string, idx int) string {
	if len(args) > idx {
		return args[idx]
	}
	return ""
}
