package cmd

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sena-ops/wpguard/internal/logging"
	"github.com/Sena-ops/wpguard/internal/model"
	"github.com/Sena-ops/wpguard/internal/watch"
)

var watchOpts auditOptions

var watchCmd = &cobra.Command{
	Use:   "watch <nome|all> [raiz]",
	Short: "Roda a auditoria a cada mudança nos arquivos do plugin",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv(rootArg(args, 1))
		if err != nil {
			return err
		}
		if err := watchOpts.apply(cmd, &env); err != nil {
			return err
		}
		names, err := selectAudits(env, args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		run := func() {
			outcome, err := runAudits(ctx, env, names, watchOpts)
			if err != nil && ctx.Err() == nil {
				logging.Logger.Errorw("Execução falhou", "erro", err)
				return
			}
			if outcome != model.Success {
				logging.Logger.Infow("Execução concluída", "resultado", outcome.String())
			}
		}
		run()

		ignore := append([]string{filepath.Base(env.Config.ReportsDir)}, env.Config.Excludes...)
		w := watch.Watcher{
			Root:     env.Config.Root,
			Ignore:   ignore,
			Debounce: time.Duration(env.Config.Watch.DebounceMillis) * time.Millisecond,
		}
		logging.Logger.Infow("Observando alterações", "raiz", w.Root, "debounce", w.Debounce)
		return w.Run(ctx, run)
	},
}

func init() {
	addReportFlags(watchCmd, &watchOpts)
	rootCmd.AddCommand(watchCmd)
}
