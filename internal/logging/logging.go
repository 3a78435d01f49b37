package logging

import (
	"go.uber.org/zap"
)

var Logger = zap.NewNop().Sugar()

// InitLogger configura o logger global. Em modo normal só Info+ vai para stderr.
func InitLogger(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		cfg.DisableStacktrace = true
	}
	cfg.Encoding = "console"
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	Logger = logger.Sugar()
	return nil
}

func Sync() {
	_ = Logger.Sync()
}
