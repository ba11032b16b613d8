package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/twoLoop-40/hwp-transformer/internal/config"
	"github.com/twoLoop-40/hwp-transformer/internal/metrics"
	"github.com/twoLoop-40/hwp-transformer/internal/pipeline"
	"github.com/twoLoop-40/hwp-transformer/internal/transform"
)

var (
	configPath   string
	outDir       string
	outSuffix    string
	verbose      bool
	strictImages bool
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "TOML or YAML config file")
	f.StringVarP(&outDir, "out-dir", "o", "", "directory for the produced document (default ~/Downloads)")
	f.StringVar(&outSuffix, "suffix", "", "suffix appended to the folder name of the output file")
	f.BoolVarP(&verbose, "verbose", "v", false, "log every occurrence")
	f.BoolVar(&strictImages, "strict-images", false, "refuse to insert images when markers and files disagree")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		cmd.Println("No source selected, nothing to do.")
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	tr := pipeline.NewTranscriber(cfg, metrics.NewNoopMetrics(), log)
	sum, err := tr.Run(cmd.Context(), pipeline.Request{Source: args[0]})
	if err != nil {
		return fmt.Errorf("transcribe %s: %w", args[0], err)
	}

	renderSummary(cmd.OutOrStdout(), sum)
	return nil
}

func loadConfig() (config.Config, error) {
	cfg := config.Load()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return cfg, err
		}
	}
	if outDir != "" {
		cfg.DownloadDir = outDir
	}
	if outSuffix != "" {
		cfg.OutputSuffix = outSuffix
	}
	if strictImages {
		cfg.ImageMismatchPolicy = string(transform.PolicyStrict)
	}
	return cfg, cfg.Validate()
}
