package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mtd/internal/config"
	"mtd/internal/gpu"
	"mtd/internal/httpapi"
	"mtd/internal/langid"
	"mtd/internal/models"
	"mtd/internal/quality"
	"mtd/internal/recovery"
	"mtd/internal/service"
	"mtd/internal/telemetry"
	"mtd/internal/translator"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "mtd",
		Short:         "Machine translation backbone for real-time speech pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to config file (.yaml, .json or .toml); built-in defaults when empty")
	root.PersistentFlags().String("log-level", "", "Log level override: debug|info|warn|error")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if f := cmd.InheritedFlags().Lookup("log-level"); f != nil {
			flags.logLevel = f.Value.String()
		}
	}
	root.AddCommand(newServeCmd(flags), newCheckConfigCmd(flags), newDetectCmd(flags))
	return root
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// loadConfig reads, validates and default-fills the configuration. The
// returned config is always usable; issues name the replaced branches.
func loadConfig(flags *rootFlags, log zerolog.Logger) (config.Config, []config.Issue, error) {
	cfg := config.Defaults()
	if flags.configPath != "" {
		var err error
		cfg, err = config.Load(flags.configPath)
		if err != nil {
			return cfg, nil, fmt.Errorf("load config: %w", err)
		}
	}
	cfg, issues := cfg.Validate(log)
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, issues, nil
}

// defaultPair picks the first configured direction in stable order.
func defaultPair(cfg config.Config) (string, string) {
	srcs := make([]string, 0, len(cfg.MT.LanguagePairs))
	for src := range cfg.MT.LanguagePairs {
		srcs = append(srcs, src)
	}
	sort.Strings(srcs)
	for _, src := range srcs {
		if tgts := cfg.MT.LanguagePairs[src]; len(tgts) > 0 {
			return src, tgts[0]
		}
	}
	return "en", "es"
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var srcLang, tgtLang string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the translation HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLog := newLogger(flags.logLevel)
			cfg, _, err := loadConfig(flags, bootLog)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			// GPU facade; a failed init leaves the server on CPU.
			var facade *gpu.Facade
			if cfg.GPU.Enabled {
				facade = gpu.NewFacade(gpu.NewDefaultRuntime(), log)
				if err := facade.Initialize(); err != nil {
					log.Warn().Err(err).Msg("gpu unavailable, continuing on cpu")
					facade = nil
				}
			}
			var pool *gpu.Pool
			if facade != nil && cfg.GPU.EnableMemoryPool {
				pc := gpu.DefaultPoolConfig()
				if cfg.GPU.MemoryPoolSizeMB > 0 {
					pc.InitialMB = cfg.GPU.MemoryPoolSizeMB
				}
				if cfg.GPU.MemoryLimitMB > 0 {
					pc.MaxMB = cfg.GPU.MemoryLimitMB
				}
				pool = gpu.NewPool(pc, facade, cfg.GPU.DeviceID, log)
				if err := pool.Initialize(); err != nil {
					log.Warn().Err(err).Msg("gpu pool unavailable, loading models without it")
					pool = nil
				}
			}

			reg, err := models.NewRegistry(cfg.MT.ModelsBasePath, cfg.MT.SupportedLanguages, cfg.MT.LanguagePairs)
			if err != nil {
				return fmt.Errorf("model registry: %w", err)
			}
			mgr := models.NewManager(models.ManagerConfig{
				Registry:  reg,
				Backend:   &models.SimBackend{},
				Facade:    facade,
				Pool:      pool,
				MaxModels: cfg.MT.MaxConcurrentModels,
				PreferGPU: cfg.MT.Model.UseGPU && facade != nil,
				DeviceID:  cfg.MT.Model.DeviceID,
				LRUPath:   filepath.Join(reg.Root(), ".mtd-lru.json"),
			}, log)

			engine := recovery.NewEngine(recovery.Config{
				EnableRetry:         cfg.MT.ErrorHandling.EnableRetry,
				EnableDegradedMode:  cfg.MT.ErrorHandling.EnableDegradedMode,
				MaxDegradedDuration: time.Duration(cfg.MT.ErrorHandling.MaxDegradedDurationMins) * time.Minute,
			}, recovery.Hooks{
				FallbackToCPU: mgr.FallbackToCPU,
				ReloadModel:   mgr.Reload,
			}, log)

			assessor := quality.NewAssessor(cfg.MT.Quality, log)
			exec := translator.New(mgr, engine, assessor, facade, translator.OptionsFromConfig(cfg), log)
			detector := langid.NewDetector(cfg.MT.SupportedLanguages, log)
			tel := telemetry.NewStore(cfg.Telemetry.MaxDataPoints)
			sampler := telemetry.NewSampler(tel, facade,
				time.Duration(cfg.Telemetry.CollectionIntervalMs)*time.Millisecond, log)

			if srcLang == "" || tgtLang == "" {
				srcLang, tgtLang = defaultPair(cfg)
			}
			initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancelInit()
			if facade != nil {
				onGPU, err := exec.InitializeWithGPU(initCtx, srcLang, tgtLang, cfg.MT.Model.DeviceID)
				if err != nil {
					return fmt.Errorf("initialize %s->%s: %w", srcLang, tgtLang, err)
				}
				log.Info().Str("pair", srcLang+"->"+tgtLang).Bool("gpu", onGPU).Msg("default pair loaded")
			} else {
				if err := exec.Initialize(initCtx, srcLang, tgtLang); err != nil {
					return fmt.Errorf("initialize %s->%s: %w", srcLang, tgtLang, err)
				}
				log.Info().Str("pair", srcLang+"->"+tgtLang).Msg("default pair loaded")
			}

			baseCtx, cancelBase := context.WithCancel(context.Background())
			defer cancelBase()
			httpapi.SetLogger(log)
			httpapi.SetBaseContext(baseCtx)
			if cfg.Telemetry.EnableSampler {
				sampler.Start(baseCtx)
			}

			svc := service.New(exec, detector, mgr, tel)
			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpapi.NewMux(svc),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Msg("mtd listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
			}

			// Shutdown order is the reverse of construction.
			shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelShut()
			if err := srv.Shutdown(shutCtx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown incomplete")
			}
			cancelBase()
			sampler.Stop()
			mgr.Close()
			if pool != nil {
				pool.Shutdown()
			}
			if facade != nil {
				facade.Cleanup()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&srcLang, "src-lang", "", "Source language of the pair loaded at startup")
	cmd.Flags().StringVar(&tgtLang, "tgt-lang", "", "Target language of the pair loaded at startup")
	return cmd
}

func newCheckConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate a config file and report replaced values",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(flags.logLevel)
			_, issues, err := loadConfig(flags, log)
			if err != nil {
				return err
			}
			for _, i := range issues {
				fmt.Fprintln(cmd.OutOrStdout(), i.String())
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d config value(s) replaced with defaults", len(issues))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config ok")
			return nil
		},
	}
}

func newDetectCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [text]",
		Short: "Detect the language of a text using the configured languages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(flags.logLevel)
			cfg, _, err := loadConfig(flags, log)
			if err != nil {
				return err
			}
			detector := langid.NewDetector(cfg.MT.SupportedLanguages, log)
			res := detector.DetectText(strings.Join(args, " "))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
