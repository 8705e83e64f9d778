package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"profscreen/internal/config"
	"profscreen/internal/deps"
	"profscreen/internal/logging"
	"profscreen/internal/media/extract"
	"profscreen/internal/pipeline"
	"profscreen/internal/preflight"
	"profscreen/internal/transcribe"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	// Replaced in tests so scans run without ffmpeg or a speech model.
	newExtractor func(cfg *config.Config, logger *slog.Logger) pipeline.Extractor
	newEngine    func(cfg *config.Config, logger *slog.Logger) transcribe.Factory
	checkDeps    func(cfg *config.Config) error
	interactive  func(in io.Reader) bool
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		newExtractor: defaultExtractor,
		newEngine:    defaultEngineFactory,
		checkDeps:    defaultDepsCheck,
		interactive:  isTerminalReader,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func defaultExtractor(cfg *config.Config, logger *slog.Logger) pipeline.Extractor {
	return extract.New(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger)
}

func defaultEngineFactory(cfg *config.Config, logger *slog.Logger) transcribe.Factory {
	return func() (transcribe.Engine, error) {
		return transcribe.NewEngine(cfg, logger)
	}
}

func defaultDepsCheck(cfg *config.Config) error {
	return deps.Require(preflight.CheckSystemDeps(cfg))
}

func isTerminalReader(in io.Reader) bool {
	file, ok := in.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func isTerminalWriter(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
