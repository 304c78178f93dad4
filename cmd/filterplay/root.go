package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/gogpu/filterplay"
	"github.com/gogpu/filterplay/internal/config"
	"github.com/gogpu/filterplay/kernel"
	"github.com/gogpu/filterplay/project"
)

// cli is the state shared by every subcommand.
type cli struct {
	out      io.Writer
	fs       hackpadfs.FS
	settings config.Settings
	logger   *slog.Logger

	configPath string
	output     string
	debug      bool
}

func newCLI(out io.Writer, fsys hackpadfs.FS) *cli {
	return &cli{
		out:      out,
		fs:       fsys,
		settings: config.Default(),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// osFS returns the host file system. Paths are slash separated and
// relative to the file system root.
func osFS() hackpadfs.FS {
	return osfs.NewFS()
}

// fsPath converts a command line path into an fs path.
func (c *cli) fsPath(p string) (string, error) {
	if _, ok := c.fs.(*osfs.FS); !ok {
		return filepath.ToSlash(filepath.Clean(p)), nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(filepath.ToSlash(abs), "/"), nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "filterplay", "settings.toml")
}

func newRootCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filterplay",
		Short: "Create, compile and inspect image kernel projects",
		Long: color.CyanString("Usage: filterplay [global options] <command> [args]") + "\n\n" +
			"filterplay compiles Core Image style color and warp kernels with naga and\n" +
			"Metal compute kernels with an external compiler, and reports diagnostics\n" +
			"by line and column.",
		Version:       filterplay.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.configure()
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetOut(c.out)

	cmd.PersistentFlags().StringVar(&c.configPath, "config", defaultConfigPath(), "Settings file (TOML)")
	cmd.PersistentFlags().StringVarP(&c.output, "output", "o", "", "Output format. One of: (json | yaml)")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "Set log level to debug")

	cmd.AddCommand(
		newNewCommand(c),
		newCompileCommand(c),
		newWatchCommand(c),
		newDescribeCommand(c),
		newExportCommand(c),
	)
	return cmd
}

// configure loads settings and installs the logger once flags are parsed.
func (c *cli) configure() error {
	if c.configPath != "" {
		s, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		c.settings = s
	}

	level, err := c.settings.Level()
	if err != nil {
		return err
	}
	if c.debug {
		level = slog.LevelDebug
	}
	c.logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    color.NoColor,
	}))
	filterplay.SetLogger(c.logger)
	return nil
}

// load reads the project at dir.
func (c *cli) load(dir string) (*project.Project, string, error) {
	p, err := c.fsPath(dir)
	if err != nil {
		return nil, "", err
	}
	proj, err := project.Load(c.fs, p)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", dir, err)
	}
	return proj, p, nil
}

// kernel builds an uncompiled kernel for proj using the configured toolchains.
func (c *cli) kernel(proj *project.Project, extra ...kernel.Option) (kernel.Kernel, error) {
	opts := append([]kernel.Option{kernel.WithLogger(c.logger)}, extra...)
	if proj.Metadata.Type == kernel.TypeCompute {
		opts = append(opts, kernel.WithToolchain(c.settings.Toolchain(c.logger)))
	}
	return proj.Kernel(opts...)
}
