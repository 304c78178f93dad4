package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"time"

	"github.com/hack-pad/hackpadfs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/gogpu/filterplay"
	"github.com/gogpu/filterplay/binding"
	"github.com/gogpu/filterplay/diag"
	"github.com/gogpu/filterplay/internal/metrics"
	"github.com/gogpu/filterplay/internal/watch"
	"github.com/gogpu/filterplay/kernel"
	"github.com/gogpu/filterplay/project"
)

// watchCacheSize is the number of builds kept while watching.
const watchCacheSize = 32

func newWatchCommand(c *cli) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Recompile a project whenever its source changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return c.watch(ctx, args[0], metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func (c *cli) watch(ctx context.Context, dir, metricsAddr string) error {
	if !c.settings.AutoCompile {
		return errors.New("auto_compile is disabled in settings")
	}
	proj, fsDir, err := c.load(dir)
	if err != nil {
		return err
	}
	k, err := c.kernel(proj, kernel.WithCache(watchCacheSize))
	if err != nil {
		return err
	}
	sourceName, err := project.SourceName(proj.Metadata.Type)
	if err != nil {
		return err
	}

	m := metrics.NewCompile()
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m.MustRegister(reg)
		metrics.NewBuildCache(func() kernel.CacheStats {
			s, _ := kernel.BuildCacheStats(k)
			return s
		}).MustRegister(reg)
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				c.logger.Error("metrics server", "err", err)
			}
		}()
		defer srv.Close()
	}

	pipeline := filterplay.NewPipeline(k,
		filterplay.WithObserver(m),
		filterplay.WithPipelineLogger(c.logger),
		filterplay.WithResultHandler(func(r diag.Result) {
			fmt.Fprintln(c.out, faint(time.Now().Format(time.Kitchen)))
			_ = c.renderResult(r)
		}))

	bindings, _ := binding.Defaults(time.Duration(c.settings.FrameInterval), nil)
	defer bindings.Reset()
	session := filterplay.NewSession(pipeline, proj.Metadata.Arguments, filterplay.WithBindings(bindings))
	defer session.Close()
	for i, img := range proj.InputImages {
		if img != nil {
			_ = session.SetInputImage(i, img)
		}
	}

	compile := func() {
		src, err := hackpadfs.ReadFile(c.fs, path.Join(fsDir, sourceName))
		if err != nil {
			c.logger.Warn("read source", "err", err)
			return
		}
		if _, err := session.Compile(string(src)); err != nil {
			c.logger.Warn("compile", "err", err)
		}
	}
	compile()

	w := &watch.Watcher{
		Path:     filepath.Join(dir, sourceName),
		OnChange: func(string) { compile() },
		Logger:   c.logger,
	}
	fmt.Fprintln(c.out, "Watching", w.Path)
	return w.Run(ctx)
}
