package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/absfs/smbmount"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func runMount(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := buildConfig(ctx, cmd)
	if err != nil {
		return err
	}
	config.Logger = debugLogger{logger.WithField("component", "smb")}

	var metrics *smbmount.Metrics
	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = smbmount.NewMetrics(reg)
		srv := serveMetrics(opts.metricsAddr, reg, logger)
		defer srv.Close()
	}

	orch, err := buildOrchestrator(config, logger, metrics)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		return mountAll(ctx, cmd.OutOrStdout(), orch, logger, args)
	}
	return mountInteractive(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), orch, logger)
}

// buildConfig layers the config file, SMBMOUNT_* variables and explicitly
// set flags, in that order.
func buildConfig(ctx context.Context, cmd *cobra.Command) (*smbmount.Config, error) {
	config := &smbmount.Config{}
	if opts.configFile != "" {
		loaded, err := smbmount.LoadConfig(opts.configFile)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if err := config.ApplyEnv(ctx); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("user") {
		config.Username = opts.username
		config.GuestAccess = false
	}
	if flags.Changed("password") {
		config.Password = opts.password
	}
	if flags.Changed("domain") {
		config.Domain = opts.domain
	}
	if flags.Changed("port") {
		config.Port = opts.port
	}
	if flags.Changed("timeout") {
		d, err := time.ParseDuration(opts.timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: --timeout: %v", smbmount.ErrInvalidConfig, err)
		}
		config.OpTimeout = d
	}
	return config, nil
}

func buildOrchestrator(config *smbmount.Config, logger *logrus.Logger, metrics *smbmount.Metrics) (*smbmount.Orchestrator, error) {
	catalog, err := smbmount.NewSMBCatalog(config)
	if err != nil {
		return nil, err
	}
	resolver, err := smbmount.NewResolver(catalog, config)
	if err != nil {
		return nil, err
	}

	orchOpts := []smbmount.Option{
		smbmount.WithLogger(debugLogger{logger.WithField("component", "mount")}),
		smbmount.WithMetrics(metrics),
		smbmount.WithStateObserver(func(id string, s smbmount.State) {
			logger.WithFields(logrus.Fields{"id": id, "state": s}).Trace("State changed")
		}),
	}
	if opts.treeConnect {
		orchOpts = append(orchOpts, smbmount.WithMounter(smbmount.TreeMounter{Catalog: catalog}))
	}
	if opts.singleFlight {
		orchOpts = append(orchOpts, smbmount.WithSingleFlight())
	}
	return smbmount.NewOrchestrator(resolver, orchOpts...), nil
}

// mountAll mounts each address in turn and fails if any mount failed.
func mountAll(ctx context.Context, out io.Writer, orch *smbmount.Orchestrator, logger *logrus.Logger, addrs []string) error {
	failed := 0
	for _, raw := range addrs {
		o := orch.Mount(ctx, raw)
		report(out, logger, o)
		if !o.Mounted() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d mounts failed", failed, len(addrs))
	}
	return nil
}

// mountInteractive submits one mount per input line and prints outcomes as
// they complete. On end of input it waits for pending mounts; on a signal
// it cancels them.
func mountInteractive(ctx context.Context, in io.Reader, out io.Writer, orch *smbmount.Orchestrator, logger *logrus.Logger) error {
	d := smbmount.NewDispatcher(orch, smbmount.SinkFunc(func(o smbmount.Outcome) {
		report(out, logger, o)
	}))

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Interrupted, cancelling pending mounts")
			return d.Close()
		case line, ok := <-lines:
			if !ok {
				d.Wait()
				if err := d.Close(); err != nil {
					return err
				}
				return <-scanErr
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			id := d.Submit(line)
			logger.WithField("id", id).Debugf("Submitted %s", strings.TrimSpace(line))
		}
	}
}

func report(out io.Writer, logger *logrus.Logger, o smbmount.Outcome) {
	fmt.Fprintln(out, o.Message())

	entry := logger.WithFields(logrus.Fields{
		"id":       o.ID,
		"target":   o.Target(),
		"duration": o.Duration,
	})
	if o.Mounted() {
		entry.WithField("identifier", o.Identifier).Info("Mounted")
		return
	}
	entry = entry.WithField("reason", o.Reason)
	if errors.Is(o.Err, smbmount.ErrCancelled) {
		entry.Debug(o.Err)
		return
	}
	entry.Warn(o.Err)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server stopped")
		}
	}()
	logger.Infof("Serving metrics on %s/metrics", addr)
	return srv
}
