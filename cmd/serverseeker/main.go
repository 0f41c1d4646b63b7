// Command serverseeker is the process entrypoint: it parses flags,
// loads configuration, builds the store/producer/pool dependency
// graph, and runs the scan scheduler (spec §6).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sooox/serverseeker/internal/candidate"
	"github.com/sooox/serverseeker/internal/config"
	"github.com/sooox/serverseeker/internal/endpoint"
	"github.com/sooox/serverseeker/internal/logging"
	"github.com/sooox/serverseeker/internal/mcproto"
	"github.com/sooox/serverseeker/internal/scan"
	"github.com/sooox/serverseeker/internal/status"
	"github.com/sooox/serverseeker/internal/store"
	"github.com/sooox/serverseeker/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	var mode string
	var configFile string

	log := logging.New(os.Stderr, logging.INFO, "serverseeker")

	root := &cobra.Command{
		Use:   "serverseeker",
		Short: "Minecraft server discovery and rescan pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), mode, configFile, log)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().StringVar(&mode, "mode", "rescanner", "scan mode: discovery|rescanner")
	root.Flags().StringVar(&configFile, "config-file", "config.toml", "path to the TOML configuration file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root.SetContext(ctx)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "serverseeker: %v\n", err)
		return 1
	}
	return 0
}

func runScan(ctx context.Context, mode, configFile string, log *logging.Logger) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := scan.ValidatePortRange(cfg.Scanner.PortRangeStart, cfg.Scanner.PortRangeEnd); err != nil {
		return err
	}
	scan.WarnOnWidePortRange(log, cfg.Scanner.PortRangeStart, cfg.Scanner.PortRangeEnd)

	st, err := store.Open(ctx, cfg.Database.ConnString())
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	defer st.Close()

	rescan := candidate.RescanProducer{
		Endpoints: st.StreamEndpoints,
		PortStart: cfg.Scanner.PortRangeStart,
		PortEnd:   cfg.Scanner.PortRangeEnd,
	}

	discover := candidate.DiscoveryProducer{
		Command: "sudo",
		Args:    []string{scannerBinary(), "-c", cfg.Masscan.ConfigFile},
	}

	pool := worker.Pool{
		Limit: int64(config.DefaultPermitLimit),
		Fetch: mcproto.Fetch,
		Persist: func(ctx context.Context, ep endpoint.Endpoint, resp status.Response, now int64) (bool, error) {
			outcome, err := st.Upsert(ctx, ep, resp, now)
			return outcome == store.OutcomeOptOut, err
		},
	}

	sched := scan.Scheduler{
		Mode:      scan.Mode(mode),
		Rescan:    rescan,
		Discover:  discover,
		Pool:      pool,
		Repeat:    cfg.Scanner.Repeat,
		ScanDelay: cfg.ScanDelay(),
		Log:       log,
		TotalHint: func(ctx context.Context) int64 {
			n, err := st.CountEndpoints(ctx)
			if err != nil {
				return 0
			}
			return n * int64(cfg.Scanner.PortRangeEnd-cfg.Scanner.PortRangeStart+1)
		},
	}
	return sched.Run(ctx)
}

// scannerBinary is the configured external high-rate port scanner
// executable name. It is not itself part of the configuration schema
// (spec §6 only names the scanner's config/output files), so the
// binary name is fixed to the conventional one.
func scannerBinary() string { return "masscan" }
