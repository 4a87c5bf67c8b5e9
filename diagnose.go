package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
	"gitlab.com/tinyland/lab/node-pulse/collectors/diskusage"
	"gitlab.com/tinyland/lab/node-pulse/collectors/noderpc"
	"gitlab.com/tinyland/lab/node-pulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/node-pulse/config"
	"gitlab.com/tinyland/lab/node-pulse/internal/format"
)

// diagnoseTimeout bounds the whole diagnostics run, including the storage
// walk.
const diagnoseTimeout = 30 * time.Second

func newDiagnoseCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Check the node endpoint, process and storage once and report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), f)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), diagnoseTimeout)
			defer cancel()

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelWarn, // Only show warnings during diagnostics
			}))

			client, err := noderpc.NewClient(cfg.Node.RPCEndpoint, noderpc.WithLogger(logger))
			if err != nil {
				return err
			}
			defer client.Close()

			probe, err := sysmetrics.NewProbe(ctx, logger)
			if err != nil {
				return err
			}

			d := diagnostics{
				out:    cmd.OutOrStdout(),
				cfg:    cfg,
				rpc:    client,
				host:   probe,
				sizeOf: diskusage.SizeOfContext,
				now:    time.Now,
			}
			if failed := d.run(ctx); failed > 0 {
				return fmt.Errorf("%d diagnostic check(s) failed", failed)
			}
			return nil
		},
	}
}

// diagnostics runs every check once and prints a report.
type diagnostics struct {
	out    io.Writer
	cfg    *config.Config
	rpc    collectors.SyncSource
	host   collectors.HostProbe
	sizeOf func(ctx context.Context, path string) (uint64, error)
	now    func() time.Time
}

// run prints the report and returns the number of failed checks.
func (d diagnostics) run(ctx context.Context) int {
	failed := 0
	p := func(format string, args ...any) { fmt.Fprintf(d.out, format, args...) }

	p("🔍 node-pulse diagnostics\n")
	p("============================================================\n\n")

	p("⚙️  Configuration\n")
	p("------------------------------------------------------------\n")
	p("   Endpoint:      %s\n", d.cfg.Node.RPCEndpoint)
	p("   Process:       %s\n", d.cfg.Node.ProcessName)
	p("   Storage:       %s\n", d.cfg.Node.StoragePath)
	p("   Log file:      %s\n\n", d.cfg.Log.File)

	p("🌐 RPC Endpoint\n")
	p("------------------------------------------------------------\n")
	rpcCtx, cancel := context.WithTimeout(ctx, d.rpcTimeout())
	start := d.now()
	state, err := d.rpc.Syncing(rpcCtx)
	cancel()
	if err != nil {
		failed++
		p("   Sync status:   ❌ %v\n", err)
		p("\n💡 Solution: Check that the node is running and that %s is its RPC address\n\n", d.cfg.Node.RPCEndpoint)
	} else {
		p("   Sync status:   ✅ %s (%s)\n", state, format.Duration(d.now().Sub(start)))
		if d.cfg.RPC.QueryBlockNumber {
			rpcCtx, cancel := context.WithTimeout(ctx, d.rpcTimeout())
			n, err := d.rpc.BlockNumber(rpcCtx)
			cancel()
			if err != nil {
				failed++
				p("   Block number:  ❌ %v\n", err)
			} else {
				p("   Block number:  ✅ %d\n", n)
			}
		}
		p("\n")
	}

	p("🖥️  Host\n")
	p("------------------------------------------------------------\n")
	proc, err := d.host.FindProcess(ctx, d.cfg.Node.ProcessName)
	switch {
	case err != nil:
		failed++
		p("   Process:       ❌ %v\n", err)
	case !proc.Found:
		failed++
		p("   Process:       ⚠️  No process named %q\n", d.cfg.Node.ProcessName)
	default:
		p("   Process:       ✅ running (cpu %s, rss %s)\n",
			format.Percent(proc.CPUPercent), format.MegabytesString(proc.MemoryBytes))
	}

	if total, err := d.host.TotalMemory(ctx); err != nil {
		failed++
		p("   Memory:        ❌ %v\n", err)
	} else {
		p("   Memory:        ✅ %s total\n", format.MegabytesString(total))
	}

	disks, err := d.host.Disks(ctx)
	switch {
	case err != nil:
		failed++
		p("   Disk:          ❌ %v\n", err)
	case len(disks) == 0:
		failed++
		p("   Disk:          ⚠️  No disks found\n")
	default:
		disk := disks[0]
		p("   Disk:          ✅ %s: %s total, %s available\n",
			disk.Mountpoint, format.MegabytesString(disk.TotalBytes), format.MegabytesString(disk.AvailableBytes))
	}
	p("\n")

	p("💾 Storage\n")
	p("------------------------------------------------------------\n")
	start = d.now()
	used, err := d.sizeOf(ctx, d.cfg.Node.StoragePath)
	if err != nil {
		failed++
		p("   Directory:     ❌ %v\n", err)
	} else {
		p("   Directory:     ✅ %s used (walked in %s)\n",
			format.MegabytesString(used), format.Duration(d.now().Sub(start)))
	}
	p("\n")

	if failed == 0 {
		p("✨ All diagnostics passed! node-pulse should work correctly.\n")
	}
	return failed
}

func (d diagnostics) rpcTimeout() time.Duration {
	if t := d.cfg.RPCTimeout(); t > 0 {
		return t
	}
	return collectors.DefaultRPCTimeout
}
