package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
	"gitlab.com/tinyland/lab/node-pulse/config"
)

// isolateEnv points HOME at a temp dir and clears NODE_PULSE_* so the
// developer's own config never leaks into a test.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{config.EnvRPCEndpoint, config.EnvProcess, config.EnvStoragePath, config.EnvConfigPath} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return home
}

// parseRoot parses args against a fresh command tree and returns the bound
// flag values together with the flag set that records which were given.
func parseRoot(t *testing.T, args ...string) (*rootFlags, *pflag.FlagSet) {
	t.Helper()
	f := &rootFlags{}
	cmd := newRootCmd(f)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v): %v", args, err)
	}
	return f, cmd.Flags()
}

func TestLoadConfig_Layers(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "node-pulse.yaml")
	if err := os.WriteFile(path, []byte(`
node:
  process_name: juno
  rpc_endpoint: http://file:9944
sampling:
  window_size: 50
`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvRPCEndpoint, "http://env:9944")

	f, flags := parseRoot(t, "--config", path, "--window", "80")
	cfg, err := loadConfig(flags, f)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Node.ProcessName != "juno" {
		t.Errorf("ProcessName = %q, want juno from the file", cfg.Node.ProcessName)
	}
	if cfg.Node.RPCEndpoint != "http://env:9944" {
		t.Errorf("RPCEndpoint = %q, want the env override", cfg.Node.RPCEndpoint)
	}
	if cfg.Sampling.WindowSize != 80 {
		t.Errorf("WindowSize = %d, want the flag override 80", cfg.Sampling.WindowSize)
	}
	if cfg.Sampling.TickInterval != "1s" {
		t.Errorf("TickInterval = %q, want the default", cfg.Sampling.TickInterval)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	isolateEnv(t)
	f, flags := parseRoot(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--tick", "soon")

	_, err := loadConfig(flags, f)
	if err == nil || !strings.Contains(err.Error(), "sampling.tick_interval") {
		t.Errorf("loadConfig() error = %v, want a tick_interval error", err)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte(config.EnvProcess+"=pathfinder\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv(config.EnvProcess) })

	f, flags := parseRoot(t,
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env-file", envFile,
		"--env-file", filepath.Join(dir, "absent.env"),
	)
	cfg, err := loadConfig(flags, f)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Node.ProcessName != "pathfinder" {
		t.Errorf("ProcessName = %q, want pathfinder from the env file", cfg.Node.ProcessName)
	}
}

func TestApplyFlags(t *testing.T) {
	f, flags := parseRoot(t,
		"--rpc", "ws://node:9945",
		"--process", "madara",
		"--storage", "/data/madara",
		"--tick", "2s",
		"--input-poll", "20ms",
		"--rpc-timeout", "5s",
		"--span", "9",
		"--plain",
		"-v",
	)

	cfg := config.DefaultConfig()
	applyFlags(flags, f, cfg)

	checks := []struct {
		name      string
		got, want any
	}{
		{"rpc", cfg.Node.RPCEndpoint, "ws://node:9945"},
		{"process", cfg.Node.ProcessName, "madara"},
		{"storage", cfg.Node.StoragePath, "/data/madara"},
		{"tick", cfg.Sampling.TickInterval, "2s"},
		{"input-poll", cfg.Sampling.InputPoll, "20ms"},
		{"rpc-timeout", cfg.Sampling.RPCTimeout, "5s"},
		{"span", cfg.Display.SmoothingSpan, 9},
		{"plain", cfg.Display.Mode, config.ModePlain},
		{"verbose", cfg.Log.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestApplyFlags_UnchangedKeepsConfig(t *testing.T) {
	f, flags := parseRoot(t)
	cfg := config.DefaultConfig()
	want := *cfg
	applyFlags(flags, f, cfg)
	if *cfg != want {
		t.Errorf("applyFlags changed config without flags: %+v", cfg)
	}
}

func TestConfigPath(t *testing.T) {
	isolateEnv(t)

	if got := configPath(&rootFlags{configPath: "/etc/np.yaml"}); got != "/etc/np.yaml" {
		t.Errorf("flag path = %q", got)
	}
	t.Setenv(config.EnvConfigPath, "/env/np.yaml")
	if got := configPath(&rootFlags{}); got != "/env/np.yaml" {
		t.Errorf("env path = %q", got)
	}
	os.Unsetenv(config.EnvConfigPath)
	if got := configPath(&rootFlags{}); got != config.DefaultPath() {
		t.Errorf("default path = %q, want %q", got, config.DefaultPath())
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path, false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := writeDefaultConfig(path, false); err == nil {
		t.Error("expected an error when the file exists")
	}
	if err := writeDefaultConfig(path, true); err != nil {
		t.Errorf("forced write: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written defaults do not validate: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "node-pulse.log")
	logger, closeLog, err := newLogger(config.LogConfig{File: path, Level: "warn"})
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "tick", 3)
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "tick=3") {
		t.Errorf("log = %q, want the warn record", out)
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd(&rootFlags{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "node-pulse "+version) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestConfigPathCmd(t *testing.T) {
	isolateEnv(t)
	cmd := newRootCmd(&rootFlags{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "path", "--config", "/tmp/np.yaml"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out.String()) != "/tmp/np.yaml" {
		t.Errorf("config path output = %q", out.String())
	}
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd(&rootFlags{})
	cmd.SetArgs([]string{"unexpected"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for positional arguments")
	}
}

type fakeRPC struct {
	state    collectors.SyncState
	syncErr  error
	block    uint64
	blockErr error
}

func (f fakeRPC) Syncing(context.Context) (collectors.SyncState, error) { return f.state, f.syncErr }
func (f fakeRPC) BlockNumber(context.Context) (uint64, error) { return f.block, f.blockErr }

type fakeHost struct {
	proc    collectors.ProcessStat
	disks   []collectors.DiskStat
	diskErr error
	total   uint64
}

func (f fakeHost) FindProcess(context.Context, string) (collectors.ProcessStat, error) {
	return f.proc, nil
}
func (f fakeHost) Disks(context.Context) ([]collectors.DiskStat, error) { return f.disks, f.diskErr }
func (f fakeHost) TotalMemory(context.Context) (uint64, error) { return f.total, nil }

func healthyDiagnostics(out *bytes.Buffer) diagnostics {
	host := fakeHost{
		proc:  collectors.ProcessStat{Found: true, CPUPercent: 12.5, MemoryBytes: 2_000_000_000},
		disks: []collectors.DiskStat{{Found: true, Mountpoint: "/", TotalBytes: 1e12, AvailableBytes: 4e11}},
		total: 32_000_000_000,
	}
	return diagnostics{
		out:    out,
		cfg:    config.DefaultConfig(),
		rpc:    fakeRPC{state: collectors.NotSyncing, block: 4242},
		host:   host,
		sizeOf: func(context.Context, string) (uint64, error) { return 300_000_000_000, nil },
		now:    func() time.Time { return time.Unix(0, 0) },
	}
}

func TestDiagnostics_AllPass(t *testing.T) {
	var out bytes.Buffer
	if failed := healthyDiagnostics(&out).run(context.Background()); failed != 0 {
		t.Errorf("failed = %d, want 0\n%s", failed, out.String())
	}
	for _, want := range []string{
		"Not Syncing",
		"4242",
		"running (cpu 12.5%, rss 2000 Mo)",
		"32000 Mo total",
		"/: 1000000 Mo total, 400000 Mo available",
		"300000 Mo used",
		"All diagnostics passed",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestDiagnostics_Failures(t *testing.T) {
	var out bytes.Buffer
	d := healthyDiagnostics(&out)
	d.rpc = fakeRPC{syncErr: errors.New("connection refused")}
	d.host = fakeHost{diskErr: errors.New("no mounts")}
	d.sizeOf = func(context.Context, string) (uint64, error) { return 0, os.ErrNotExist }

	// rpc, process, disk, storage
	if failed := d.run(context.Background()); failed != 4 {
		t.Errorf("failed = %d, want 4\n%s", failed, out.String())
	}
	if !strings.Contains(out.String(), "connection refused") {
		t.Error("report missing the rpc error")
	}
	if strings.Contains(out.String(), "All diagnostics passed") {
		t.Error("report claims success")
	}
}

func TestManCmd(t *testing.T) {
	cmd := newRootCmd(&rootFlags{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"man"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("man: %v", err)
	}
	page := out.String()
	for _, want := range []string{".TH NODE-PULSE 1", `\-\-rpc`, ".B diagnose", "smoother"} {
		if !strings.Contains(page, want) {
			t.Errorf("man page missing %q", want)
		}
	}
}
