// Package manpage generates a roff-formatted man page for node-pulse.
//
// The OPTIONS and KEYBINDINGS sections are generated at runtime from the
// cobra command tree and the dashboard key map, keeping the page in sync
// with the code.
//
// Usage:
//
//	node-pulse man | man -l -
//	node-pulse man > ~/.local/share/man/man1/node-pulse.1
package manpage

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Page holds everything the generator reads.
type Page struct {
	// Root is the top-level command. Its flags and subcommands are listed.
	Root *cobra.Command
	// Keys are the dashboard key bindings.
	Keys []key.Binding
	// Version, Commit and Date come from the build-time linker variables.
	Version, Commit, Date string
	// Now dates the header. Zero means time.Now.
	Now time.Time
}

// Generate produces a complete roff-formatted man(1) page.
func Generate(p Page) string {
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	var b strings.Builder

	writeHeader(&b, p)
	writeName(&b)
	writeSynopsis(&b)
	writeDescription(&b)
	writeCommands(&b, p.Root)
	writeOptions(&b, p.Root)
	writeKeybindings(&b, p.Keys)
	writeConfiguration(&b)
	writeFiles(&b)
	writeEnvironment(&b)
	writeExamples(&b)
	writeExitStatus(&b)
	writeSeeAlso(&b)
	writeBugs(&b)
	writeFooter(&b, p)

	return b.String()
}

// roffEscape escapes special roff characters in a string.
func roffEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `-`, `\-`)
	s = strings.ReplaceAll(s, `.`, `\&.`)
	return s
}

func writeHeader(b *strings.Builder, p Page) {
	month := p.Now.Format("January 2006")
	fmt.Fprintf(b, ".TH NODE-PULSE 1 \"%s\" \"node-pulse %s\" \"User Commands\"\n", month, p.Version)
}

func writeName(b *strings.Builder) {
	b.WriteString(`.SH NAME
node\-pulse \- terminal dashboard for a Starknet full node
`)
}

func writeSynopsis(b *strings.Builder) {
	b.WriteString(`.SH SYNOPSIS
.B node\-pulse
[\fIOPTIONS\fR]
.br
.B node\-pulse
\fICOMMAND\fR [\fIOPTIONS\fR]
`)
}

func writeDescription(b *strings.Builder) {
	b.WriteString(`.SH DESCRIPTION
.B node\-pulse
watches a Starknet full node. Once per tick it asks the node's JSON\-RPC
endpoint whether it is syncing, samples the CPU and memory use of the node
process, and reports how much disk the node's storage directory takes.
.PP
The CPU and memory histories are kept in fixed\-size windows and drawn as
smoothed charts. The storage directory is measured in the background on
its own cadence, so a large database never stalls a tick.
.PP
When stdout is a terminal the result is a full\-screen dashboard. Otherwise,
or with \fB\-\-plain\fR, each tick is written as a text status block followed
by ASCII plots.
`)
}

func writeCommands(b *strings.Builder, root *cobra.Command) {
	if root == nil {
		return
	}
	b.WriteString(".SH COMMANDS\n")
	for _, c := range root.Commands() {
		if !c.IsAvailableCommand() {
			continue
		}
		b.WriteString(".TP\n")
		fmt.Fprintf(b, ".B %s\n", roffEscape(c.Use))
		fmt.Fprintf(b, "%s\n", c.Short)
		for _, sub := range c.Commands() {
			if !sub.IsAvailableCommand() {
				continue
			}
			fmt.Fprintf(b, ".RS\n.TP\n.B %s %s\n%s\n.RE\n", roffEscape(c.Name()), roffEscape(sub.Use), sub.Short)
		}
	}
}

func writeOptions(b *strings.Builder, root *cobra.Command) {
	if root == nil {
		return
	}
	b.WriteString(".SH OPTIONS\n")

	var flags []*pflag.Flag
	collect := func(f *pflag.Flag) {
		if !f.Hidden {
			flags = append(flags, f)
		}
	}
	root.LocalNonPersistentFlags().VisitAll(collect)
	root.PersistentFlags().VisitAll(collect)
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })

	for _, f := range flags {
		b.WriteString(".TP\n")
		name := `\-\-` + roffEscape(f.Name)
		if f.Shorthand != "" {
			name = `\-` + f.Shorthand + ", " + name
		}
		if arg := f.Value.Type(); arg != "bool" {
			fmt.Fprintf(b, ".BR \"%s\" \" \\fI%s\\fR\"\n", name, arg)
		} else {
			fmt.Fprintf(b, ".B %s\n", name)
		}
		desc := f.Usage
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "[]" {
			desc += fmt.Sprintf(" Default: %s.", f.DefValue)
		}
		b.WriteString(roffEscape(desc) + "\n")
	}
}

func writeKeybindings(b *strings.Builder, bindings []key.Binding) {
	b.WriteString(`.SH KEYBINDINGS
The dashboard accepts the following keys. A mouse click on a panel expands
it; a second click collapses it again.
`)
	for _, k := range bindings {
		if !k.Enabled() {
			continue
		}
		fmt.Fprintf(b, ".TP\n.B %s\n%s\n", roffEscape(strings.Join(k.Keys(), ", ")), k.Help().Desc)
	}
}

func writeConfiguration(b *strings.Builder) {
	b.WriteString(`.SH CONFIGURATION
Configuration is read from a YAML file at
.B ~/.config/node\-pulse/config.yaml
by default, or from the path given with \fB\-\-config\fR or
\fBNODE_PULSE_CONFIG\fR. A missing file means the built\-in defaults.
Run \fBnode\-pulse config init\fR to write them out.
.PP
Settings are layered: defaults, the file, dotenv files, environment
variables, then flags.
.SS node
.TP
.B process_name
Exact OS process name of the node. Default: "deoxys".
.TP
.B rpc_endpoint
JSON\-RPC URL of the node; http, https, ws and wss are accepted.
Default: "http://localhost:9944".
.TP
.B storage_path
The node's data directory. Default: ~/.deoxys.
.SS sampling
.TP
.B window_size
Samples kept per chart. Default: 100.
.TP
.B tick_interval
Time between tick starts. Default: "1s".
.TP
.B input_poll
Upper bound of one wait for the quit key. Default: "50ms".
.TP
.B rpc_timeout
Upper bound of one RPC call. Default: "3s".
.SS rpc
.TP
.B query_block_number
Also ask for the latest block number each tick. Default: true.
.SS storage
.TP
.B refresh_interval
Time between two walks of the storage directory. Default: "10s".
.TP
.B cache_dir
Where the last measured size is kept across runs. Default: ~/.cache/node\-pulse.
.TP
.B cache_ttl
Oldest persisted size used at startup. Default: "10m".
.SS display
.TP
.B smoothing_span
Moving average window of the charts, in samples. Default: 7.
.TP
.B mode
"tui" or "plain". Default: "tui".
.SS log
.TP
.B file
Log file path. Default: ~/.local/state/node\-pulse/node\-pulse.log.
.TP
.B level
"debug", "info", "warn" or "error". Default: "info".
`)
}

func writeFiles(b *strings.Builder) {
	b.WriteString(`.SH FILES
.TP
.I ~/.config/node\-pulse/config.yaml
Primary configuration file (YAML).
.TP
.I ~/.cache/node\-pulse/storage.json
Last measured storage size, used to fill the storage panel at startup.
.TP
.I ~/.local/state/node\-pulse/node\-pulse.log
Log file. The dashboard owns the terminal, so nothing is logged to it.
.TP
.I .env
Read from the working directory before environment overrides apply.
`)
}

func writeEnvironment(b *strings.Builder) {
	b.WriteString(`.SH ENVIRONMENT
.TP
.B NODE_PULSE_CONFIG
Override path to the configuration file.
.TP
.B NODE_PULSE_RPC_ENDPOINT
Override node.rpc_endpoint.
.TP
.B NODE_PULSE_PROCESS
Override node.process_name.
.TP
.B NODE_PULSE_STORAGE_PATH
Override node.storage_path.
.TP
.B NO_COLOR
Disable color output when set to any value.
.TP
.B COLUMNS\fR, \fBLINES
Terminal size used when it cannot be queried.
`)
}

func writeExamples(b *strings.Builder) {
	b.WriteString(`.SH EXAMPLES
Watch a local node:
.PP
.nf
node\-pulse
.fi
.PP
Watch a node over WebSocket with a custom process name:
.PP
.nf
node\-pulse \-\-rpc ws://127\&.0\&.0\&.1:9945 \-\-process juno
.fi
.PP
Append plain frames to a file:
.PP
.nf
node\-pulse \-\-plain > node\-pulse\&.txt
.fi
.PP
Check connectivity once:
.PP
.nf
node\-pulse diagnose
.fi
.PP
Install this man page:
.PP
.nf
node\-pulse man > ~/.local/share/man/man1/node\-pulse\&.1
.fi
`)
}

func writeExitStatus(b *strings.Builder) {
	b.WriteString(".SH EXIT STATUS\n")
	b.WriteString(".TP\n.B 0\n")
	b.WriteString("The dashboard was quit, or every \\fBdiagnose\\fR check passed.\n")
	b.WriteString(".TP\n.B 1\n")
	b.WriteString("Invalid configuration, a terminal failure, or a failed \\fBdiagnose\\fR check.\n")
}

func writeSeeAlso(b *strings.Builder) {
	b.WriteString(`.SH SEE ALSO
.BR du (1),
.BR top (1)
`)
}

func writeBugs(b *strings.Builder) {
	b.WriteString(`.SH BUGS
Report bugs at <https://gitlab.com/tinyland/lab/node\-pulse/\-/issues>.
`)
}

func writeFooter(b *strings.Builder, p Page) {
	fmt.Fprintf(b, ".SH VERSION\n%s (%s) built %s\n", p.Version, p.Commit, p.Date)
}
