// Package commands implements the smbmount command line.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// options holds the values of the global flags.
type options struct {
	configFile   string
	username     string
	password     string
	domain       string
	port         int
	timeout      string
	logLevel     string
	treeConnect  bool
	singleFlight bool
	metricsAddr  string
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "smbmount [smb://host/share ...]",
	Short: "Resolve and mount SMB disk shares",
	Long: `smbmount validates smb:// addresses, resolves each one to a disk share
on the remote host and mounts it.

With arguments, every address is mounted once and the command exits non-zero
if any mount failed. Without arguments, addresses are read from standard
input one per line and mounted concurrently as they arrive.

Configuration is read from --config (YAML), then SMBMOUNT_* environment
variables, then command line flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMount,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (YAML)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	local := rootCmd.Flags()
	local.StringVarP(&opts.username, "user", "u", "", "username for NTLM authentication")
	local.StringVarP(&opts.password, "password", "p", "", "password for NTLM authentication")
	local.StringVar(&opts.domain, "domain", "", "authentication domain")
	local.IntVar(&opts.port, "port", 0, "SMB port used when the address has none (default 445)")
	local.StringVar(&opts.timeout, "timeout", "", "bound on the remote query, e.g. 30s (default 60s)")
	local.BoolVar(&opts.treeConnect, "tree-connect", false, "verify each share with an SMB tree connect")
	local.BoolVar(&opts.singleFlight, "single-flight", false, "share one resolution among concurrent requests for the same address")
	local.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")

	rootCmd.AddCommand(versionCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}
