package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	flags      printFlags
)

// printFlags mirrors the config fields that can be set on the command line.
type printFlags struct {
	name        string
	dest        string
	mode        string
	source      string
	sourceURL   string
	monitorAddr string
	logLevel    string
}

var rootCmd = &cobra.Command{
	Use:   "fakeprinter",
	Short: "Simulate a 3D printer working through a layer plan",
	Long: `fakeprinter reads a CSV print plan one layer at a time, validates each
layer, and "prints" it by writing a JSON document and downloading the layer
image under <dest>/<name>.

In supervised mode the operator confirms every layer and decides whether to
ignore or end on a layer error. In automatic mode errors are logged and the
print continues. Ctrl-C stops the print within a fraction of a second and
still produces the summary.

Example:
  fakeprinter --name benchy --dest ./prints --mode automatic`,
	SilenceUsage: true,
	RunE:         runPrint,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration file commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the current settings",
	Long: `Writes a TOML file holding the defaults merged with the environment.
The path defaults to fakeprinter.toml in the working directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.name, "name", "", "print name; output goes to <dest>/<name>")
	f.StringVar(&flags.dest, "dest", "", "destination directory for print outputs")
	f.StringVar(&flags.mode, "mode", "", "supervised or automatic")
	f.StringVar(&flags.source, "source", "", "local plan CSV (default fake_print_data.csv)")
	f.StringVar(&flags.sourceURL, "source-url", "", "URL to download the plan from when the file is missing")
	f.StringVar(&flags.monitorAddr, "monitor-addr", "", "serve progress over HTTP on this address, e.g. :8090")
	f.StringVar(&flags.logLevel, "log-level", "", "console log level: debug, info, warn, error")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
