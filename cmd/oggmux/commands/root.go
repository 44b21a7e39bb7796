package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/haivivi/oggmux/pkg/cli"
)

const appName = "oggmux"

var (
	// Global flags
	cfgFile      string
	contextName  string
	outputFile   string
	inputFile    string
	outputJSON   bool
	outputFormat string
	verbose      bool
	force        bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oggmux",
	Short: "Ogg container toolkit",
	Long: `oggmux - inspect, split, join and repair Ogg files.

Files may be local paths or S3 objects (s3://bucket/key). S3 access, codec
limits and the catalog location come from the selected context.

Configuration is stored in ~/.oggmux/oggmux/ and supports multiple contexts,
similar to kubectl's context management.

Examples:
  # Probe a file and show a table
  oggmux probe talk.opus

  # Probe several files concurrently and record the reports
  oggmux probe --record a.ogg b.ogg s3://media/c.ogg

  # Pull one field out of the report
  oggmux probe talk.opus --jq '.streams[].packets'

  # Split into packet dumps, then join them back
  oggmux demux talk.opus -o dumps/
  oggmux mux dumps/*.oggpk -o rebuilt.opus
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initLogging, initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "config file (default is ~/.oggmux/oggmux/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file or directory (default: stdout)")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "input job file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "report format: yaml, json or table")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "overwrite existing outputs")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(demuxCmd)
	rootCmd.AddCommand(muxCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(catalogCmd)
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func initConfig() {
	var err error
	globalConfig, err = cli.LoadConfigWithPath(appName, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// getConfig returns the global configuration
func getConfig() *cli.Config {
	return globalConfig
}

// getContext returns the context configuration to use. Without -c and
// without a current context the built-in defaults apply.
func getContext() (*cli.Context, error) {
	cfg := getConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	ctx, err := cfg.ResolveContext(contextName)
	if err != nil {
		return nil, err
	}
	if ctx.Name != "" {
		slog.Debug("using context", "name", ctx.Name)
	}
	return ctx, nil
}

// catalogDir returns where the catalog database lives for ctx. Without
// an override it sits in the data directory next to the config file.
func catalogDir(ctx *cli.Context) string {
	if ctx.CatalogDir != "" {
		return ctx.CatalogDir
	}
	if cfgFile == "" {
		if paths, err := cli.NewPaths(appName); err == nil {
			return paths.CatalogDir()
		}
	}
	return filepath.Join(getConfig().Dir(), "data", "catalog")
}

// reportFormat picks the output format; fallback applies when neither
// --json nor --format is given.
func reportFormat(fallback cli.OutputFormat) cli.OutputFormat {
	switch {
	case outputJSON:
		return cli.FormatJSON
	case outputFormat != "":
		return cli.OutputFormat(outputFormat)
	default:
		return fallback
	}
}

// outputResult writes a report to stdout in the selected format.
func outputResult(result any, fallback cli.OutputFormat) error {
	return cli.Output(result, cli.OutputOptions{
		Format: reportFormat(fallback),
		Writer: os.Stdout,
	})
}
