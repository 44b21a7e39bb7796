package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/oggmux/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

A context bundles scanner limits, page sizing, storage settings (including
S3 credentials) and the catalog location, similar to kubectl's context
management.

Configuration is stored in ~/.oggmux/oggmux/config.yaml`,
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with the specified name.

Example:
  oggmux config add-context local --max-garbage 1048576
  oggmux config add-context minio --s3-endpoint http://localhost:9000 \
      --s3-access-key minio --s3-secret-key minio123 --s3-path-style`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		flags := cmd.Flags()

		maxGarbage, err := flags.GetInt("max-garbage")
		if err != nil {
			return fmt.Errorf("failed to read 'max-garbage' flag: %w", err)
		}
		maxBuffered, err := flags.GetInt("max-buffered")
		if err != nil {
			return fmt.Errorf("failed to read 'max-buffered' flag: %w", err)
		}
		pageFill, err := flags.GetInt("page-fill")
		if err != nil {
			return fmt.Errorf("failed to read 'page-fill' flag: %w", err)
		}
		catalog, err := flags.GetString("catalog-dir")
		if err != nil {
			return fmt.Errorf("failed to read 'catalog-dir' flag: %w", err)
		}
		root, err := flags.GetString("storage-root")
		if err != nil {
			return fmt.Errorf("failed to read 'storage-root' flag: %w", err)
		}

		ctx := &cli.Context{CatalogDir: catalog}
		if maxGarbage > 0 || maxBuffered > 0 {
			ctx.Sync = &cli.SyncSettings{MaxGarbage: maxGarbage, MaxBuffered: maxBuffered}
		}
		if pageFill > 0 {
			ctx.Mux = &cli.MuxSettings{PageFill: pageFill}
		}

		s3, err := s3Flags(cmd)
		if err != nil {
			return err
		}
		if root != "" || s3 != nil {
			ctx.Storage = &cli.StorageSettings{Root: root, S3: s3}
		}

		cfg := getConfig()
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess(cmd.OutOrStdout(), "Context %q added successfully", name)
		return nil
	},
}

func s3Flags(cmd *cobra.Command) (*cli.S3Settings, error) {
	flags := cmd.Flags()
	var s cli.S3Settings
	for flag, dst := range map[string]*string{
		"s3-region":     &s.Region,
		"s3-endpoint":   &s.Endpoint,
		"s3-access-key": &s.AccessKey,
		"s3-secret-key": &s.SecretKey,
	} {
		v, err := flags.GetString(flag)
		if err != nil {
			return nil, fmt.Errorf("failed to read '%s' flag: %w", flag, err)
		}
		*dst = v
	}
	pathStyle, err := flags.GetBool("s3-path-style")
	if err != nil {
		return nil, fmt.Errorf("failed to read 's3-path-style' flag: %w", err)
	}
	s.PathStyle = pathStyle
	if s == (cli.S3Settings{}) {
		return nil, nil
	}
	if (s.AccessKey == "") != (s.SecretKey == "") {
		return nil, fmt.Errorf("--s3-access-key and --s3-secret-key must be given together")
	}
	return &s, nil
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg := getConfig()
		if err := cfg.DeleteContext(name); err != nil {
			return err
		}

		cli.PrintSuccess(cmd.OutOrStdout(), "Context %q deleted", name)
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg := getConfig()
		if err := cfg.UseContext(name); err != nil {
			return err
		}

		cli.PrintSuccess(cmd.OutOrStdout(), "Switched to context %q", name)
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()

		if cfg.CurrentContext == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No current context set")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), cfg.CurrentContext)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()

		names := cfg.ListContexts()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured")
			return nil
		}

		t := cli.NewTable("Contexts", "CURRENT", "NAME", "STORAGE", "PAGE_FILL", "CATALOG")
		for _, name := range names {
			ctx := cfg.Contexts[name]
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			storage := "(local)"
			if ctx.Storage != nil && ctx.Storage.S3 != nil {
				storage = "s3"
				if ctx.Storage.S3.Endpoint != "" {
					storage = ctx.Storage.S3.Endpoint
				}
			}
			pageFill := "(default)"
			if ctx.Mux != nil && ctx.Mux.PageFill > 0 {
				pageFill = fmt.Sprint(ctx.Mux.PageFill)
			}
			catalog := ctx.CatalogDir
			if catalog == "" {
				catalog = "(default)"
			}
			t.AddRow(current, name, storage, pageFill, catalog)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()

		fmt.Printf("Config file: %s\n", cfg.Path())
		fmt.Printf("Current context: %s\n", cfg.CurrentContext)
		fmt.Printf("Contexts: %d\n", len(cfg.Contexts))

		if len(cfg.Contexts) == 0 {
			return nil
		}
		fmt.Println()
		redacted := make(map[string]*cli.Context, len(cfg.Contexts))
		for name, ctx := range cfg.Contexts {
			redacted[name] = ctx.Redacted()
		}
		return cli.Output(redacted, cli.OutputOptions{
			Format: reportFormat(cli.FormatYAML),
			Writer: os.Stdout,
		})
	},
}

func init() {
	// add-context flags
	f := configAddContextCmd.Flags()
	f.Int("max-garbage", 0, "bytes of garbage tolerated before a stream is rejected")
	f.Int("max-buffered", 0, "maximum bytes the page scanner buffers")
	f.Int("page-fill", 0, "body size at which the muxer closes a page")
	f.String("catalog-dir", "", "catalog database directory")
	f.String("storage-root", "", "directory relative paths resolve against")
	f.String("s3-region", "", "S3 region")
	f.String("s3-endpoint", "", "S3 endpoint URL (for MinIO and other compatible servers)")
	f.String("s3-access-key", "", "S3 access key")
	f.String("s3-secret-key", "", "S3 secret key")
	f.Bool("s3-path-style", false, "use path-style S3 addressing")

	// Add subcommands
	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
}
