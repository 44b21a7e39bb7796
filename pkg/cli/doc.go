// Package cli provides the shared plumbing of the oggmux command-line tool.
//
// This package includes:
//   - Configuration contexts carrying codec limits and storage settings
//   - Output formatting (YAML, JSON, table, raw)
//   - Job file loading (YAML/JSON)
//   - Formatting helpers for serials, granules and page flags
//
// Configuration is stored in ~/.oggmux/<app>/, supporting multiple
// contexts similar to kubectl.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("oggmux")
//	ctx, err := cfg.ResolveContext("")
//	dec := ogg.NewDecoder(r, ctx.SyncOptions())
//
//	cli.Output(report, cli.OutputOptions{Format: cli.FormatTable})
package cli
