package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/oggmux/pkg/catalog"
	"github.com/haivivi/oggmux/pkg/cli"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse recorded probe reports",
	Long: `Browse the probe reports saved with 'oggmux probe --record'.

The catalog lives in ~/.oggmux/oggmux/data/catalog unless the context
sets catalog_dir.`,
}

var catalogLimit int

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent scans, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(cat *catalog.Catalog) error {
			scans, err := cat.Recent(cmd.Context(), catalogLimit)
			if err != nil {
				return err
			}
			return outputResult(scanList(scans), cli.FormatTable)
		})
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(cat *catalog.Catalog) error {
			scan, err := cat.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if reportFormat(cli.FormatTable) == cli.FormatTable {
				return outputResult(probeResult{scan.Report}, cli.FormatTable)
			}
			return outputResult(scan, cli.FormatYAML)
		})
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(func(cat *catalog.Catalog) error {
			if err := cat.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "Scan %s deleted", args[0])
			return nil
		})
	},
}

var catalogSerialCmd = &cobra.Command{
	Use:   "serial <serial>",
	Short: "List scans that saw a stream serial",
	Long: `List the scans containing a logical stream with the given serial,
written in hex as shown by probe.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serial, err := cli.ParseSerial(args[0])
		if err != nil {
			return err
		}
		return withCatalog(func(cat *catalog.Catalog) error {
			ids, err := cat.BySerial(cmd.Context(), serial)
			if err != nil {
				return err
			}
			scans := make(scanList, 0, len(ids))
			for _, id := range ids {
				scan, err := cat.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				scans = append(scans, scan)
			}
			return outputResult(scans, cli.FormatTable)
		})
	},
}

func withCatalog(fn func(*catalog.Catalog) error) error {
	c, err := getContext()
	if err != nil {
		return err
	}
	cat, closeCatalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer closeCatalog()
	return fn(cat)
}

type scanList []*catalog.Scan

func (s scanList) Table() *cli.Table {
	t := cli.NewTable("Scans", "ID", "CREATED", "SOURCE", "STREAMS", "PAGES", "STATUS")
	for _, scan := range s {
		status := "ok"
		if !scan.Report.Healthy() {
			status = "damaged"
		}
		t.AddRow(
			scan.ID,
			scan.Created.Local().Format(time.DateTime),
			scan.Report.Source,
			fmt.Sprint(len(scan.Report.Streams)),
			fmt.Sprint(scan.Report.Pages),
			status,
		)
	}
	t.Alert = func(row int) bool { return !s[row].Report.Healthy() }
	t.Footer = fmt.Sprintf("%d scan(s)", len(s))
	return t
}

func init() {
	catalogListCmd.Flags().IntVarP(&catalogLimit, "limit", "n", 20, "maximum scans to list")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogDeleteCmd)
	catalogCmd.AddCommand(catalogSerialCmd)
}
