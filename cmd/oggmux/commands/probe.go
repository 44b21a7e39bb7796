package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/oggmux/pkg/cli"
	"github.com/haivivi/oggmux/pkg/inspect"
)

var probeCmd = &cobra.Command{
	Use:   "probe <file>...",
	Short: "Report on the logical streams of Ogg files",
	Long: `Scan Ogg files and report, per logical stream, page and packet counts,
granule range, BOS/EOS state, gaps and errors.

Files are probed concurrently. With --record each report is saved to the
catalog of the current context.

Examples:
  oggmux probe talk.opus
  oggmux probe -j 8 --record s3://media/2024/*.ogg
  oggmux probe talk.opus --jq '.streams[] | select(.errors > 0) | .serial'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProbe,
}

var (
	probeJobs   int
	probeRecord bool
	probeJQ     string
)

func init() {
	probeCmd.Flags().IntVarP(&probeJobs, "jobs", "j", 4, "files probed in parallel")
	probeCmd.Flags().BoolVar(&probeRecord, "record", false, "save the reports to the catalog")
	probeCmd.Flags().StringVar(&probeJQ, "jq", "", "filter the report with a jq expression")
}

func runProbe(cmd *cobra.Command, args []string) error {
	c, err := getContext()
	if err != nil {
		return err
	}

	var query *gojq.Query
	if probeJQ != "" {
		if query, err = gojq.Parse(probeJQ); err != nil {
			return fmt.Errorf("invalid jq expression %q: %w", probeJQ, err)
		}
	}

	reports := make([]*inspect.Report, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(1, probeJobs))
	for i, uri := range args {
		g.Go(func() error {
			rep, err := probeFile(ctx, c, uri)
			if err != nil {
				return fmt.Errorf("%s: %w", uri, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, rep := range reports {
		if !rep.Healthy() {
			cli.PrintWarning(os.Stderr, "%s: damaged or incomplete", rep.Source)
		}
	}

	if probeRecord {
		if err := recordReports(cmd.Context(), c, reports); err != nil {
			return err
		}
	}

	var data any = reports
	if len(reports) == 1 {
		data = reports[0]
	}
	if query != nil {
		return runJQ(cmd.Context(), query, data)
	}
	if reportFormat(cli.FormatTable) == cli.FormatTable {
		return outputResult(probeResult(reports), cli.FormatTable)
	}
	return outputResult(data, cli.FormatTable)
}

func probeFile(ctx context.Context, c *cli.Context, uri string) (*inspect.Report, error) {
	r, err := openInput(ctx, c, uri)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	logger := slog.Default().With("source", uri)
	rep, err := inspect.Probe(ctx, r, &inspect.Options{Sync: c.SyncOptions(), Logger: logger})
	if err != nil {
		return nil, err
	}
	rep.Source = uri
	logger.Debug("probed", "pages", rep.Pages, "streams", len(rep.Streams))
	return rep, nil
}

func recordReports(ctx context.Context, c *cli.Context, reports []*inspect.Report) error {
	cat, closeCatalog, err := openCatalog(c)
	if err != nil {
		return err
	}
	defer closeCatalog()

	for _, rep := range reports {
		scan, err := cat.Record(ctx, rep)
		if err != nil {
			return fmt.Errorf("record %s: %w", rep.Source, err)
		}
		slog.Info("recorded scan", "id", scan.ID, "source", rep.Source)
	}
	return nil
}

// runJQ evaluates query over data and prints every result as JSON.
func runJQ(ctx context.Context, query *gojq.Query, data any) error {
	// gojq only accepts plain maps, slices and scalars.
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	iter := query.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("jq: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}

type probeResult []*inspect.Report

func (p probeResult) Table() *cli.Table {
	t := cli.NewTable("Streams", "SOURCE", "SERIAL", "PAGES", "PACKETS", "BYTES", "GRANULE", "FLAGS", "ISSUES")
	var alerts []bool
	var skipped int64
	for _, rep := range p {
		skipped += rep.SkippedBytes
		if len(rep.Streams) == 0 {
			issue := "no streams"
			if rep.Fatal != "" {
				issue = rep.Fatal
			}
			t.AddRow(rep.Source, "-", "-", "-", "-", "-", "-", issue)
			alerts = append(alerts, true)
			continue
		}
		for _, s := range rep.Streams {
			issue := streamIssues(s)
			if rep.Fatal != "" {
				issue = rep.Fatal
			}
			t.AddRow(
				rep.Source,
				cli.FormatSerial(s.Serial),
				fmt.Sprint(s.Pages),
				fmt.Sprint(s.Packets),
				cli.FormatBytes(s.PacketBytes),
				cli.FormatGranule(s.FirstGranule)+".."+cli.FormatGranule(s.LastGranule),
				cli.FormatFlags(s.BOS, s.EOS, false),
				issue,
			)
			alerts = append(alerts, !s.Healthy() || rep.Fatal != "")
		}
	}
	t.Alert = func(row int) bool { return alerts[row] }
	t.Footer = fmt.Sprintf("%d file(s), %s skipped", len(p), cli.FormatBytes(skipped))
	return t
}

func streamIssues(s *inspect.StreamReport) string {
	switch {
	case s.LastError != "":
		return s.LastError
	case s.Discontinuities > 0:
		return fmt.Sprintf("%d gap(s)", s.Discontinuities)
	case !s.EOS:
		return "unterminated"
	default:
		return ""
	}
}
