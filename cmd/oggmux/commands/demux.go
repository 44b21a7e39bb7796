package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/haivivi/oggmux/pkg/cli"
	"github.com/haivivi/oggmux/pkg/oggpk"
)

var demuxCmd = &cobra.Command{
	Use:   "demux <file>",
	Short: "Split an Ogg file into per-stream packet dumps",
	Long: `Demultiplex an Ogg file and write the packets of every logical stream to
<output>/<serial>.oggpk. The output may be a local directory or an s3://
prefix; it defaults to the working directory.

Chained files produce one dump per link. Gaps and broken pages are
reported and the packets they damage are left out.

Examples:
  oggmux demux talk.opus -o dumps/
  oggmux demux s3://media/in.ogg -o s3://media/dumps/in`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContext()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		src := args[0]

		r, err := openInput(ctx, c, src)
		if err != nil {
			return err
		}
		defer r.Close()

		dir := outputFile
		if dir == "" {
			dir = "."
		}
		open := func(serial uint32) (io.WriteCloser, error) {
			return createOutput(ctx, c, joinURI(dir, cli.FormatSerial(serial)+oggpk.Ext))
		}
		summaries, err := oggpk.Split(ctx, r, open, &oggpk.SplitOptions{
			Sync:   c.SyncOptions(),
			Source: src,
		})
		if err != nil {
			return err
		}
		return outputResult(demuxResult{Dir: dir, Streams: summaries}, cli.FormatTable)
	},
}

type demuxResult struct {
	Dir     string                 `json:"dir" yaml:"dir"`
	Streams []*oggpk.StreamSummary `json:"streams" yaml:"streams"`
}

func (d demuxResult) Table() *cli.Table {
	t := cli.NewTable("Dumps", "FILE", "PACKETS", "ENDED", "GAPS", "ERRORS")
	for _, s := range d.Streams {
		t.AddRow(
			joinURI(d.Dir, cli.FormatSerial(s.Serial)+oggpk.Ext),
			fmt.Sprint(s.Packets),
			fmt.Sprint(s.Ended),
			fmt.Sprint(s.Discontinuities),
			fmt.Sprint(s.Errors),
		)
	}
	t.Alert = func(row int) bool {
		s := d.Streams[row]
		return !s.Ended || s.Discontinuities > 0 || s.Errors > 0
	}
	return t
}
