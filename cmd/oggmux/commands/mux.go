package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/oggmux/pkg/cli"
	"github.com/haivivi/oggmux/pkg/ogg"
	"github.com/haivivi/oggmux/pkg/oggpk"
)

var muxCmd = &cobra.Command{
	Use:   "mux [dump]...",
	Short: "Interleave packet dumps into one Ogg file",
	Long: `Mux packet dumps (as written by demux) into one Ogg file. Each dump
becomes a logical stream with the serial recorded in it.

Streams can also be described in a job file:

  output: s3://media/out.opus
  page_fill: 4096
  streams:
    - file: dumps/1a2b3c4d.oggpk
    - file: dumps/00000001.oggpk
      serial: "0000beef"
    - file: other.oggpk
      new_serial: true

Examples:
  oggmux mux dumps/*.oggpk -o rebuilt.opus
  oggmux mux -f job.yaml`,
	RunE: runMux,
}

var muxNewSerials bool

func init() {
	muxCmd.Flags().BoolVar(&muxNewSerials, "new-serials", false, "give every stream a fresh random serial")
}

type muxJob struct {
	Output   string      `json:"output,omitempty" yaml:"output,omitempty"`
	PageFill int         `json:"page_fill,omitempty" yaml:"page_fill,omitempty"`
	Streams  []muxStream `json:"streams" yaml:"streams"`
}

type muxStream struct {
	File      string `json:"file" yaml:"file"`
	Serial    string `json:"serial,omitempty" yaml:"serial,omitempty"`
	NewSerial bool   `json:"new_serial,omitempty" yaml:"new_serial,omitempty"`
}

func loadMuxJob(args []string) (*muxJob, error) {
	job := &muxJob{}
	if inputFile != "" {
		if err := cli.LoadRequest(inputFile, job); err != nil {
			return nil, err
		}
	}
	for _, a := range args {
		job.Streams = append(job.Streams, muxStream{File: a, NewSerial: muxNewSerials})
	}
	if outputFile != "" {
		job.Output = outputFile
	}
	if len(job.Streams) == 0 {
		return nil, fmt.Errorf("no streams: pass dumps as arguments or use -f")
	}
	return job, nil
}

func runMux(cmd *cobra.Command, args []string) error {
	c, err := getContext()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	job, err := loadMuxJob(args)
	if err != nil {
		return err
	}

	sources := make([]oggpk.Source, 0, len(job.Streams))
	for _, s := range job.Streams {
		r, err := openInput(ctx, c, s.File)
		if err != nil {
			return err
		}
		defer r.Close()
		pr, err := oggpk.NewReader(r)
		if err != nil {
			return fmt.Errorf("%s: %w", s.File, err)
		}
		src := oggpk.Source{Name: s.File, Reader: pr, NewSerial: s.NewSerial}
		if s.Serial != "" {
			serial, err := cli.ParseSerial(s.Serial)
			if err != nil {
				return fmt.Errorf("%s: %w", s.File, err)
			}
			src.Serial = &serial
		}
		sources = append(sources, src)
	}

	muxOpts := c.MuxerOptions()
	if job.PageFill > 0 {
		muxOpts = &ogg.MuxerOptions{PageFill: job.PageFill}
	}

	w, err := createOutput(ctx, c, job.Output)
	if err != nil {
		return err
	}
	sum, err := oggpk.Join(ctx, w, sources, &oggpk.JoinOptions{Muxer: muxOpts})
	if err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return reportWritten(job.Output, sum)
}

// reportWritten prints a command summary, or logs it when the Ogg data
// itself went to standard output.
func reportWritten(output string, summary any) error {
	if output == "" || output == "-" {
		slog.Info("done", "summary", summary)
		return nil
	}
	cli.PrintSuccess(os.Stderr, "Wrote %s", output)
	return outputResult(summary, cli.FormatYAML)
}
