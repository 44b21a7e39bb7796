package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/oggmux/pkg/inspect"
)

var repairRenumber bool

var repairCmd = &cobra.Command{
	Use:   "repair <file>",
	Short: "Rewrite an Ogg file without garbage and broken pages",
	Long: `Copy the valid pages of an Ogg file to the output. Garbage between pages
and pages failing their checksum are skipped; pages that break their
logical stream are dropped. With --renumber, page sequence numbers of each
stream are made contiguous again so that players see no gaps.

Examples:
  oggmux repair damaged.opus -o fixed.opus --renumber
  cat damaged.ogg | oggmux repair - > fixed.ogg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getContext()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		r, err := openInput(ctx, c, args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		w, err := createOutput(ctx, c, outputFile)
		if err != nil {
			return err
		}
		rep, err := inspect.Repair(ctx, r, w, &inspect.RepairOptions{
			Options:  inspect.Options{Sync: c.SyncOptions()},
			Renumber: repairRenumber,
		})
		if err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		return reportWritten(outputFile, rep)
	},
}

func init() {
	repairCmd.Flags().BoolVar(&repairRenumber, "renumber", false, "make page sequence numbers contiguous")
}
