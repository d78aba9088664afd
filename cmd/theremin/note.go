package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-theremin/synth"
)

var showGuide bool

var noteCmd = &cobra.Command{
	Use:   "note [frequency...]",
	Short: "Name the notes nearest to frequencies, or list the guide notes",
	Long: `Print the nearest equal-tempered note for each frequency in Hz.

With --guide, list the natural notes in the playable range together with the
right-hand height that plays them.

Examples:
  theremin note 440 523.25
  theremin note --guide --min-freq 110 --max-freq 880`,
	RunE: runNote,
}

func initNoteFlags() {
	noteCmd.Flags().BoolVar(&showGuide, "guide", false, "List guide notes for the frequency range")
}

func runNote(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if showGuide {
		params, err := loadParams(cmd)
		if err != nil {
			return err
		}
		for _, n := range synth.GuideNotes(params.MinFrequency, params.MaxFrequency) {
			fmt.Fprintf(out, "%-4s %8.2f Hz  y=%.3f\n", n.Name, n.Frequency, n.Position)
		}
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("expected at least one frequency or --guide")
	}
	for _, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("invalid frequency %q: %w", a, err)
		}
		fmt.Fprintf(out, "%s\t%s\n", a, synth.NoteName(f))
	}
	return nil
}
