package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plexutils/youtube-hydrator/pkg/youtube"
)

var extractStrict bool

var extractCmd = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Extract YouTube video IDs from file names",
	Long: `Extract pulls the 11-character video ID out of media file names, the
way yt-dlp style archives embed them: [dQw4w9WgXcQ], (dQw4w9WgXcQ), or
a _dQw4w9WgXcQ suffix before the extension.

Paths come from arguments or from stdin when none are given. Each hit
prints "path<TAB>id" to stdout; misses go to stderr. The command is
fully offline and pairs with hydrate:

  youtube-hydrator extract *.mp4 | cut -f2 | youtube-hydrator hydrate`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractStrict, "strict", false, "exit nonzero if any path lacks a video ID")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		var err error
		paths, err = readIDLines(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no paths given: pass them as arguments or on stdin")
	}

	missing := 0
	for _, path := range paths {
		id, ok := youtube.ExtractVideoID(path)
		if !ok {
			missing++
			fmt.Fprintf(cmd.ErrOrStderr(), "no video id in %q\n", path)
			continue
		}
		cmd.Printf("%s\t%s\n", path, id)
	}

	if extractStrict && missing > 0 {
		return fmt.Errorf("%d of %d paths had no recognizable video id", missing, len(paths))
	}
	return nil
}
