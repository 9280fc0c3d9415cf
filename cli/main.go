// Command gptew merges Google Takeout JSON sidecar metadata into the
// EXIF of the exported JPEG files.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core/jpg"
	"github.com/SegfaultSorcerer/google-photos-takeout-exif-writer/core/scan"
)

var applyOpts = scan.Options{}
var localTime bool

var rootCmd = &cobra.Command{
	Use:   "gptew",
	Short: "Google Photos Takeout EXIF writer",
	Long: `gptew writes the metadata Google Takeout exports as JSON sidecars
(capture time, GPS coordinates) back into the JPEG files' EXIF, and can
synchronize file modification times to the capture time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var applyCmd = &cobra.Command{
	Use:   "apply <dir>",
	Short: "Merge sidecar metadata into the media files under <dir>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if localTime {
			applyOpts.Location = time.Local
		} else {
			applyOpts.Location = time.UTC
		}
		_, err := scan.New(applyOpts).Run(args[0])
		return err
	},
}

var viewCmd = &cobra.Command{
	Use:   "view <image.jpg>",
	Short: "Print all EXIF fields of a JPEG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return jpg.ViewEXIF(args[0], os.Stdout)
	},
}

func init() {
	flags := applyCmd.Flags()
	flags.BoolVar(&applyOpts.Recursive, "recursive", true, "descend into subdirectories")
	flags.BoolVar(&applyOpts.DryRun, "dry-run", true, "log intended changes without writing")
	flags.BoolVar(&applyOpts.Backup, "backup", false, "keep a .bak copy of each original")
	flags.BoolVar(&applyOpts.SetFileTimes, "set-filetimes", true, "set file mtime to the photo capture time")
	flags.IntVar(&applyOpts.Workers, "workers", 0, "worker pool size (0 = number of CPUs)")
	flags.BoolVar(&localTime, "local-time", false, "format EXIF timestamps in the host time zone instead of UTC")

	rootCmd.AddCommand(applyCmd, viewCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
