package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/cosmoview/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <descriptor>",
	Short: "Render a view of a Deep Zoom image to PNG",
	Long: `Stitch the tiles visible in a view into a single PNG. The output has the
container's resolution and the view's rotation; parts of the container
outside the image are cropped.

Examples:
  # Home view of a 1280x800 container
  cosmoview snapshot https://tiles.example.com/mars.dzi -o mars.png

  # Zoomed in on a crater, rotated, written to stdout
  cosmoview snapshot mars.dzi --zoom 8 --center 0.31,0.22 --rotation 90 > crater.png`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	snapshotCmd.Flags().IntP("workers", "j", snapshot.DefaultWorkers, "concurrent tile downloads")
	addViewFlags(snapshotCmd)

	viper.BindPFlag("snapshot.workers", snapshotCmd.Flags().Lookup("workers"))
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	// Check if output is to terminal
	if output == "" && cmd.OutOrStdout() == os.Stdout {
		if stat, _ := os.Stdout.Stat(); stat != nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			return fmt.Errorf("didn't specify output file and standard output is a terminal")
		}
	}

	img, state, container, err := viewFromFlags(cmd, args[0])
	if err != nil {
		return err
	}

	r := snapshot.New(processorFor(cmd), viper.GetInt("snapshot.workers"), slog.Default())

	res, err := r.Render(cmd.Context(), snapshot.Options{
		Image:     *img,
		State:     state,
		Container: container,
	})
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	if err := snapshot.EncodePNG(bw, res); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	slog.Info("snapshot written",
		"level", res.Level,
		"tiles", res.Tiles,
		"width", res.Image.Bounds().Dx(),
		"height", res.Image.Bounds().Dy())
	return nil
}
