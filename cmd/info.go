package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/cosmoview/pkg/tile"
)

var infoCmd = &cobra.Command{
	Use:   "info <descriptor>",
	Short: "Describe a Deep Zoom tile source",
	Long: `Load a DZI descriptor (XML or JSON, URL or local file) and print its
dimensions and pyramid layout.

Examples:
  cosmoview info https://tiles.example.com/mars.dzi
  cosmoview info ./dzi/moon.dzi --levels`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Bool("levels", false, "print every pyramid level")
	infoCmd.Flags().String("user-agent", "cosmoview/"+Version, "HTTP User-Agent for descriptor requests")
	infoCmd.Flags().Duration("timeout", 0, "descriptor request timeout (default tile.timeout)")

	viper.BindPFlag("info.levels", infoCmd.Flags().Lookup("levels"))
}

// processorFor builds a tile processor from the tile.* settings, letting the
// command's --user-agent and --timeout flags override them
func processorFor(cmd *cobra.Command) *tile.Processor {
	userAgent := viper.GetString("tile.user-agent")
	if f := cmd.Flags().Lookup("user-agent"); f != nil && (f.Changed || userAgent == "") {
		userAgent = f.Value.String()
	}
	timeout := viper.GetDuration("tile.timeout")
	if d, err := cmd.Flags().GetDuration("timeout"); err == nil && d > 0 {
		timeout = d
	}
	return tile.NewProcessor(userAgent, timeout)
}

func resolveDescriptor(cmd *cobra.Command, url string) (*tile.Image, error) {
	return processorFor(cmd).Resolve(cmd.Context(), url)
}

func runInfo(cmd *cobra.Command, args []string) error {
	img, err := resolveDescriptor(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Source:     %s\n", img.URL)
	fmt.Fprintf(out, "Size:       %dx%d\n", img.Width, img.Height)
	fmt.Fprintf(out, "Tile size:  %d (overlap %d)\n", img.TileSize, img.Overlap)
	fmt.Fprintf(out, "Format:     %s\n", img.Format)
	fmt.Fprintf(out, "Levels:     %d (0-%d)\n", img.MaxLevel()+1, img.MaxLevel())
	fmt.Fprintf(out, "Tiles:      %d\n", img.TileCount())
	fmt.Fprintf(out, "Tile URL:   %s\n", img.TileURLTemplate())

	if !viper.GetBool("info.levels") {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nLEVEL\tSIZE\tGRID\tTILES")
	for level := 0; level <= img.MaxLevel(); level++ {
		w, h := img.LevelSize(level)
		cols, rows := img.LevelTiles(level)
		fmt.Fprintf(tw, "%d\t%dx%d\t%dx%d\t%d\n", level, w, h, cols, rows, cols*rows)
	}
	return tw.Flush()
}
