package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/cosmoview/internal/tiler"
	"github.com/kiesman99/cosmoview/pkg/tile"
)

var tileCmd = &cobra.Command{
	Use:   "tile <image|directory>",
	Short: "Generate Deep Zoom tile pyramids",
	Long: `Cut PNG, JPEG or TIFF images into Deep Zoom (DZI) tile pyramids.

For every input a <name>.dzi manifest and a <name>_files/ tile tree are
written to the output directory. Given a directory, every image in it is
tiled; images that fail are reported and skipped.

Examples:
  # Tile one image into ./dzi
  cosmoview tile mars.tif -o ./dzi

  # Tile a folder with JPEG tiles served from a CDN
  cosmoview tile ./raw -o ./dzi --format jpg --base-url https://tiles.example.com/dzi`,
	Args: cobra.ExactArgs(1),
	RunE: runTile,
}

func init() {
	rootCmd.AddCommand(tileCmd)

	def := tiler.DefaultOptions()
	tileCmd.Flags().StringP("output", "o", ".", "output directory")
	tileCmd.Flags().IntP("tilesize", "t", def.TileSize, "tile size in pixels")
	tileCmd.Flags().Int("overlap", def.Overlap, "tile overlap in pixels")
	tileCmd.Flags().StringP("format", "f", def.Format, "tile format (png|jpg)")
	tileCmd.Flags().String("base-url", "", "tile tree location written into the manifest")

	viper.BindPFlag("tiler.output", tileCmd.Flags().Lookup("output"))
	viper.BindPFlag("tiler.tile-size", tileCmd.Flags().Lookup("tilesize"))
	viper.BindPFlag("tiler.overlap", tileCmd.Flags().Lookup("overlap"))
	viper.BindPFlag("tiler.format", tileCmd.Flags().Lookup("format"))
	viper.BindPFlag("tiler.base-url", tileCmd.Flags().Lookup("base-url"))
}

func runTile(cmd *cobra.Command, args []string) error {
	gen, err := tiler.New(tiler.Options{
		TileSize: viper.GetInt("tiler.tile-size"),
		Overlap:  viper.GetInt("tiler.overlap"),
		Format:   viper.GetString("tiler.format"),
		BaseURL:  viper.GetString("tiler.base-url"),
		Logger:   slog.Default(),
	})
	if err != nil {
		return err
	}

	input := args[0]
	outDir := viper.GetString("tiler.output")
	info, err := os.Stat(input)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !info.IsDir() {
		res, err := gen.GenerateFile(cmd.Context(), input, outDir)
		if err != nil {
			return err
		}
		printResult(cmd, *res)
		return nil
	}

	results, err := gen.GenerateDir(cmd.Context(), input, outDir)
	for _, res := range results {
		printResult(cmd, res)
	}
	var batchErr *tiler.BatchError
	if errors.As(err, &batchErr) {
		for _, f := range batchErr.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %s\n", f.Path, f.Error)
		}
		fmt.Fprintf(out, "%d of %d images tiled\n", batchErr.Succeeded, batchErr.Total)
	}
	return err
}

func printResult(cmd *cobra.Command, res tiler.Result) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d, %d levels, %d tiles -> %s\n",
		res.Name, res.Image.Width, res.Image.Height, tile.MaxLevel(res.Image.Width, res.Image.Height)+1,
		res.Tiles, res.Descriptor)
}
