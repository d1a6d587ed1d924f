package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiesman99/cosmoview/pkg/tile"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

var convertCmd = &cobra.Command{
	Use:   "convert <descriptor>",
	Short: "Map a point between screen and image pixels",
	Long: `Map a container point to image pixels for a viewport state, or an image
pixel to the container with --from-image.

Without --zoom and --center the home view is used: the whole image fitted
into the container and centered.

Examples:
  # Which image pixel is under the cursor at 640,400 in the home view?
  cosmoview convert https://tiles.example.com/mars.dzi --x 640 --y 400

  # Where does image pixel 1200,800 land at zoom 4, rotated 90 degrees?
  cosmoview convert mars.dzi --from-image --x 1200 --y 800 --zoom 4 --rotation 90`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().Float64("x", 0, "x coordinate of the input point")
	convertCmd.Flags().Float64("y", 0, "y coordinate of the input point")
	convertCmd.Flags().Bool("from-image", false, "input point is in image pixels")
	addViewFlags(convertCmd)
}

// addViewFlags registers the flags describing a container and a viewport
// state
func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("width", 1280, "container width in pixels")
	cmd.Flags().Float64("height", 800, "container height in pixels")
	cmd.Flags().Float64("zoom", 0, "zoom level (default: fit the image)")
	cmd.Flags().Float64Slice("center", nil, "viewport center as x,y in viewport coordinates (default: image center)")
	cmd.Flags().Int("rotation", 0, "rotation in degrees, a multiple of 90")
	cmd.Flags().String("user-agent", "cosmoview/"+Version, "HTTP User-Agent for descriptor requests")
	cmd.Flags().Duration("timeout", 0, "descriptor request timeout (default tile.timeout)")
}

// viewFromFlags resolves the descriptor and returns the container and the
// state the view flags describe. Zoom and center default to the home view.
func viewFromFlags(cmd *cobra.Command, url string) (*tile.Image, viewport.State, viewport.Size, error) {
	flags := cmd.Flags()
	width, _ := flags.GetFloat64("width")
	height, _ := flags.GetFloat64("height")
	zoom, _ := flags.GetFloat64("zoom")
	center, _ := flags.GetFloat64Slice("center")
	rotation, _ := flags.GetInt("rotation")

	container := viewport.Size{Width: width, Height: height}
	if container.Empty() {
		return nil, viewport.State{}, container, fmt.Errorf("container must have a positive size, got %vx%v", width, height)
	}
	rotation, err := viewport.NormalizeRotation(rotation)
	if err != nil {
		return nil, viewport.State{}, container, err
	}
	if len(center) != 0 && len(center) != 2 {
		return nil, viewport.State{}, container, fmt.Errorf("center must be x,y")
	}

	img, err := resolveDescriptor(cmd, url)
	if err != nil {
		return nil, viewport.State{}, container, err
	}

	state := viewport.State{
		Center:   viewport.ImageCenter(*img),
		Zoom:     viewport.FitZoom(*img, container, rotation),
		Rotation: rotation,
	}
	if zoom > 0 {
		state.Zoom = zoom
	}
	if len(center) == 2 {
		state.Center = viewport.Point{X: center[0], Y: center[1]}
	}
	return img, state, container, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	x, _ := flags.GetFloat64("x")
	y, _ := flags.GetFloat64("y")
	fromImage, _ := flags.GetBool("from-image")

	img, state, container, err := viewFromFlags(cmd, args[0])
	if err != nil {
		return err
	}

	p := viewport.Point{X: x, Y: y}
	screen, imagePt := p, p
	if fromImage {
		screen = viewport.ImageToScreen(p, state, *img, container)
	} else {
		imagePt = viewport.ScreenToImage(p, state, *img, container)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "State:   center %s, zoom %g, rotation %d\n", state.Center, state.Zoom, state.Rotation)
	fmt.Fprintf(out, "Screen:  %s\n", screen)
	fmt.Fprintf(out, "Image:   %s\n", imagePt)
	fmt.Fprintf(out, "Inside:  %t\n", viewport.ContainsImagePoint(imagePt, *img))
	return nil
}
