package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-nain/pkg/detection"
	"github.com/teslashibe/go-nain/pkg/proximity"
)

var detectCmd = &cobra.Command{
	Use:   "detect <image.jpg>",
	Short: "Run obstacle detection on an image",
	Long: `Run obstacle detection on a JPEG image and print the detections,
the obstacles that would be shown, and the beep cadence they would produce.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	jpeg, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	detector, closeDetector, err := newDetector(cfg)
	if err != nil {
		return err
	}
	defer closeDetector()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	dets, err := detector.Detect(ctx, jpeg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderDetections(dets, detection.NewFilter(cfg.Detection.Obstacles)))
	if interval, ok := proximity.Cadence(dets); ok {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("beep every %s", interval)))
	} else {
		fmt.Fprintln(out, labelStyle.Render("silent"))
	}
	return nil
}
