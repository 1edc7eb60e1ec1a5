package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
	"github.com/avatarctic/anonymous-confessions/internal/infrastructure/render"
)

var (
	renderText    string
	renderOut     string
	renderOverlay bool
)

// renderCmd writes the image a confession would be published as
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a confession image locally",
	Long: `Render a confession exactly as the service would and write the JPEG to --out.
Nothing is published. Use --overlay to also print the escaped SVG text layer.`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderText, "text", "", "Confession text (10-500 characters)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "confession.jpg", "Output file")
	renderCmd.Flags().BoolVar(&renderOverlay, "overlay", false, "Print the overlay markup")
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := confession.ValidateText(renderText); err != nil {
		return err
	}

	out, err := filepath.Abs(renderOut)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	// Render next to the destination so the final rename stays on one filesystem.
	r, err := render.NewRenderer(&render.Config{Dir: filepath.Dir(out)}, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	img, err := r.Render(ctx, renderText)
	if err != nil {
		return err
	}
	if err := os.Rename(img.Path, out); err != nil {
		_ = os.Remove(img.Path)
		return fmt.Errorf("move rendered image: %w", err)
	}

	if renderOverlay {
		fmt.Fprintln(cmd.OutOrStdout(), r.Overlay(renderText))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	return nil
}
