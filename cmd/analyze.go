package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/deepfake-check/internal/apiclient"
	"github.com/example/deepfake-check/internal/config"
	"github.com/example/deepfake-check/internal/dataurl"
	"github.com/example/deepfake-check/internal/detection"
	"github.com/example/deepfake-check/internal/logging"
	"github.com/example/deepfake-check/internal/session"
)

type analyzeOptions struct {
	Endpoint    string
	OverlayPath string
	JSON        bool
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Upload an image and print the deepfake verdict for each face",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadClient()
		if cmd.Flags().Changed("endpoint") {
			cfg.Endpoint = analyzeOpts.Endpoint
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger := logging.NewCLILogger(cfg.LogLevel)
		defer logger.Sync() //nolint:errcheck

		return runAnalyze(cmd, args[0], cfg, analyzeOpts, logger)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOpts.Endpoint, "endpoint", "e", "", "API base URL (default $DEEPFAKE_API_ENDPOINT)")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.OverlayPath, "overlay", "o", "", "Write a copy of the image with face boxes drawn to this path")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.JSON, "json", false, "Print the raw response instead of the rendered cards")
	rootCmd.AddCommand(analyzeCmd)
}

// errNotImage mirrors the image/* filter of a file picker.
var errNotImage = errors.New("selected file is not an image")

func runAnalyze(cmd *cobra.Command, path string, cfg config.Client, opts analyzeOptions, logger *zap.Logger) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	spin := newSpinner(stderr)
	defer spin.Stop()

	client := apiclient.New(cfg.Endpoint, logger)
	ctrl := session.NewController(client, logger, session.WithOnChange(func(s session.State) {
		if s.Phase() == session.PhaseLoading {
			spin.Start("Analyzing...")
			return
		}
		spin.Stop()
	}))

	if err := ctrl.SelectFile(ctx, path); err != nil {
		return err
	}
	if mt := dataurl.MediaType(session.ImageOf(ctrl.State())); !strings.HasPrefix(mt, "image/") {
		return fmt.Errorf("%w: %s is %s", errNotImage, path, mt)
	}

	logger.Debug("uploading", zap.String("url", client.URL()))
	switch s := ctrl.Upload(ctx).(type) {
	case session.Failed:
		return errors.New(s.Message)
	case session.Succeeded:
		return printResult(stdout, stderr, path, s.Result, opts, logger)
	default:
		return fmt.Errorf("upload did not settle (state %s)", s.Phase())
	}
}

func printResult(stdout, stderr io.Writer, path string, result *detection.Response, opts analyzeOptions, logger *zap.Logger) error {
	if opts.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	report, ok := detection.Render(result)
	if !ok {
		logger.Info("response carried no detection result")
		return nil
	}
	if !opts.JSON {
		if err := detection.WriteText(stdout, report); err != nil {
			return err
		}
	}

	if opts.OverlayPath == "" {
		return nil
	}
	src, err := detection.LoadImage(path)
	if err != nil {
		return fmt.Errorf("load image for overlay: %w", err)
	}
	if err := detection.SaveOverlay(src, report, opts.OverlayPath); err != nil {
		return fmt.Errorf("write overlay: %w", err)
	}
	fmt.Fprintf(stderr, "Overlay written to %s\n", opts.OverlayPath)
	return nil
}
