package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ironsheep/lane-drift/internal/config"
	"github.com/ironsheep/lane-drift/internal/detection"
	"github.com/ironsheep/lane-drift/internal/imaging"
	"github.com/ironsheep/lane-drift/internal/logging"
	"github.com/ironsheep/lane-drift/internal/pipeline"
	"github.com/ironsheep/lane-drift/internal/pose"
	"github.com/ironsheep/lane-drift/internal/report"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("lane-drift %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp(os.Stdout)
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, afero.NewOsFs(), os.Args[1:], os.LookupEnv, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "lane-drift: %v\n", err)
		os.Exit(1)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "lane-drift - lateral lane offset from dash-camera frames")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: lane-drift [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -config FILE     JSON configuration file")
	fmt.Fprintln(w, "  -frames DIR      Directory of input frames")
	fmt.Fprintln(w, "  -out DIR         Directory for results and overlays")
	fmt.Fprintln(w, "  -overlays        Write an annotated PNG per frame")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %s=DIR    Directory of input frames\n", config.EnvFramesDir)
	fmt.Fprintf(w, "  %s=N         Concurrent frames\n", config.EnvWorkers)
	fmt.Fprintf(w, "  %s=DIR    Directory for results\n", config.EnvOutputDir)
}

// run loads the configuration, processes every frame and writes the
// results. Flags override the environment, which overrides the file.
func run(ctx context.Context, fs afero.Fs, args []string, lookup func(string) (string, bool), stderr io.Writer) error {
	flags := flag.NewFlagSet("lane-drift", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "JSON configuration file")
	framesDir := flags.String("frames", "", "directory of input frames")
	outDir := flags.String("out", "", "directory for results and overlays")
	overlays := flags.Bool("overlays", false, "write an annotated PNG per frame")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	configDir := ""
	if *configPath != "" {
		loaded, err := config.Load(fs, *configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		configDir = filepath.Dir(*configPath)
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return err
	}
	if *framesDir != "" {
		cfg.Frames.Dir = *framesDir
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *overlays {
		cfg.Output.Overlays = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, stderr)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
	}).Debug("lane-drift starting")

	intrinsics, err := pose.LoadIntrinsics(fs, cfg.IntrinsicsPath(configDir))
	if err != nil {
		return err
	}

	left, right, err := cfg.BuildStrips()
	if err != nil {
		return err
	}
	estimator, err := detection.NewEstimator(cfg.RANSAC)
	if err != nil {
		return err
	}
	detector := detection.NewDetector(left, right, estimator)

	processor, err := pipeline.NewProcessor(cfg.Edges, detector, intrinsics, cfg.Pose.Correspondences)
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	opts := []pipeline.RunnerOption{
		pipeline.WithWorkers(cfg.Frames.Workers),
		pipeline.WithLogger(log),
	}
	if cfg.Output.Overlays {
		observer, err := pipeline.NewOverlayObserver(fs, filepath.Join(cfg.Output.Dir, "overlays"), detector, cfg.Output.Palette)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithObserver(observer))
	}

	source := imaging.NewFrameSource(fs, cfg.Frames.Dir, cfg.Frames.Pattern)
	result, runErr := pipeline.NewRunner(source, processor, opts...).Run(ctx)
	if result == nil {
		return runErr
	}

	if err := writeResults(fs, cfg, result); err != nil {
		return err
	}

	summary := report.Summarize(result)
	log.WithFields(logrus.Fields{
		"run_id":      result.ID,
		"frames":      summary.Frames,
		"ok":          summary.OK,
		"mean_offset": summary.MeanOffset,
		"std_offset":  summary.StdDevOffset,
	}).Info("results written")

	return runErr
}

func writeResults(fs afero.Fs, cfg *config.Config, result *pipeline.Run) error {
	name := "results." + cfg.Output.Format
	write := report.WriteCSV
	if cfg.Output.Format == config.FormatJSON {
		write = report.WriteJSON
	}
	if err := writeFile(fs, filepath.Join(cfg.Output.Dir, name), func(w io.Writer) error {
		return write(w, result)
	}); err != nil {
		return err
	}

	if !cfg.Output.Chart {
		return nil
	}
	return writeFile(fs, filepath.Join(cfg.Output.Dir, "offset.png"), func(w io.Writer) error {
		return report.WriteChart(w, result, report.ChartWidth, report.ChartHeight)
	})
}

func writeFile(fs afero.Fs, path string, write func(io.Writer) error) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
