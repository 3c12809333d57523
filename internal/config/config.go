package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ironsheep/lane-drift/internal/detection"
	"github.com/ironsheep/lane-drift/internal/imaging"
	"github.com/ironsheep/lane-drift/internal/pose"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment variables consulted by ApplyEnv.
const (
	EnvLogLevel  = "LANE_DRIFT_LOG_LEVEL"
	EnvFramesDir = "LANE_DRIFT_FRAMES_DIR"
	EnvWorkers   = "LANE_DRIFT_WORKERS"
	EnvOutputDir = "LANE_DRIFT_OUTPUT_DIR"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Result file formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the root configuration of a lane-drift run.
type Config struct {
	Frames  FramesConfig           `json:"frames"`
	Edges   imaging.EdgeConfig     `json:"edges"`
	Strips  StripsConfig           `json:"strips"`
	RANSAC  detection.RANSACConfig `json:"ransac"`
	Pose    PoseConfig             `json:"pose"`
	Output  OutputConfig           `json:"output"`
	Logging LoggingConfig          `json:"logging"`
}

// FramesConfig selects the input frames.
type FramesConfig struct {
	Dir     string `json:"dir"`
	Pattern string `json:"pattern"`

	// Workers bounds concurrent frame processing. Zero means one per CPU.
	Workers int `json:"workers"`
}

// Rect is a JSON-friendly image rectangle, max exclusive.
type Rect struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Rectangle converts r to an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.MinX, r.MinY, r.MaxX, r.MaxY)
}

// StripsConfig holds both lane sides' search bands and the region they are
// clipped to.
type StripsConfig struct {
	Left  detection.StripConfig `json:"left"`
	Right detection.StripConfig `json:"right"`
	Clip  Rect                  `json:"clip"`
}

// PoseConfig points at the camera intrinsics and places the reference
// points on the road.
type PoseConfig struct {
	IntrinsicsFile  string                    `json:"intrinsics_file"`
	Correspondences pose.CorrespondenceConfig `json:"correspondences"`
}

// OutputConfig controls what a run writes.
type OutputConfig struct {
	Dir      string          `json:"dir"`
	Overlays bool            `json:"overlays"`
	Chart    bool            `json:"chart"`
	Format   string          `json:"format"`
	Palette  imaging.Palette `json:"palette"`
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns the configuration tuned for 640x480 dash-camera footage.
func Default() *Config {
	return &Config{
		Frames: FramesConfig{
			Dir:     ".",
			Pattern: imaging.DefaultFramePattern,
		},
		Edges: imaging.DefaultEdgeConfig(),
		Strips: StripsConfig{
			Left: detection.StripConfig{
				VerticalInterval: detection.Interval{Start: 218, End: 368},
				VerticalStep:     10,
				WidthInterval:    detection.Interval{Start: 36, End: 120},
				CenterInterval:   detection.Interval{Start: 205, End: -15},
			},
			Right: detection.StripConfig{
				VerticalInterval: detection.Interval{Start: 218, End: 368},
				VerticalStep:     10,
				WidthInterval:    detection.Interval{Start: 36, End: 120},
				CenterInterval:   detection.Interval{Start: 280, End: 440},
			},
			Clip: Rect{MaxX: 640, MaxY: 480},
		},
		RANSAC: detection.DefaultRANSACConfig(),
		Pose: PoseConfig{
			IntrinsicsFile:  "intrinsics.json",
			Correspondences: pose.DefaultCorrespondenceConfig(),
		},
		Output: OutputConfig{
			Dir:     "out",
			Chart:   true,
			Format:  FormatCSV,
			Palette: imaging.DefaultPalette(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: LogFormatText,
		},
	}
}

// Load reads a JSON config file from fs. Fields omitted from the file keep
// their Default values, so partial configs are safe. Load does not
// validate: callers apply env and flag overrides first, then call Validate.
func Load(fs afero.Fs, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fs.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := afero.ReadFile(fs, cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup has the
// signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvFramesDir); ok && v != "" {
		c.Frames.Dir = v
	}
	if v, ok := lookup(EnvOutputDir); ok && v != "" {
		c.Output.Dir = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvWorkers, v)
		}
		c.Frames.Workers = n
	}
	return nil
}

// Validate checks every section. Strip geometry is checked by building
// the strips, so a band that clips away entirely is rejected here rather
// than on the first frame.
func (c *Config) Validate() error {
	if c.Frames.Dir == "" {
		return fmt.Errorf("%w: frames.dir must be set", ErrInvalidConfig)
	}
	if c.Frames.Pattern == "" {
		return fmt.Errorf("%w: frames.pattern must be set", ErrInvalidConfig)
	}
	if _, err := filepath.Match(c.Frames.Pattern, ""); err != nil {
		return fmt.Errorf("%w: frames.pattern %q: %w", ErrInvalidConfig, c.Frames.Pattern, err)
	}
	if c.Frames.Workers < 0 {
		return fmt.Errorf("%w: frames.workers must be non-negative, got %d", ErrInvalidConfig, c.Frames.Workers)
	}

	if err := c.Edges.Validate(); err != nil {
		return fmt.Errorf("%w: edges: %w", ErrInvalidConfig, err)
	}
	if _, _, err := c.BuildStrips(); err != nil {
		return fmt.Errorf("%w: strips: %w", ErrInvalidConfig, err)
	}
	if err := c.RANSAC.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Pose.IntrinsicsFile == "" {
		return fmt.Errorf("%w: pose.intrinsics_file must be set", ErrInvalidConfig)
	}
	if err := c.Pose.Correspondences.Validate(); err != nil {
		return fmt.Errorf("%w: pose: %w", ErrInvalidConfig, err)
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("%w: output.dir must be set", ErrInvalidConfig)
	}
	switch c.Output.Format {
	case FormatCSV, FormatJSON:
	default:
		return fmt.Errorf("%w: output.format must be %q or %q, got %q",
			ErrInvalidConfig, FormatCSV, FormatJSON, c.Output.Format)
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: logging.format must be %q or %q, got %q",
			ErrInvalidConfig, LogFormatText, LogFormatJSON, c.Logging.Format)
	}
	return nil
}

// BuildStrips builds the left and right strip sets clipped to the
// configured region.
func (c *Config) BuildStrips() (left, right []detection.SearchStrip, err error) {
	clip := c.Strips.Clip.Rectangle()
	left, err = detection.BuildStrips(c.Strips.Left, clip)
	if err != nil {
		return nil, nil, fmt.Errorf("left: %w", err)
	}
	right, err = detection.BuildStrips(c.Strips.Right, clip)
	if err != nil {
		return nil, nil, fmt.Errorf("right: %w", err)
	}
	return left, right, nil
}

// IntrinsicsPath resolves the intrinsics file relative to base when it is
// not absolute. base is usually the config file's directory.
func (c *Config) IntrinsicsPath(base string) string {
	if filepath.IsAbs(c.Pose.IntrinsicsFile) || base == "" {
		return c.Pose.IntrinsicsFile
	}
	return filepath.Join(base, c.Pose.IntrinsicsFile)
}
