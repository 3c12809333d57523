package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"path/filepath"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp" // Register BMP format decoder
)

// DefaultFramePattern matches every BMP frame in a directory, the format
// the dash-camera test sequences are recorded in.
const DefaultFramePattern = "*.bmp"

// Frame identifies one image of a sequence.
type Frame struct {
	// Index is the frame's position in lexical path order, starting at 0.
	Index int `json:"index"`

	// Path is the frame's location on the source file system.
	Path string `json:"path"`
}

// FrameSource enumerates and decodes the frames of an image sequence stored
// in a single directory.
//
// FrameSource is safe for concurrent use as long as the underlying file
// system is. Frames are decoded on every Load call; nothing is cached, so
// memory use stays bounded by the number of frames in flight.
//
// # Example Usage
//
//	src := imaging.NewFrameSource(afero.NewOsFs(), "LDWS_test", "*.bmp")
//	frames, err := src.List()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	img, err := src.Load(frames[0].Path)
type FrameSource struct {
	fs      afero.Fs
	dir     string
	pattern string
}

// NewFrameSource returns a source over the files in dir matching pattern.
// An empty pattern selects DefaultFramePattern.
func NewFrameSource(fs afero.Fs, dir, pattern string) *FrameSource {
	if pattern == "" {
		pattern = DefaultFramePattern
	}
	return &FrameSource{fs: fs, dir: dir, pattern: pattern}
}

// Dir returns the directory the source reads from.
func (s *FrameSource) Dir() string { return s.dir }

// List returns the matching frames sorted by path.
//
// # Errors
//
//   - Returns error if the directory does not exist or is not a directory
//   - Returns error if the pattern is malformed
//
// An existing directory without matching files yields an empty list.
func (s *FrameSource) List() ([]Frame, error) {
	info, err := s.fs.Stat(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("frame source %s is not a directory", s.dir)
	}

	paths, err := afero.Glob(s.fs, filepath.Join(s.dir, s.pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid frame pattern %q: %w", s.pattern, err)
	}
	sort.Strings(paths)

	frames := make([]Frame, len(paths))
	for i, p := range paths {
		frames[i] = Frame{Index: i, Path: p}
	}
	return frames, nil
}

// Load opens and decodes a single frame. Supported formats are BMP, PNG,
// JPEG and GIF.
func (s *FrameSource) Load(path string) (image.Image, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}
