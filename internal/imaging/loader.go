package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// SupportedExtensions lists the file extensions the loader can decode.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// IsSupported reports whether path has an image extension the loader decodes.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ImageCache provides thread-safe caching of decoded card scans.
//
// A single detect run touches the same scan several times (detection, title
// OCR, debug rendering); the cache makes sure it is decoded once. Batch scans
// Evict each file once its worker is done with it so memory stays bounded by
// the worker count.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// The image is cached under the exact path string provided. Different paths
// to the same file (relative vs absolute) are separate entries.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Dimensions contains the pixel size of an image file.
type Dimensions struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ReadDimensions reads only the image header, without decoding pixel data.
func ReadDimensions(path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Dimensions{}, fmt.Errorf("failed to decode image header: %w", err)
	}
	return Dimensions{Path: path, Width: cfg.Width, Height: cfg.Height}, nil
}

// BaseName splits the file name of path into its stem and extension,
// e.g. "cards/Hunter's Armor.png" -> ("Hunter's Armor", ".png").
func BaseName(path string) (string, string) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}
