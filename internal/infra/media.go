package infra

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// ThumbCache downloads and caches collection artwork for the feed and any
// UI sitting on top of the journal.
type ThumbCache struct {
	basePath string
	client   *http.Client
}

// NewThumbCache creates a thumbnail cache rooted at dir.
func NewThumbCache(dir string) (*ThumbCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &ThumbCache{
		basePath: dir,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Fetch downloads the artwork at url for registry if it is not already
// cached, resizes it to 64x64, and returns the local file path.
func (c *ThumbCache) Fetch(registry, url string) (string, error) {
	// Security: sanitize the registry id to prevent path traversal
	safeID := sanitizeID(registry)
	if safeID == "" {
		return "", fmt.Errorf("invalid registry id: %s", registry)
	}

	filePath := filepath.Join(c.basePath, strings.ToLower(safeID)+".png")
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Cache hit
	}

	resp, err := c.client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Resize(srcImg, 64, 64, imaging.Lanczos)
	if err := imaging.Save(resized, filePath); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return filePath, nil
}

// Path returns the local path a registry's thumbnail would be cached at.
func (c *ThumbCache) Path(registry string) string {
	return filepath.Join(c.basePath, strings.ToLower(sanitizeID(registry))+".png")
}

func sanitizeID(id string) string {
	res := make([]rune, 0, len(id))
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			res = append(res, r)
		}
	}
	return string(res)
}
