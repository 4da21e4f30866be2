// Package imageio persists rendered frames to disk
package imageio

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

// Save writes img to path. The image format is chosen from the file
// extension of path.
func Save(path string, img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("save: cannot save empty image to %v", path)
	}

	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save: could not write %v: %v", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("save: %v is empty after writing", path)
	}
	return nil
}
