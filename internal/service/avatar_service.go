package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultAvatarDir     = "/tmp/taskboard/uploads/avatars"
	AvatarMaxSize        = 256
	AvatarWebPQuality    = 80
	AvatarMaxUploadBytes = 5 << 20
)

// AvatarService stores user avatars. Uploads are decoded, downscaled to a
// square thumbnail and re-encoded as WebP, so the original format never
// reaches disk.
type AvatarService struct {
	dir string
}

func NewAvatarService(cfg *config.Config) *AvatarService {
	dir := DefaultAvatarDir
	if cfg != nil && cfg.AvatarDir != "" {
		dir = cfg.AvatarDir
	}
	return &AvatarService{dir: dir}
}

// Store writes the processed avatar and returns the stored filename. The
// name is content-addressed so re-uploading the same picture is idempotent.
func (s *AvatarService) Store(content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("Avatar file is empty")
	}
	if len(content) > AvatarMaxUploadBytes {
		return "", models.NewValidationError("Avatar exceeds the 5 MB upload limit")
	}

	src, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Avatar must be a valid JPEG, PNG, GIF or WebP image")
	}

	thumb := scaleDown(src, AvatarMaxSize)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, thumb, &webp.Options{Quality: AvatarWebPQuality}); err != nil {
		return "", models.NewInternalError(err)
	}

	sum := sha256.Sum256(buf.Bytes())
	name := hex.EncodeToString(sum[:16]) + ".webp"

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", models.NewInternalError(err)
	}
	return name, nil
}

// Remove deletes a stored avatar. Unknown names are ignored.
func (s *AvatarService) Remove(name string) error {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return models.NewInternalError(err)
	}
	return nil
}

// Path returns the on-disk location for a stored avatar name, rejecting
// anything that tries to escape the avatar directory.
func (s *AvatarService) Path(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return "", models.NewValidationError("Invalid avatar name")
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", models.NewNotFoundError("Avatar", name)
	}
	return path, nil
}

// scaleDown resizes so the longest edge is at most max, preserving the
// aspect ratio. Small images pass through untouched.
func scaleDown(src image.Image, max int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return src
	}
	if w > h {
		h = h * max / w
		w = max
	} else {
		w = w * max / h
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

