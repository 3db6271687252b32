package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/ahmaat19/Personal-Finance-Blog/models"
)

// PNGMimeType is the only accepted upload type. The declared MIME type is
// what gets checked, not the file extension or contents.
const PNGMimeType = "image/png"

var (
	// ErrNotPNG rejects uploads whose declared MIME type is anything else.
	ErrNotPNG = errors.New("only PNG images are allowed")
	// ErrImageTooLarge rejects uploads over the configured byte limit.
	ErrImageTooLarge = errors.New("image exceeds the size limit")
)

// SaveImage validates the uploaded file and writes it into dir under a
// timestamp-prefixed name, returning the image metadata for the post record.
// Nothing is written when validation fails.
func SaveImage(fh *multipart.FileHeader, dir, publicBase string, maxBytes int64) (models.Image, error) {
	declared := fh.Header.Get("Content-Type")
	if declared != PNGMimeType {
		return models.Image{}, ErrNotPNG
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return models.Image{}, ErrImageTooLarge
	}

	base := filepath.Base(fh.Filename)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "image.png"
	}
	name := fmt.Sprintf("%d%s", time.Now().UnixMilli(), base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.Image{}, fmt.Errorf("create upload directory: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return models.Image{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return models.Image{}, fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	var written int64
	if maxBytes > 0 {
		lr := &io.LimitedReader{R: src, N: maxBytes + 1}
		written, err = io.Copy(dst, lr)
		if err == nil && written > maxBytes {
			err = ErrImageTooLarge
		}
	} else {
		written, err = io.Copy(dst, src)
	}
	if err != nil {
		_ = dst.Close()
		_ = os.Remove(dstPath)
		if errors.Is(err, ErrImageTooLarge) {
			return models.Image{}, err
		}
		return models.Image{}, fmt.Errorf("write upload file: %w", err)
	}

	return models.Image{
		FileName:   name,
		MimeType:   declared,
		Size:       written,
		PublicPath: publicBase + "/" + name,
	}, nil
}

// RemoveImage unlinks a previously stored upload. Best effort: failures are
// logged and never propagate to the surrounding request.
func RemoveImage(dir, fileName string) {
	if fileName == "" {
		return
	}
	path := filepath.Join(dir, filepath.Base(fileName))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		if Sugar != nil {
			Sugar.Warnf("failed to unlink upload %s: %v", path, err)
		}
	}
}
