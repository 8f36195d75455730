package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
)

// Pack writes the files under srcDir to dstPath as a snapshot whose
// entries live under baseDir. The format follows dstPath's extension.
// Hidden files and directories (".git") are skipped.
func Pack(srcDir, dstPath, baseDir string) error {
	format, err := DetectFormat(dstPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	outFile, err := os.Create(dstPath)
	if err != nil {
		return errors.NewIO("create", dstPath, err)
	}
	defer outFile.Close()

	var add func(name string, info os.FileInfo, src string) error
	var finish func() error

	switch format {
	case FormatZip:
		zw := zip.NewWriter(outFile)
		add = func(name string, info os.FileInfo, src string) error {
			w, err := zw.Create(name)
			if err != nil {
				return err
			}
			return copyFile(w, src)
		}
		finish = zw.Close
	default:
		var compressed io.WriteCloser
		if format == FormatTarXz {
			xzw, err := xz.NewWriter(outFile)
			if err != nil {
				return fmt.Errorf("xz writer: %w", err)
			}
			compressed = xzw
		} else {
			compressed = gzip.NewWriter(outFile)
		}
		tw := tar.NewWriter(compressed)
		now := time.Now()
		add = func(name string, info os.FileInfo, src string) error {
			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			header.Name = name
			// Normalize timestamps for reproducibility
			header.ModTime = now
			if err := tw.WriteHeader(header); err != nil {
				return err
			}
			return copyFile(tw, src)
		}
		finish = func() error {
			if err := tw.Close(); err != nil {
				return err
			}
			return compressed.Close()
		}
	}

	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		return add(baseDir+"/"+filepath.ToSlash(relPath), info, path)
	})
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return finish()
}

func copyFile(w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(w, file)
	return err
}
