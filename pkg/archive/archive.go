package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/pkg/errors"
	"github.com/xi2/xz"
)

// Format represents the archive format
type Format string

const (
	FormatTarGz  Format = "tar.gz"
	FormatTarBz2 Format = "tar.bz2"
	FormatTarXz  Format = "tar.xz"
	FormatTar    Format = "tar"
	FormatZip    Format = "zip"
	Format7z     Format = "7z"
	FormatRaw    Format = "raw"
)

// DetectFormat detects the archive format based on the filename
func DetectFormat(filename string) Format {
	lower := strings.ToLower(filename)

	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz
	case strings.HasSuffix(lower, ".tar.bz2"):
		return FormatTarBz2
	case strings.HasSuffix(lower, ".tar.xz"):
		return FormatTarXz
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip
	case strings.HasSuffix(lower, ".7z"):
		return Format7z
	}

	// Unknown extensions are treated as a raw executable
	return FormatRaw
}

// Extract extracts an archive to the destination directory
func Extract(archivePath, destDir string) error {
	switch DetectFormat(archivePath) {
	case FormatTarGz, FormatTarBz2, FormatTarXz, FormatTar:
		return extractTarArchive(archivePath, destDir)
	case FormatZip:
		return extractZip(archivePath, destDir)
	case Format7z:
		return extract7z(archivePath, destDir)
	case FormatRaw:
		// Raw files don't need extraction
		return nil
	}
	return fmt.Errorf("unsupported archive format: %s", archivePath)
}

// FindExecutable locates the installable binary among extracted entries.
// The exact expected name wins (with .exe considered on Windows); failing
// that, the first regular executable file in walk order is accepted. That
// fallback accommodates archives that nest the binary under a version- or
// platform-qualified name. It is a convenience heuristic, not an integrity
// check.
func FindExecutable(destDir, name string) (string, error) {
	candidates := []string{name}
	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		candidates = append(candidates, name+".exe")
	}
	var found string
	err := filepath.WalkDir(destDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || found != "" {
			return err
		}
		for _, want := range candidates {
			if d.Name() == want {
				found = path
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to scan extracted entries")
	}
	if found != "" {
		return found, nil
	}

	// Fall back to the first plausible executable.
	err = filepath.WalkDir(destDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || found != "" {
			return err
		}
		if isExecutable(path, d) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to scan extracted entries")
	}
	if found == "" {
		return "", fmt.Errorf("no executable named %s found in archive", name)
	}
	return found, nil
}

func isExecutable(path string, d fs.DirEntry) bool {
	if runtime.GOOS == "windows" {
		ext := strings.ToLower(filepath.Ext(path))
		return ext == ".exe" || ext == ".bat" || ext == ".cmd"
	}
	info, err := d.Info()
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
}

// extractTarArchive handles tar and its compressed variants
func extractTarArchive(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(err, "failed to open archive")
	}
	defer file.Close()

	var reader io.Reader = file
	switch DetectFormat(archivePath) {
	case FormatTarGz:
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return errors.Wrap(err, "failed to create gzip reader")
		}
		defer gzReader.Close()
		reader = gzReader
	case FormatTarBz2:
		reader = bzip2.NewReader(file)
	case FormatTarXz:
		xzReader, err := xz.NewReader(file, 0)
		if err != nil {
			return errors.Wrap(err, "failed to create xz reader")
		}
		reader = xzReader
	}

	return extractTarReader(reader, destDir)
}

// extractTarReader extracts from a tar reader
func extractTarReader(r io.Reader, destDir string) error {
	tarReader := tar.NewReader(r)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "failed to read tar header")
		}

		target := filepath.Join(destDir, header.Name)

		// Ensure the target path is within destDir
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("invalid path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return errors.Wrap(err, "failed to create directory")
			}
		case tar.TypeReg:
			if err := writeFile(target, tarReader, os.FileMode(header.Mode)); err != nil {
				return err
			}
		}
	}

	return nil
}

// extractZip extracts a zip archive
func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(err, "failed to open zip archive")
	}
	defer reader.Close()

	for _, file := range reader.File {
		target := filepath.Join(destDir, file.Name)

		// Ensure the target path is within destDir
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("invalid path in archive: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, file.Mode()); err != nil {
				return errors.Wrap(err, "failed to create directory")
			}
			continue
		}

		fileReader, err := file.Open()
		if err != nil {
			return errors.Wrap(err, "failed to open file in archive")
		}
		err = writeFile(target, fileReader, file.Mode())
		fileReader.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// extract7z extracts a 7z archive
func extract7z(archivePath, destDir string) error {
	reader, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(err, "failed to open 7z archive")
	}
	defer reader.Close()

	for _, file := range reader.File {
		target := filepath.Join(destDir, file.Name)

		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("invalid path in archive: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, file.Mode()); err != nil {
				return errors.Wrap(err, "failed to create directory")
			}
			continue
		}

		fileReader, err := file.Open()
		if err != nil {
			return errors.Wrap(err, "failed to open file in archive")
		}
		err = writeFile(target, fileReader, file.Mode())
		fileReader.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

func writeFile(target string, src io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrap(err, "failed to create parent directory")
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}

	if _, err := io.Copy(file, src); err != nil {
		file.Close()
		return errors.Wrap(err, "failed to extract file")
	}

	return file.Close()
}
