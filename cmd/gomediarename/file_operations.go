package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

const targetNameLayout = "20060102-150405"

const maxSuffix = 999999

// skippedDirs are filesystem index folders that never hold user media.
var skippedDirs = map[string]bool{
	".Spotlight-V100": true,
	".fseventsd":      true,
	".Trashes":        true,
}

// enumerateFiles lists every recognized media file under sourceDir. The
// whole list is built before anything is renamed, so a renamed file is
// never visited twice.
func enumerateFiles(sourceDir string, cls *classifier, flat bool, rep *reporter) ([]FileInfo, error) {
	var files []FileInfo

	// Check if the source directory exists
	_, err := os.Stat(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source directory does not exist: %w", err)
		}
		return nil, fmt.Errorf("error accessing source directory: %w", err)
	}

	err = filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == sourceDir {
				return fmt.Errorf("error accessing path %q: %w", path, err)
			}
			rep.walkError(path, err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if path == sourceDir {
				return nil
			}
			if flat || skippedDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip symlinks
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		category := cls.classify(info.Name())
		if category == "" {
			// Skip non-media files
			return nil
		}

		files = append(files, FileInfo{
			SourceName:    info.Name(),
			SourceDir:     filepath.Dir(path),
			Size:          info.Size(),
			MediaCategory: category,
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking the path %s: %w", sourceDir, err)
	}

	return files, nil
}

// targetFilename formats the capture date and appends the source extension.
func targetFilename(sourceName string, captured time.Time, keepExtensionCase bool) string {
	ext := filepath.Ext(sourceName)
	if !keepExtensionCase {
		ext = strings.ToLower(ext)
	}
	return captured.Format(targetNameLayout) + ext
}

// resolveDestination picks the final name for file given the wanted name.
// It never selects a path held by another file: an identical file there
// marks the source as a duplicate, a different one either gets a numeric
// suffix or, with ConflictSkip, leaves the source alone. claimed maps
// destination paths already given out in this batch to the source that
// took them, so a dry run reserves names the same way a real run does.
func resolveDestination(file *FileInfo, wanted string, cfg config, claimed map[string]string) error {
	ext := filepath.Ext(wanted)
	base := strings.TrimSuffix(wanted, ext)

	candidate := wanted
	for i := 0; i <= maxSuffix; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
		}

		if candidate == file.SourceName {
			file.DestName = candidate
			file.Status = StatusAlreadyNamed
			return nil
		}

		fullPath := filepath.Join(file.SourceDir, candidate)
		occupant := fullPath
		if !exists(fullPath) {
			claimer, taken := claimed[fullPath]
			if !taken {
				file.DestName = candidate
				return nil
			}
			occupant = claimer
		} else if sameFile(file.sourcePath(), fullPath) {
			// Case-insensitive filesystems report the source itself under the new spelling.
			file.DestName = candidate
			return nil
		}

		duplicate, err := isDuplicate(file, occupant, cfg.ChecksumDuplicates)
		if err != nil {
			return err
		}
		if duplicate {
			file.DestName = candidate
			file.Status = StatusDuplicate
			return nil
		}

		if cfg.Conflict == ConflictSkip {
			file.DestName = candidate
			file.Status = StatusSkipped
			return nil
		}
	}

	return fmt.Errorf("couldn't find a unique filename after %d attempts", maxSuffix)
}

func exists(destPath string) bool {
	_, err := os.Lstat(destPath)
	return !os.IsNotExist(err)
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// isDuplicate reports whether destPath holds the same content as file.
// Without checksumDuplicates a matching size is enough.
func isDuplicate(file *FileInfo, destPath string, checksumDuplicates bool) (bool, error) {
	destInfo, err := os.Stat(destPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", destPath, err)
	}

	if !destInfo.Mode().IsRegular() || destInfo.Size() != file.Size {
		return false, nil
	}

	if !checksumDuplicates {
		return true, nil
	}

	if file.SourceChecksum == "" {
		srcChecksum, err := calculateXXHash(file.sourcePath())
		if err != nil {
			return false, err
		}
		file.SourceChecksum = srcChecksum
	}

	destChecksum, err := calculateXXHash(destPath)
	if err != nil {
		return false, err
	}

	return file.SourceChecksum == destChecksum, nil
}

func calculateXXHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := xxhash.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%016x", hash.Sum64()), nil
}
