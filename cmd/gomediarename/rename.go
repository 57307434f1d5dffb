package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type FileStatus string

const (
	StatusRenamed      FileStatus = "renamed"
	StatusDryRun       FileStatus = "dry-run"
	StatusAlreadyNamed FileStatus = "already-named"
	StatusNoDate       FileStatus = "no-date"
	StatusDuplicate    FileStatus = "duplicate"
	StatusSkipped      FileStatus = "skipped"
	StatusFailed       FileStatus = "failed"
)

// FileInfo represents information about each file being renamed
type FileInfo struct {
	SourceName      string
	SourceDir       string
	DestName        string
	SourceChecksum  string
	CaptureDateTime time.Time
	Size            int64
	MediaCategory   MediaCategory
	Status          FileStatus
}

func (fi *FileInfo) sourcePath() string {
	return filepath.Join(fi.SourceDir, fi.SourceName)
}

// renamer ties a date source to the filesystem.
type renamer struct {
	cfg       config
	extractor dateExtractor
	rep       *reporter
	claimed   map[string]string
}

// renameMedia handles the main functionality of the program
func renameMedia(cfg config, cls *classifier, extractor dateExtractor, rep *reporter) ([]FileInfo, error) {
	if cfg.Verbose {
		rep.debugf("Source directory: %s\n", cfg.SourceDir)
		rep.debugf("Image extensions: %v\n", cfg.ImageExtensions)
		rep.debugf("Video extensions: %v\n", cfg.VideoExtensions)
		rep.debugf("Recursive: %v\n", !cfg.Flat)
		rep.debugf("Conflict action: %s\n", cfg.Conflict)
		rep.debugf("Checksum duplicates: %v\n", cfg.ChecksumDuplicates)
		rep.debugf("Dry run: %v\n", cfg.DryRun)
	}

	startTime := time.Now()

	files, err := enumerateFiles(cfg.SourceDir, cls, cfg.Flat, rep)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate files: %w", err)
	}

	rep.debugf("Number of files enumerated: %d\n", len(files))

	r := &renamer{cfg: cfg, extractor: extractor, rep: rep, claimed: make(map[string]string)}
	for i := range files {
		r.processFile(&files[i])
	}

	if cfg.Verbose {
		printSummary(files, time.Since(startTime), rep)
	}

	return files, nil
}

// processFile runs extract, name, rename for one file. Every outcome is
// recorded in file.Status; nothing here stops the batch.
func (r *renamer) processFile(file *FileInfo) {
	captured, err := r.extractor.CaptureDate(file.sourcePath(), file.MediaCategory)
	if err != nil || captured.IsZero() {
		if err != nil && !errors.Is(err, errNoDateMetadata) {
			r.rep.extractionError(file.SourceName, err)
		}
		r.rep.noDate(file.SourceName)
		file.Status = StatusNoDate
		return
	}
	file.CaptureDateTime = captured

	wanted := targetFilename(file.SourceName, captured, r.cfg.KeepExtensionCase)
	if wanted == file.SourceName {
		file.DestName = wanted
		file.Status = StatusAlreadyNamed
		r.rep.alreadyNamed(file.SourceName)
		return
	}

	if err := resolveDestination(file, wanted, r.cfg, r.claimed); err != nil {
		file.Status = StatusFailed
		r.rep.renameError(file.SourceName, err)
		return
	}

	switch file.Status {
	case StatusAlreadyNamed:
		r.rep.alreadyNamed(file.SourceName)
		return
	case StatusDuplicate:
		r.rep.duplicate(file.SourceName, file.DestName, r.cfg.ChecksumDuplicates)
		return
	case StatusSkipped:
		r.rep.conflict(file.SourceName, file.DestName)
		return
	}

	destPath := filepath.Join(file.SourceDir, file.DestName)
	r.claimed[destPath] = file.sourcePath()

	if r.cfg.DryRun {
		file.Status = StatusDryRun
		r.rep.wouldRename(file.SourceName, file.DestName)
		return
	}

	if err := os.Rename(file.sourcePath(), destPath); err != nil {
		delete(r.claimed, destPath)
		file.Status = StatusFailed
		r.rep.renameError(file.SourceName, err)
		return
	}

	file.Status = StatusRenamed
	r.rep.renamedFile(file.SourceName, file.DestName)
}

func printSummary(files []FileInfo, elapsed time.Duration, rep *reporter) {
	counts := make(map[FileStatus]int)
	for _, file := range files {
		counts[file.Status]++
	}

	rep.debugf("\nFile status summary:\n")
	rep.debugf("Total files: %d\n", len(files))
	rep.debugf("Renamed: %d\n", counts[StatusRenamed]+counts[StatusDryRun])
	rep.debugf("Already named: %d\n", counts[StatusAlreadyNamed])
	rep.debugf("No date: %d\n", counts[StatusNoDate])
	rep.debugf("Duplicates: %d\n", counts[StatusDuplicate])
	rep.debugf("Skipped: %d\n", counts[StatusSkipped])
	rep.debugf("Failed: %d\n", counts[StatusFailed])
	rep.debugf("Elapsed: %s\n", humanReadableDuration(elapsed))
}

func humanReadableDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	parts := []string{}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}

	return strings.Join(parts, "")
}
