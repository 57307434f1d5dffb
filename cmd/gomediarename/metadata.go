package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/abema/go-mp4"
	"github.com/evanoberholster/imagemeta"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/tidwall/gjson"
)

// appleEpochOffset is the number of seconds between 1904-01-01 (the
// ISO-BMFF epoch) and 1970-01-01.
const appleEpochOffset = 2082844800

const exifDateLayout = "2006:01:02 15:04:05"

var (
	errNoDateMetadata       = errors.New("no date metadata found")
	errUnsupportedContainer = errors.New("unsupported video container")
)

// ffprobe reports creation_time in several shapes depending on the container.
var ffprobeDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// dateExtractor returns the capture date recorded inside a media file.
type dateExtractor interface {
	CaptureDate(path string, category MediaCategory) (time.Time, error)
}

// metadataExtractor reads EXIF blocks from images and container atoms
// from videos.
type metadataExtractor struct {
	ffprobePath    string
	videoLocalTime bool
}

func newMetadataExtractor(cfg config) *metadataExtractor {
	return &metadataExtractor{
		ffprobePath:    cfg.FFprobePath,
		videoLocalTime: cfg.VideoLocalTime,
	}
}

func (m *metadataExtractor) CaptureDate(path string, category MediaCategory) (time.Time, error) {
	switch category {
	case Image:
		return extractImageDate(path)
	case Video:
		t, err := m.extractVideoDate(path)
		if err != nil {
			return time.Time{}, err
		}
		if m.videoLocalTime {
			t = t.Local()
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported media category: %q", category)
}

// extractImageDate prefers DateTimeOriginal and falls back to DateTime.
// imagemeta handles most containers; goexif is tried when it finds nothing.
func extractImageDate(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	if e, err := imagemeta.Decode(f); err == nil {
		if t := e.DateTimeOriginal(); !t.IsZero() {
			return t, nil
		}
		if t := e.ModifyDate(); !t.IsZero() {
			return t, nil
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return time.Time{}, fmt.Errorf("rewinding image: %w", err)
	}
	return exifDate(f)
}

func exifDate(f *os.File) (time.Time, error) {
	x, err := exif.Decode(f)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return time.Time{}, fmt.Errorf("%w: no EXIF data: %v", errNoDateMetadata, err)
	}

	var parseErr error
	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		t, err := time.Parse(exifDateLayout, strings.TrimRight(s, "\x00 "))
		if err != nil {
			if parseErr == nil {
				parseErr = fmt.Errorf("parsing EXIF %s %q: %w", field, s, err)
			}
			continue
		}
		return t, nil
	}

	if parseErr != nil {
		return time.Time{}, parseErr
	}
	return time.Time{}, fmt.Errorf("%w: no DateTimeOriginal or DateTime tag", errNoDateMetadata)
}

// extractVideoDate reads ISO-BMFF containers natively and hands everything
// else, or anything go-mp4 cannot read, to ffprobe when it is installed.
func (m *metadataExtractor) extractVideoDate(path string) (time.Time, error) {
	var nativeErr error
	if isISOBMFF(path) {
		t, err := extractVideoCreationTime(path)
		if err == nil {
			return t, nil
		}
		if errors.Is(err, errNoDateMetadata) {
			return time.Time{}, err
		}
		nativeErr = err
	} else {
		nativeErr = fmt.Errorf("%w: %s", errUnsupportedContainer, filepath.Ext(path))
	}

	if m.ffprobePath == "" {
		return time.Time{}, nativeErr
	}
	bin, err := exec.LookPath(m.ffprobePath)
	if err != nil {
		return time.Time{}, nativeErr
	}
	return ffprobeCreationTime(bin, path)
}

// extractVideoCreationTime returns the mvhd creation time of an ISO-BMFF
// file in UTC.
func extractVideoCreationTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening video: %w", err)
	}
	defer f.Close()

	boxes, err := mp4.ExtractBoxWithPayload(f, nil, mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()})
	if err != nil {
		return time.Time{}, fmt.Errorf("reading mvhd box: %w", err)
	}
	if len(boxes) == 0 {
		return time.Time{}, fmt.Errorf("%w: no mvhd box", errNoDateMetadata)
	}

	mvhd, ok := boxes[0].Payload.(*mp4.Mvhd)
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected mvhd payload type %T", boxes[0].Payload)
	}

	var ct uint64
	if mvhd.Version > 0 {
		ct = mvhd.CreationTimeV1
	} else {
		ct = uint64(mvhd.CreationTimeV0)
	}
	if ct == 0 {
		return time.Time{}, fmt.Errorf("%w: zero creation time", errNoDateMetadata)
	}

	return time.Unix(int64(ct)-appleEpochOffset, 0).UTC(), nil
}

func ffprobeCreationTime(bin, path string) (time.Time, error) {
	out, err := exec.Command(bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_entries", "format_tags=creation_time",
		"-i", path).Output()
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse video file: ffprobe failed: %w", err)
	}
	return parseFFprobeCreationTime(out)
}

func parseFFprobeCreationTime(out []byte) (time.Time, error) {
	value := gjson.GetBytes(out, "format.tags.creation_time")
	if !value.Exists() || value.String() == "" {
		return time.Time{}, fmt.Errorf("%w: no creation_time in container tags", errNoDateMetadata)
	}

	s := value.String()
	for _, layout := range ffprobeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized creation_time %q", s)
}
