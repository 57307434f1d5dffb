package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

type MediaCategory string

const (
	Image MediaCategory = "image"
	Video MediaCategory = "video"
)

var defaultImageExtensions = []string{"jpg", "jpeg", "png"}

var defaultVideoExtensions = []string{"mp4", "mov", "avi"}

// isoBMFFExtensions are the video containers go-mp4 can read directly.
var isoBMFFExtensions = map[string]bool{
	"mp4": true, "mov": true, "m4v": true, "3gp": true, "3g2": true,
}

// classifier maps a lowercased extension without the leading dot to its media category.
type classifier struct {
	categories map[string]MediaCategory
}

// newClassifier builds a classifier from the configured extension lists.
// An extension may belong to one category only.
func newClassifier(imageExts, videoExts []string) (*classifier, error) {
	c := &classifier{categories: make(map[string]MediaCategory)}

	add := func(exts []string, category MediaCategory) error {
		for _, ext := range exts {
			ext = normalizeExtension(ext)
			if ext == "" {
				continue
			}
			if existing, ok := c.categories[ext]; ok && existing != category {
				return fmt.Errorf("extension %q is listed as both %s and %s", ext, existing, category)
			}
			c.categories[ext] = category
		}
		return nil
	}

	if err := add(imageExts, Image); err != nil {
		return nil, err
	}
	if err := add(videoExts, Video); err != nil {
		return nil, err
	}
	return c, nil
}

// classify returns the media category for filename, or "" when unsupported.
func (c *classifier) classify(filename string) MediaCategory {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}
	return c.categories[ext[1:]] // Remove the leading dot
}

func normalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

func isISOBMFF(filename string) bool {
	return isoBMFFExtensions[normalizeExtension(filepath.Ext(filename))]
}
