package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// reporter writes one line per processed file.
type reporter struct {
	out     io.Writer
	verbose bool

	renamed *color.Color
	warn    *color.Color
	fail    *color.Color
	plain   *color.Color
}

func newReporter(out io.Writer, verbose bool) *reporter {
	return &reporter{
		out:     out,
		verbose: verbose,
		renamed: color.New(color.FgCyan),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		plain:   color.New(color.Reset),
	}
}

func (r *reporter) renamedFile(oldName, newName string) {
	r.renamed.Fprintf(r.out, "Renamed '%s' to '%s'\n", oldName, newName)
}

func (r *reporter) wouldRename(oldName, newName string) {
	r.renamed.Fprintf(r.out, "Would rename '%s' to '%s'\n", oldName, newName)
}

func (r *reporter) alreadyNamed(name string) {
	r.plain.Fprintf(r.out, "File '%s' already named correctly\n", name)
}

func (r *reporter) noDate(name string) {
	r.warn.Fprintf(r.out, "No date metadata found for '%s'\n", name)
}

// duplicate only claims identical content when checksums were compared.
func (r *reporter) duplicate(name, existing string, checksummed bool) {
	kind := "same-size"
	if checksummed {
		kind = "identical"
	}
	r.warn.Fprintf(r.out, "Skipped '%s': %s file '%s' already exists\n", name, kind, existing)
}

func (r *reporter) conflict(name, target string) {
	r.warn.Fprintf(r.out, "Skipped '%s': '%s' already exists\n", name, target)
}

func (r *reporter) extractionError(name string, err error) {
	r.fail.Fprintf(r.out, "Error retrieving date for '%s': %v\n", name, err)
}

func (r *reporter) renameError(name string, err error) {
	r.fail.Fprintf(r.out, "Failed to rename '%s': %v\n", name, err)
}

func (r *reporter) walkError(path string, err error) {
	r.fail.Fprintf(r.out, "Skipping %s: %v\n", path, err)
}

func (r *reporter) debugf(format string, a ...interface{}) {
	if !r.verbose {
		return
	}
	fmt.Fprintf(r.out, format, a...)
}
