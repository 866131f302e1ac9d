// Package export collects baked curves and the control index and writes them
// out as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zurustar/midicurve/pkg/timeline"
)

// Format is an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "json" or "csv".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format: %s (must be json or csv)", s)
}

// Curve is one named curve.
type Curve struct {
	Name    string            `json:"name"`
	Samples []timeline.Sample `json:"samples"`
}

// Document is everything written for one bake.
type Document struct {
	File        string   `json:"file"`
	Channel     string   `json:"channel"`
	FPS         float64  `json:"fps"`
	StatusLines []string `json:"status,omitempty"`
	Curves      []Curve  `json:"curves"`
	Indices     []int    `json:"indices,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Collector is a curve sink and an index sink backed by a Document.
type Collector struct {
	Doc Document
}

// NewCollector starts an empty document.
func NewCollector(file, channel string, fps float64) *Collector {
	return &Collector{Doc: Document{File: file, Channel: channel, FPS: fps, Curves: []Curve{}}}
}

// AddCurve appends a copy of samples under name.
func (c *Collector) AddCurve(name string, samples []timeline.Sample) error {
	if name == "" {
		return fmt.Errorf("curve name is empty")
	}
	cp := make([]timeline.Sample, len(samples))
	copy(cp, samples)
	c.Doc.Curves = append(c.Doc.Curves, Curve{Name: name, Samples: cp})
	return nil
}

// SetIndices records the control index list.
func (c *Collector) SetIndices(indices []int) error {
	c.Doc.Indices = append([]int(nil), indices...)
	return nil
}

// Write encodes the document in format.
func (c *Collector) Write(w io.Writer, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, c.Doc)
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c.Doc); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown output format: %s", format)
}

// WriteFile writes the document to path, or to stdout when path is "" or "-".
func (c *Collector) WriteFile(path string, format Format) error {
	if path == "" || path == "-" {
		return c.Write(os.Stdout, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := c.Write(f, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// writeCSV writes one "curve,frame,value" row per sample. Indices follow as
// "index,<position>,<key>" rows.
func writeCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	rows := [][]string{{"curve", "frame", "value"}}
	for _, c := range doc.Curves {
		for _, s := range c.Samples {
			rows = append(rows, []string{c.Name, formatFloat(s.Frame), formatFloat(s.Value)})
		}
	}
	for i, idx := range doc.Indices {
		rows = append(rows, []string{"index", strconv.Itoa(i), strconv.Itoa(idx)})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Read decodes a JSON document written by Write.
func Read(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return &doc, nil
}
