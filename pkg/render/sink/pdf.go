package sink

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/render"
)

// PDF draws through an SVG canvas and converts the document with
// rsvg-convert on Close.
type PDF struct {
	w   io.Writer
	svg bytes.Buffer
	*SVG
}

var _ render.Canvas = (*PDF)(nil)

// NewPDF returns a canvas writing PDF to w.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func NewPDF(w io.Writer) *PDF {
	p := &PDF{w: w}
	p.SVG = NewSVG(&p.svg)
	return p
}

func (p *PDF) Close() error {
	if err := p.SVG.Close(); err != nil {
		return err
	}
	if p.svg.Len() == 0 {
		return nil
	}
	out, err := rsvgConvert(p.svg.Bytes(), "pdf")
	if err != nil {
		return err
	}
	if _, err := p.w.Write(out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// rsvgConvert shells out to rsvg-convert for format conversion.
func rsvgConvert(svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, fmt.Errorf("%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.Command("rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	return out.Bytes(), nil
}

// Format names an output encoding.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts svg, png or pdf. An empty name is inferred from the
// extension of path, defaulting to SVG.
func ParseFormat(name, path string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(path), ".")
		if name == "" {
			return FormatSVG, nil
		}
	}
	switch f := Format(strings.ToLower(name)); f {
	case FormatSVG, FormatPNG, FormatPDF:
		return f, nil
	default:
		return "", ferrors.New(ferrors.CodeInvalidInput, "unknown output format %q (want svg, png or pdf)", name)
	}
}

// New returns the canvas for f writing to w.
func New(f Format, w io.Writer) (render.Canvas, error) {
	switch f {
	case FormatSVG:
		return NewSVG(w), nil
	case FormatPNG:
		return NewPNG(w), nil
	case FormatPDF:
		return NewPDF(w), nil
	default:
		return nil, ferrors.New(ferrors.CodeInvalidInput, "unknown output format %q", f)
	}
}
