package io

import (
	"bufio"
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/pipeline"
	"github.com/matzehuels/chartsnap/pkg/scene"
)

// MaxInputSize bounds how much of one input is read.
const MaxInputSize = 32 << 20

// Kind is the sniffed type of an input.
type Kind int

const (
	KindUnknown Kind = iota
	KindSVG
	KindBitmap
)

// Sniff classifies the start of an input.
func Sniff(head []byte) Kind {
	head = bytes.TrimLeft(head, " \t\r\n\ufeff")
	if len(head) > 0 && head[0] == '<' {
		return KindSVG
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(head)); err == nil {
		return KindBitmap
	}
	return KindUnknown
}

// ReadScene decodes SVG markup from r.
func ReadScene(r io.Reader) (*scene.Scene, error) {
	data, err := readLimited(r)
	if err != nil {
		return nil, err
	}
	if Sniff(data) != KindSVG {
		return nil, errors.New(errors.ErrCodeInvalidInput, "input is not SVG markup")
	}
	return scene.Parse(bytes.NewReader(data))
}

// ReadSnapshot reads the primary input from primary and, when overlay is
// non-nil, the overlay layer from overlay.
func ReadSnapshot(primary, overlay io.Reader) (pipeline.Snapshot, error) {
	var snap pipeline.Snapshot

	data, err := readLimited(primary)
	if err != nil {
		return snap, err
	}
	switch Sniff(data) {
	case KindSVG:
		s, err := scene.Parse(bytes.NewReader(data))
		if err != nil {
			return snap, err
		}
		snap.Primary = scene.NewLive(s)
	case KindBitmap:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return snap, errors.Wrap(errors.ErrCodeRasterDecode, err, "decode bitmap input")
		}
		snap.PrimaryBitmap = img
	default:
		return snap, errors.New(errors.ErrCodeInvalidInput, "input is neither SVG nor a supported bitmap")
	}

	if overlay != nil {
		s, err := ReadScene(overlay)
		if err != nil {
			return snap, errors.Wrap(errors.ErrCodeInvalidInput, err, "overlay")
		}
		snap.Overlay = scene.NewLive(s)
	}
	return snap, nil
}

// ImportSnapshot reads the files at primaryPath and, if not empty,
// overlayPath.
func ImportSnapshot(primaryPath, overlayPath string) (pipeline.Snapshot, error) {
	f, err := open(primaryPath)
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	defer f.Close()

	var overlay io.Reader
	if overlayPath != "" {
		of, err := open(overlayPath)
		if err != nil {
			return pipeline.Snapshot{}, err
		}
		defer of.Close()
		overlay = bufio.NewReader(of)
	}
	return ReadSnapshot(bufio.NewReader(f), overlay)
}

func open(path string) (*os.File, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "no input file given")
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	return f, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read input")
	}
	if len(data) > MaxInputSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "input exceeds %d bytes", MaxInputSize)
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "input is empty")
	}
	return data, nil
}
