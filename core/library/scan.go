package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"bpmshuffle/model"

	"github.com/bogem/id3v2"
	"github.com/dhowden/tag"
)

// SkippedFile is an audio file the scanner could not turn into a track.
type SkippedFile struct {
	Path   string
	Reason string
}

// ScanReport is the outcome of scanning a music directory.
type ScanReport struct {
	Tracks  []model.Track
	Skipped []SkippedFile
}

var scannedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

// ScanDir walks root and builds a library from the tags of the audio files it
// finds. Files lacking a tempo or a length are reported as skipped.
func ScanDir(root string) (*ScanReport, error) {
	report := &ScanReport{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || !scannedExtensions[ext] {
			return nil
		}

		var track model.Track
		if ext == ".mp3" {
			track, err = readMP3(path)
		} else {
			track, err = readTagged(path)
		}
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: err.Error()})
			return nil
		}
		report.Tracks = append(report.Tracks, track)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(report.Skipped, func(i, j int) bool {
		return report.Skipped[i].Path < report.Skipped[j].Path
	})
	return report, nil
}

// readMP3 reads ID3v2 frames. TLEN holds the length in milliseconds.
func readMP3(path string) (model.Track, error) {
	id3, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return model.Track{}, fmt.Errorf("read id3 tag: %w", err)
	}
	defer id3.Close()

	bpm := id3.GetTextFrame(id3.CommonID("BPM")).Text
	tempo, err := parseTempo(bpm)
	if err != nil {
		return model.Track{}, fmt.Errorf("missing bpm: %w", err)
	}

	tlen := strings.TrimSpace(id3.GetTextFrame("TLEN").Text)
	ms, err := strconv.Atoi(tlen)
	if err != nil || ms <= 0 {
		return model.Track{}, fmt.Errorf("missing length (TLEN %q)", tlen)
	}

	return model.Track{
		Title:  id3.Title(),
		Artist: id3.Artist(),
		Album:  id3.Album(),
		Tempo:  tempo,
		Length: ms / 1000,
	}, nil
}

// readTagged reads FLAC, MP4 and Ogg metadata. Tempo and length are taken
// from the raw tag map since they are not part of the common fields.
func readTagged(path string) (model.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Track{}, err
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return model.Track{}, fmt.Errorf("read tags: %w", err)
	}
	raw := meta.Raw()

	tempo, ok := rawInt(raw, "bpm", "BPM", "tmpo", "TBPM")
	if !ok {
		return model.Track{}, fmt.Errorf("missing bpm")
	}
	length, ok := rawLength(raw, "length", "LENGTH")
	if !ok {
		return model.Track{}, fmt.Errorf("missing length")
	}

	return model.Track{
		Title:  meta.Title(),
		Artist: meta.Artist(),
		Album:  meta.Album(),
		Tempo:  tempo,
		Length: length,
	}, nil
}

func rawInt(raw map[string]interface{}, keys ...string) (int, bool) {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case int:
			return v, true
		case string:
			if n, err := parseTempo(v); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func rawLength(raw map[string]interface{}, keys ...string) (int, bool) {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case int:
			return v, v > 0
		case string:
			if n, err := LengthToSeconds(v); err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}
