// Package library reads track libraries from, and writes playlists to, the
// tab-separated format used by the command line tool.
package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"bpmshuffle/model"
)

var (
	// ErrMalformedRow is returned for rows that cannot be turned into a track.
	ErrMalformedRow = errors.New("malformed library row")
	// ErrBadLength is returned for length values that are not hh:mm:ss.
	ErrBadLength = errors.New("invalid track length")
)

// Headers is the header row written in front of every playlist.
var Headers = []string{"title", "artist", "album", "bpm", "length"}

const delimiter = '\t'

// ParseLibrary reads tab-separated rows of title, artist, album, bpm and
// length. A leading header row is skipped. Parsing stops at the first bad row.
func ParseLibrary(r io.Reader) ([]model.Track, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var tracks []model.Track
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read library: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}

		track, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func isHeader(record []string) bool {
	return len(record) >= 4 &&
		strings.EqualFold(strings.TrimSpace(record[0]), Headers[0]) &&
		strings.EqualFold(strings.TrimSpace(record[3]), Headers[3])
}

func parseRecord(record []string) (model.Track, error) {
	if len(record) < len(Headers) {
		return model.Track{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRow, len(Headers), len(record))
	}

	tempo, err := parseTempo(record[3])
	if err != nil {
		return model.Track{}, err
	}
	length, err := LengthToSeconds(record[4])
	if err != nil {
		return model.Track{}, err
	}

	return model.Track{
		Title:  record[0],
		Artist: record[1],
		Album:  record[2],
		Tempo:  tempo,
		Length: length,
	}, nil
}

// parseTempo accepts integer or decimal bpm values, truncating toward zero.
func parseTempo(value string) (int, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: bpm %q is not a number", ErrMalformedRow, value)
	}
	return int(f), nil
}

// WritePlaylist writes tracks with a header row. Lengths are written as hh:mm:ss.
func WritePlaylist(w io.Writer, tracks []model.Track) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if err := writer.Write(Headers); err != nil {
		return err
	}
	for _, t := range tracks {
		row := []string{
			t.Title,
			t.Artist,
			t.Album,
			strconv.Itoa(t.Tempo),
			SecondsToLength(t.Length),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadFile parses the library stored at path.
func ReadFile(path string) ([]model.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library %s: %w", path, err)
	}
	defer f.Close()

	tracks, err := ParseLibrary(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tracks, nil
}

// WriteFile writes the playlist to path, replacing any existing file.
func WriteFile(path string, tracks []model.Track) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create playlist %s: %w", path, err)
	}

	if err := WritePlaylist(f, tracks); err != nil {
		f.Close()
		return fmt.Errorf("failed to write playlist %s: %w", path, err)
	}
	return f.Close()
}

// Dedupe drops repeated tracks, keeping the first occurrence.
func Dedupe(tracks []model.Track) []model.Track {
	seen := make(map[model.Track]struct{}, len(tracks))
	out := make([]model.Track, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
