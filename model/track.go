package model

import "fmt"

// Track represents a single entry of the music library.
// Tracks are plain values: two tracks with identical fields are the same track.
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Tempo  int    `json:"bpm"`    // Beats per minute, already truncated to an integer
	Length int    `json:"length"` // Length in seconds
}

// String 返回便于日志输出的简短描述
func (t Track) String() string {
	return fmt.Sprintf("%s - %s (%d bpm, %ds)", t.Artist, t.Title, t.Tempo, t.Length)
}

// TotalLength returns the summed length of tracks in seconds.
func TotalLength(tracks []Track) int {
	total := 0
	for _, t := range tracks {
		total += t.Length
	}
	return total
}
