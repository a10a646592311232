package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bpmshuffle/core/library"
	"bpmshuffle/model"

	"github.com/fsnotify/fsnotify"
)

var cmdLibrary = []model.Track{
	{Title: "A1", Artist: "A", Album: "X", Tempo: 100, Length: 60},
	{Title: "B1", Artist: "B", Album: "Y", Tempo: 102, Length: 60},
	{Title: "A2", Artist: "A", Album: "X", Tempo: 104, Length: 60},
	{Title: "A2", Artist: "A", Album: "X", Tempo: 104, Length: 60},
}

func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	shuffleDuration, shuffleSource, shuffleSink = 0, sourceFile, sinkFile
	shuffleDedupe, shuffleWatch = false, false
	t.Cleanup(func() {
		shuffleCmd.Flags().Lookup("duration").Changed = false
		shuffleCmd.Flags().Lookup("dedupe").Changed = false
	})

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestShuffleCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	in := filepath.Join(dir, "library.tsv")
	out := filepath.Join(dir, "playlist.tsv")
	if err := library.WriteFile(in, cmdLibrary); err != nil {
		t.Fatal(err)
	}

	if err := runRoot(t, "shuffle", in, out); err != nil {
		t.Fatalf("shuffle failed: %v", err)
	}
	got, err := library.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(cmdLibrary) {
		t.Errorf("expected %d tracks, got %d", len(cmdLibrary), len(got))
	}
}

func TestShuffleCommandOptions(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	in := filepath.Join(dir, "library.tsv")
	if err := library.WriteFile(in, cmdLibrary); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"two minutes", []string{"--duration", "2"}, 2},
		{"zero minutes", []string{"--duration", "0"}, 0},
		{"dedupe", []string{"--dedupe"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.name+".tsv")
			args := append([]string{"shuffle", in, out}, tt.args...)
			if err := runRoot(t, args...); err != nil {
				t.Fatalf("shuffle failed: %v", err)
			}
			got, err := library.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d tracks, got %d", tt.want, len(got))
			}
		})
	}
}

func TestShuffleCommandRejects(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	tests := []struct {
		name string
		args []string
	}{
		{"negative duration", []string{"shuffle", "in.tsv", "out.tsv", "--duration", "-5"}},
		{"unknown source", []string{"shuffle", "in.tsv", "out.tsv", "--source", "ftp"}},
		{"unknown sink", []string{"shuffle", "in.tsv", "out.tsv", "--sink", "kafka"}},
		{"watch needs file", []string{"shuffle", "in.tsv", "out.tsv", "--source", "mysql", "--watch"}},
		{"missing library", []string{"shuffle", "missing.tsv", "out.tsv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := runRoot(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestIsLibraryChange(t *testing.T) {
	target, err := filepath.Abs("library.tsv")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "library.tsv", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "library.tsv", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "library.tsv", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "other.tsv", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		if got := isLibraryChange(tt.event, target); got != tt.want {
			t.Errorf("isLibraryChange(%v) = %v; want %v", tt.event, got, tt.want)
		}
	}
}

func TestWatchLibraryRebuilds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.tsv")
	if err := os.WriteFile(path, []byte("title\tartist\talbum\tbpm\tlength\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rebuilt := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- watchLibrary(ctx, path, func() error {
			select {
			case rebuilt <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// Keep touching the file until the watcher is registered and reacts. The
	// interval is longer than the debounce so the timer can fire in between.
	ticker := time.NewTicker(4 * watchDebounce)
	defer ticker.Stop()
	for waiting := true; waiting; {
		select {
		case <-rebuilt:
			waiting = false
		case <-ticker.C:
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				t.Fatal(err)
			}
			f.WriteString("t\ta\tb\t100\t60\n")
			f.Close()
		case <-ctx.Done():
			t.Fatal("library change did not trigger a rebuild")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watchLibrary returned %v", err)
	}
}
