package game

import (
	"errors"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/ncruces/zenity"

	"github.com/iburimskiy/signal-network/internal/network"
	"github.com/iburimskiy/signal-network/internal/render"
	"github.com/iburimskiy/signal-network/internal/scheduler"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	renderer := render.New(network.RGBA(5, 7, 13, 1))
	sched := scheduler.New(scheduler.Options{
		Lines:    10,
		Manager:  network.NewManager(network.Params{Density: 8, SpeedMultiplier: 1}, rand.New(rand.NewPCG(1, 1))),
		Renderer: renderer,
	})
	return New(sched, renderer, nil)
}

func TestSaveSnapshotWritesPNG(t *testing.T) {
	g := newTestGame(t)
	g.sched.Tick(160, 90, render.NewRaster(160, 90))

	target := filepath.Join(t.TempDir(), "frame")
	g.chooseSnapshotPath = func() (string, error) { return target, nil }
	if err := g.saveSnapshot(); err != nil {
		t.Fatalf("saveSnapshot: %v", err)
	}

	f, err := os.Open(target + ".png")
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 90 {
		t.Fatalf("snapshot bounds = %v", b)
	}
}

func TestSaveSnapshotCancelled(t *testing.T) {
	g := newTestGame(t)
	g.sched.Tick(160, 90, render.NewRaster(160, 90))
	g.chooseSnapshotPath = func() (string, error) { return "", zenity.ErrCanceled }
	if err := g.saveSnapshot(); err != nil {
		t.Fatalf("cancel should not be an error, got %v", err)
	}
}

func TestSaveSnapshotDialogError(t *testing.T) {
	g := newTestGame(t)
	g.sched.Tick(160, 90, render.NewRaster(160, 90))
	boom := errors.New("no display")
	g.chooseSnapshotPath = func() (string, error) { return "", boom }
	if err := g.saveSnapshot(); !errors.Is(err, boom) {
		t.Fatalf("saveSnapshot() = %v, want %v", err, boom)
	}
}

func TestSaveSnapshotBeforeFirstFrame(t *testing.T) {
	g := newTestGame(t)
	g.chooseSnapshotPath = func() (string, error) {
		t.Fatal("dialog opened without a network")
		return "", nil
	}
	if err := g.saveSnapshot(); err != nil {
		t.Fatal(err)
	}
}

func TestStatusReportsNetwork(t *testing.T) {
	g := newTestGame(t)
	g.sched.Tick(160, 90, render.NewRaster(160, 90))
	g.frames.record(4 * time.Millisecond)
	g.lastErr = errors.New("disk full")

	s := g.status()
	for _, want := range []string{"curves 10", "4.00 ms (250 fps)", "Error: disk full"} {
		if !strings.Contains(s, want) {
			t.Fatalf("status %q missing %q", s, want)
		}
	}
}

func TestSurfaceReusedAcrossFrames(t *testing.T) {
	g := newTestGame(t)
	first := g.surfaceFor(nil)
	first.vertices = make([]ebiten.Vertex, 0, 64)
	first.indices = make([]uint16, 0, 96)

	second := g.surfaceFor(nil)
	if second != first {
		t.Fatal("a new surface was allocated for the second frame")
	}
	if cap(second.vertices) != 64 || cap(second.indices) != 96 {
		t.Fatalf("scratch buffers dropped: vertices cap %d, indices cap %d", cap(second.vertices), cap(second.indices))
	}
}

func TestFrameTapKeepsMostRecent(t *testing.T) {
	tap := newFrameTap(3)
	if tap.average() != 0 {
		t.Fatal("empty tap should average to zero")
	}
	for i := 1; i <= 5; i++ {
		tap.record(time.Duration(i) * time.Millisecond)
	}
	got := tap.snapshot(10)
	want := []time.Duration{3 * time.Millisecond, 4 * time.Millisecond, 5 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot = %v, want %v", got, want)
		}
	}
	if avg := tap.average(); avg != 4*time.Millisecond {
		t.Fatalf("average = %v, want 4ms", avg)
	}
}

func TestEnsurePNG(t *testing.T) {
	tests := map[string]string{
		"shot":       "shot.png",
		"shot.png":   "shot.png",
		"shot.PNG":   "shot.PNG",
		"dir/a.jpeg": "dir/a.jpeg.png",
	}
	for in, want := range tests {
		if got := ensurePNG(in); got != want {
			t.Fatalf("ensurePNG(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(125 * time.Second); got != "02:05" {
		t.Fatalf("formatDuration = %q", got)
	}
}
