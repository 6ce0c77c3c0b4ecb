package game

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/ncruces/zenity"

	"github.com/iburimskiy/signal-network/internal/config"
	"github.com/iburimskiy/signal-network/internal/logging"
	"github.com/iburimskiy/signal-network/internal/render"
	"github.com/iburimskiy/signal-network/internal/scheduler"
)

// Game hosts the scheduler inside an ebiten window. Draw is the frame tick:
// ebiten calls it once before every repaint.
type Game struct {
	sched    *scheduler.Scheduler
	renderer *render.Renderer
	log      logging.Logger

	frames  *frameTap
	started time.Time
	surface *screenSurface

	showStats bool
	lastErr   error

	// chooseSnapshotPath is swapped in tests.
	chooseSnapshotPath func() (string, error)
}

// New returns a Game driving sched.
func New(sched *scheduler.Scheduler, renderer *render.Renderer, log logging.Logger) *Game {
	if log == nil {
		log = logging.Noop()
	}
	return &Game{
		sched:              sched,
		renderer:           renderer,
		log:                log.With(logging.String("component", "game")),
		frames:             newFrameTap(config.FrameRingSize),
		started:            time.Now(),
		chooseSnapshotPath: selectSnapshotFile,
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		g.sched.Stop()
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		g.showStats = !g.showStats
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.lastErr = g.saveSnapshot()
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	initTextures()
	g.sched.Tick(w, h, g.surfaceFor(screen))
	g.frames.record(time.Since(start))

	if g.showStats {
		ebitenutil.DebugPrintAt(screen, g.status(), 12, 12)
	}
}

// surfaceFor points the shared screen surface at dst. The surface keeps its
// vertex and index buffers between frames.
func (g *Game) surfaceFor(dst *ebiten.Image) *screenSurface {
	if g.surface == nil {
		g.surface = &screenSurface{}
	}
	g.surface.dst = dst
	return g.surface
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (g *Game) status() string {
	curves, signals := 0, 0
	if net := g.sched.Network(); net != nil {
		curves, signals = len(net.Curves), len(net.Signals)
	}
	status := fmt.Sprintf("%s | frame %s | curves %d | signals %d | S: snapshot, D: hide, Q: quit",
		formatDuration(time.Since(g.started)), formatFrameTime(g.frames.average()), curves, signals)
	if g.lastErr != nil {
		status += " | Error: " + g.lastErr.Error()
	}
	return status
}

// saveSnapshot renders the current network off-screen and writes it to a
// PNG chosen by the user. Cancelling the dialog is not an error.
func (g *Game) saveSnapshot() error {
	net := g.sched.Network()
	if net == nil {
		return nil
	}
	path, err := g.chooseSnapshotPath()
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil
		}
		return err
	}
	path = ensurePNG(path)

	surface := render.NewRaster(net.Width, net.Height)
	if surface == nil {
		return nil
	}
	g.renderer.Render(surface, net)

	ctx := context.Background()
	f, err := os.Create(path)
	if err != nil {
		g.log.Error(ctx, "snapshot failed", logging.String("path", path), logging.Err(err))
		return err
	}
	if err := surface.WritePNG(f); err != nil {
		_ = f.Close()
		g.log.Error(ctx, "snapshot failed", logging.String("path", path), logging.Err(err))
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	g.log.Info(ctx, "snapshot saved", logging.String("path", path))
	return nil
}

func selectSnapshotFile() (string, error) {
	return zenity.SelectFileSave(
		zenity.Title("Save Snapshot"),
		zenity.Filename("signals.png"),
		zenity.ConfirmOverwrite(),
		zenity.FileFilters{{
			Name:     "PNG image",
			Patterns: []string{"*.png"},
		}},
	)
}
