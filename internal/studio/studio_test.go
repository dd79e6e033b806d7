package studio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sqweek/dialog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/app"
	"github.com/Faultbox/prism/internal/config"
	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
)

func newStudio(t *testing.T) *Studio {
	t.Helper()
	cfg := config.Default()
	cfg.Assets.Root = t.TempDir()
	cfg.Assets.ScreenshotDir = t.TempDir()
	cfg.Sky.IBLCubeSize = 8
	cfg.Sky.BRDFLUTSize = 8
	cfg.Terrain.Enabled = false
	cfg.Scene.Seed = 1

	a, err := app.New(cfg, gputest.NewDevice(64, 48))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return &Studio{app: a, log: zap.NewNop(), picks: make(chan pick, 4)}
}

func TestSameRow(t *testing.T) {
	var rows [][]int
	for i := range 10 {
		if !sameRow(i, materialsPerRow) {
			rows = append(rows, nil)
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], i)
	}
	assert.Equal(t, [][]int{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9}}, rows)
	assert.False(t, sameRow(3, 0))
}

func TestHandlePicks(t *testing.T) {
	s := newStudio(t)
	obj := filepath.Join(t.TempDir(), "quad.obj")
	require.NoError(t, os.WriteFile(obj, []byte("v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"), 0o644))
	dir := t.TempDir()

	count := len(s.app.Renderer().Entities())
	s.queue(pickOBJ, obj, nil)
	s.queue(pickScreenshotDir, dir, nil)
	s.handlePicks()

	assert.Len(t, s.app.Renderer().Entities(), count+1)
	assert.Equal(t, dir, s.app.Screenshots().OutputDir())
	assert.Contains(t, s.notice, dir)
	assert.Empty(t, s.picks)
}

func TestQueueDropsCancelledAndFailedPicks(t *testing.T) {
	s := newStudio(t)
	s.queue(pickOBJ, "", dialog.ErrCancelled)
	s.queue(pickOBJ, "", errors.New("no display"))
	assert.Empty(t, s.picks)
}

func TestImportFailureNotifies(t *testing.T) {
	s := newStudio(t)
	s.apply(pick{kind: pickOBJ, path: filepath.Join(t.TempDir(), "missing.obj")})
	assert.Contains(t, s.notice, "Import failed")
}
