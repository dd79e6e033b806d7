package studio

import (
	"errors"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"
)

type pickKind int

const (
	pickOBJ pickKind = iota
	pickScreenshotDir
)

type pick struct {
	kind pickKind
	path string
}

// Native dialogs block, so they run on their own goroutine. The picked path is
// queued and applied by handlePicks on the main thread, which owns the GL
// context.
func (s *Studio) openOBJDialog() {
	go func() {
		path, err := dialog.File().
			Filter("Wavefront OBJ", "obj").
			Filter("All Files", "*").
			Title("Import OBJ").
			Load()
		s.queue(pickOBJ, path, err)
	}()
}

func (s *Studio) openScreenshotDirDialog() {
	go func() {
		dir, err := dialog.Directory().
			Title("Screenshot Folder").
			Browse()
		s.queue(pickScreenshotDir, dir, err)
	}()
}

func (s *Studio) queue(kind pickKind, path string, err error) {
	if err != nil {
		if !errors.Is(err, dialog.ErrCancelled) {
			s.log.Error("file dialog failed", zap.Error(err))
		}
		return
	}
	s.picks <- pick{kind: kind, path: path}
}

func (s *Studio) handlePicks() {
	for {
		select {
		case p := <-s.picks:
			s.apply(p)
		default:
			return
		}
	}
}

func (s *Studio) apply(p pick) {
	switch p.kind {
	case pickOBJ:
		e, err := s.app.ImportOBJ(p.path)
		if err != nil {
			s.log.Error("import failed", zap.String("path", p.path), zap.Error(err))
			s.notify("Import failed: " + err.Error())
			return
		}
		s.notify("Imported " + e.Name())
	case pickScreenshotDir:
		s.app.Screenshots().SetOutputDir(p.path)
		s.notify("Screenshots go to " + p.path)
	}
}
