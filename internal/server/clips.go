package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keagan/clipdeck/internal/clips"
	"github.com/keagan/clipdeck/internal/processor"
	"github.com/keagan/clipdeck/pkg/util"
)

func (s *Server) listClips(c echo.Context) error {
	list, err := s.deps.Store.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) getClip(c echo.Context) error {
	clip, err := s.deps.Store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clip)
}

// uploadClip stores a multipart "file" in the data dir, probes it and adds it to the catalog
func (s *Server) uploadClip(c echo.Context) error {
	ctx := c.Request().Context()

	fh, err := c.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: multipart field \"file\" is required", errBadRequest)
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	ext := strings.ToLower(util.GetExtension(fh.Filename))
	if ext == "" {
		ext = ".mp4"
	}
	id := newID()
	dest := filepath.Join(s.cfg.Storage.DataDir, id+ext)
	if err := util.EnsureDir(s.cfg.Storage.DataDir); err != nil {
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	size, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		util.CleanupFiles(dest)
		return fmt.Errorf("save upload: %w", err)
	}

	info, err := s.deps.Prober.ProbeVideo(ctx, dest)
	if err != nil {
		util.CleanupFiles(dest)
		return fmt.Errorf("%w: %s is not a playable video: %v", errBadRequest, fh.Filename, err)
	}
	if !info.HasVideo {
		util.CleanupFiles(dest)
		return fmt.Errorf("%w: %s has no video stream", errBadRequest, fh.Filename)
	}

	clip := &clips.Clip{
		ID:       id,
		Name:     filepath.Base(fh.Filename),
		Path:     dest,
		Duration: info.Duration.Seconds(),
		Size:     size,
	}
	if err := s.deps.Store.Add(ctx, clip); err != nil {
		util.CleanupFiles(dest)
		return err
	}

	s.logger.Info().
		Str("clip", clip.ID).
		Str("name", clip.Name).
		Float64("duration", clip.Duration).
		Int64("size", size).
		Msg("clip uploaded")
	return c.JSON(http.StatusCreated, clip)
}

func (s *Server) deleteClip(c echo.Context) error {
	ctx := c.Request().Context()
	clip, err := s.deps.Store.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if err := s.deps.Store.Remove(ctx, clip.ID); err != nil {
		return err
	}
	if n := s.sessions.removeClip(clip.ID); n > 0 {
		s.logger.Debug().Str("clip", clip.ID).Int("sessions", n).Msg("closed sessions of deleted clip")
	}

	// imported clips point at the user's own files
	if within(s.cfg.Storage.DataDir, clip.Path) {
		util.CleanupFiles(clip.Path)
	} else {
		s.logger.Info().Str("clip", clip.ID).Str("path", clip.Path).Msg("leaving file outside the data dir")
	}
	return c.NoContent(http.StatusNoContent)
}

// within reports whether path sits inside dir
func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *Server) clipFile(c echo.Context) error {
	clip, err := s.deps.Store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.File(clip.Path)
}

func (s *Server) clipThumbnail(c echo.Context) error {
	clip, err := s.deps.Store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	at := 0.0
	if raw := c.QueryParam("t"); raw != "" {
		at, err = strconv.ParseFloat(raw, 64)
		if err != nil || at < 0 {
			return fmt.Errorf("%w: t must be a non-negative number of seconds", errBadRequest)
		}
	}
	if at > clip.Duration {
		at = clip.Duration
	}

	data, err := s.deps.Thumbnails.Generate(c.Request().Context(), clip.Path, at, s.cfg.Thumbnails.Width)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}

// editBody is the JSON body of the synchronous edit endpoints
type editBody struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	At     float64 `json:"at"`
	Factor float64 `json:"factor"`
}

type editResponse struct {
	*processor.Result
	Seconds float64 `json:"seconds"`
}

func (s *Server) editClip(kind processor.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body editBody
		if err := c.Bind(&body); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}

		started := time.Now()
		res, err := s.deps.Processor.Run(c.Request().Context(), processor.Request{
			Kind:   kind,
			ClipID: c.Param("id"),
			Start:  body.Start,
			End:    body.End,
			At:     body.At,
			Factor: body.Factor,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, editResponse{Result: res, Seconds: elapsed(started)})
	}
}

func (s *Server) getJob(c echo.Context) error {
	job, err := s.deps.Processor.Job(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, job)
}
