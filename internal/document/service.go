// Copyright (c) 2026 Exvault. All rights reserved.

package document

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/exvault/exvault/internal/core/exercise"
	"github.com/exvault/exvault/internal/extract"
	"github.com/exvault/exvault/internal/imaging"
	"github.com/exvault/exvault/internal/platform/apperr"
	"github.com/exvault/exvault/internal/platform/constants"
	"github.com/exvault/exvault/internal/platform/ctxutil"
	"github.com/exvault/exvault/pkg/uuidv7"
)

// Library is the slice of the exercise service the workflow saves through.
type Library interface {
	ReplaceWeek(context context.Context, course string, week int, exercises []exercise.Exercise) ([]exercise.Exercise, error)
	SaveOne(context context.Context, course string, week int, item exercise.Exercise) (*exercise.Exercise, error)
}

// ImageWriter is the slice of the image store the workflow writes crops to.
type ImageWriter interface {
	Save(data []byte) (string, error)
	Delete(relativePath string) error
}

// Service owns all live capture sessions.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	rasterizer    *imaging.Rasterizer
	extractor     extract.Extractor
	images        ImageWriter
	library       Library
	minCropHeight int
	logger        *slog.Logger
}

func NewService(rasterizer *imaging.Rasterizer, extractor extract.Extractor, images ImageWriter, library Library, minCropHeight int, logger *slog.Logger) *Service {
	return &Service{
		sessions:      make(map[string]*Session),
		rasterizer:    rasterizer,
		extractor:     extractor,
		images:        images,
		library:       library,
		minCropHeight: minCropHeight,
		logger:        logger,
	}
}

// StartSweeper evicts idle sessions in the background until ctx ends.
func (service *Service) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(constants.SessionSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				service.sweep()
			}
		}
	}()
}

func (service *Service) sweep() {
	cutoff := time.Now().Add(-constants.SessionTTL)

	service.mu.Lock()
	defer service.mu.Unlock()

	for id, session := range service.sessions {
		session.mu.Lock()
		idle := session.lastActive.Before(cutoff) && !session.busy
		session.mu.Unlock()

		if idle {
			delete(service.sessions, id)
			service.logger.Info("idle session evicted", slog.String("session_id", id))
		}
	}
}

func (service *Service) session(id string) (*Session, error) {
	service.mu.RLock()
	defer service.mu.RUnlock()

	session, ok := service.sessions[id]
	if !ok {
		return nil, apperr.NotFound("Document session")
	}
	return session, nil
}

// # Session Lifecycle

// CreateSession rasterizes an upload, stitches the composite, and opens a
// new capture session around it.
func (service *Service) CreateSession(ctx context.Context, filename string, data []byte) (View, error) {
	logger := ctxutil.GetLogger(ctx)

	pages, err := service.rasterizer.Rasterize(ctx, filename, data)
	if err != nil {
		return View{}, err
	}

	frames, err := imaging.EncodePages(ctx, pages)
	if err != nil {
		return View{}, err
	}

	composite, err := imaging.Stitch(pages)
	if err != nil {
		return View{}, err
	}
	compositeFrame, err := imaging.EncodePNG(composite)
	if err != nil {
		return View{}, err
	}

	session := newSession(frames, composite, compositeFrame)

	service.mu.Lock()
	service.sessions[session.ID] = session
	service.mu.Unlock()

	logger.Info("capture session opened",
		slog.String("session_id", session.ID),
		slog.String("filename", filename),
		slog.Int("page_count", len(frames)),
		slog.Int("composite_height", compositeFrame.Height),
	)

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshot(), nil
}

func (service *Service) GetSession(id string) (View, error) {
	session, err := service.session(id)
	if err != nil {
		return View{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.touch()
	return session.snapshot(), nil
}

func (service *Service) CloseSession(id string) error {
	service.mu.Lock()
	defer service.mu.Unlock()

	if _, ok := service.sessions[id]; !ok {
		return apperr.NotFound("Document session")
	}
	delete(service.sessions, id)
	return nil
}

// Composite returns the encoded composite image.
func (service *Service) Composite(id string) (imaging.Frame, error) {
	session, err := service.session(id)
	if err != nil {
		return imaging.Frame{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.touch()
	return session.compositeFrame, nil
}

// # Extraction

// Extract runs AI analysis over the session's pages and replaces the draft
// list with the proposal. A failure leaves the existing drafts untouched;
// no partial proposal is ever applied.
func (service *Service) Extract(ctx context.Context, id string) (View, error) {
	session, err := service.session(id)
	if err != nil {
		return View{}, err
	}

	if err := session.beginAction("extraction"); err != nil {
		return View{}, err
	}
	defer session.endAction()

	session.mu.Lock()
	pages := make([]imaging.Frame, len(session.pages))
	copy(pages, session.pages)
	session.mu.Unlock()

	result, err := service.extractor.Extract(ctx, pages)
	if err != nil {
		return View{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.applyExtraction(result)
	session.touch()
	return session.snapshot(), nil
}

// # Draft Management

// AddDraft appends a user-authored draft, for exercises the AI missed.
func (service *Service) AddDraft(id string, name string, tags []string) (View, error) {
	session, err := service.session(id)
	if err != nil {
		return View{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	draft := &Draft{ID: uuidv7.New(), Name: name, Tags: tags}
	session.drafts = append(session.drafts, draft)
	session.touch()
	return session.snapshot(), nil
}

func (service *Service) UpdateDraft(id, draftID string, name string, tags []string) (View, error) {
	session, err := service.session(id)
	if err != nil {
		return View{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	draft, err := session.draftByID(draftID)
	if err != nil {
		return View{}, err
	}
	draft.Name = name
	draft.Tags = tags
	session.touch()
	return session.snapshot(), nil
}

func (service *Service) RemoveDraft(id, draftID string) (View, error) {
	session, err := service.session(id)
	if err != nil {
		return View{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	for index, draft := range session.drafts {
		if draft.ID == draftID {
			session.drafts = append(session.drafts[:index], session.drafts[index+1:]...)
			if session.selectedID == draftID {
				session.selectedID = ""
				session.editor.reset()
			}
			session.touch()
			return session.snapshot(), nil
		}
	}
	return View{}, apperr.NotFound("Exercise")
}

// Select marks the draft the next drawing gesture will attach to.
func (service *Service) Select(id, draftID string) (View, error) {
	session, err := service.session(id)
	if err != nil {
		return View{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if _, err := session.draftByID(draftID); err != nil {
		return View{}, err
	}
	session.selectedID = draftID
	session.editor.reset()
	session.touch()
	return session.snapshot(), nil
}

// # Drawing

// HandlePointer advances the box editor by one pointer event. When the
// event completes a gesture with nonzero extent, the box is cropped from
// the composite and attached to the selected draft; nothing is persisted.
func (service *Service) HandlePointer(id string, event PointerEvent) (View, error) {
	session, err := service.session(id)
	if err != nil {
		return View{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.touch()

	// Drawing starts only with a target to attach the result to.
	if event.Type == EventDown && session.selectedID == "" {
		return session.snapshot(), nil
	}

	nativeY, err := toNative(event, session.compositeFrame.Height)
	if err != nil {
		return View{}, err
	}

	box, completed, err := session.editor.handle(event.Type, nativeY)
	if err != nil {
		return View{}, err
	}
	if !completed || session.selectedID == "" {
		return session.snapshot(), nil
	}

	draft, err := session.draftByID(session.selectedID)
	if err != nil {
		return View{}, err
	}

	cropped, err := imaging.Crop(session.composite, box, service.minCropHeight)
	if err != nil {
		return View{}, err
	}
	frame, err := imaging.EncodePNG(cropped)
	if err != nil {
		return View{}, err
	}

	draft.Box = &box
	draft.Crop = &frame
	return session.snapshot(), nil
}

// Crop returns the encoded crop of one draft.
func (service *Service) Crop(id, draftID string) (imaging.Frame, error) {
	session, err := service.session(id)
	if err != nil {
		return imaging.Frame{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	draft, err := session.draftByID(draftID)
	if err != nil {
		return imaging.Frame{}, err
	}
	if !draft.HasCrop() {
		return imaging.Frame{}, apperr.SourceNotReady("Exercise has no crop yet")
	}
	return *draft.Crop, nil
}

// # Saving

// SaveWeek persists every cropped draft of the session as the given week of
// its course, atomically replacing whatever the week held before.
//
// Image files are written first; if the database batch then fails, the
// fresh files are removed again so a failed save leaves no trace.
func (service *Service) SaveWeek(ctx context.Context, id string, course string, week int) ([]exercise.Exercise, error) {
	session, err := service.session(id)
	if err != nil {
		return nil, err
	}

	if err := session.beginAction("save"); err != nil {
		return nil, err
	}
	defer session.endAction()

	// Snapshot the draft values while holding the mutex. A gesture or edit
	// landing mid-save must not change what gets persisted, and pure reads
	// of *Draft are not safe once the lock is released.
	session.mu.Lock()
	if course == "" {
		course = session.courseName
	}
	batch := make([]exercise.Exercise, 0, len(session.drafts))
	crops := make([]imaging.Frame, 0, len(session.drafts))
	for _, draft := range session.drafts {
		if !draft.HasCrop() {
			continue
		}
		crops = append(crops, *draft.Crop)
		batch = append(batch, exercise.Exercise{
			Name:        draft.Name,
			Tags:        append([]string(nil), draft.Tags...),
			BoundingBox: *draft.Box,
		})
	}
	session.mu.Unlock()

	if course == "" {
		return nil, apperr.ValidationError("Course name is required")
	}
	if len(batch) == 0 {
		return nil, apperr.Unprocessable("No exercises have been cropped yet")
	}

	writtenPaths := make([]string, 0, len(batch))
	for index := range batch {
		path, err := service.images.Save(crops[index].PNG)
		if err != nil {
			service.discardFiles(writtenPaths)
			return nil, err
		}
		writtenPaths = append(writtenPaths, path)
		batch[index].ImagePath = path
	}

	saved, err := service.library.ReplaceWeek(ctx, course, week, batch)
	if err != nil {
		service.discardFiles(writtenPaths)
		return nil, err
	}
	return saved, nil
}

// SaveExercise persists a single cropped draft without touching the rest of
// the week.
func (service *Service) SaveExercise(ctx context.Context, id, draftID string, course string, week int) (*exercise.Exercise, error) {
	session, err := service.session(id)
	if err != nil {
		return nil, err
	}

	if err := session.beginAction("save"); err != nil {
		return nil, err
	}
	defer session.endAction()

	// Same snapshot rule as SaveWeek: copy the draft under the mutex and
	// never read it again after unlock.
	session.mu.Lock()
	if course == "" {
		course = session.courseName
	}
	draft, err := session.draftByID(draftID)
	if err != nil {
		session.mu.Unlock()
		return nil, err
	}
	hasCrop := draft.HasCrop()
	var crop imaging.Frame
	var item exercise.Exercise
	if hasCrop {
		crop = *draft.Crop
		item = exercise.Exercise{
			Name:        draft.Name,
			Tags:        append([]string(nil), draft.Tags...),
			BoundingBox: *draft.Box,
		}
	}
	session.mu.Unlock()

	if course == "" {
		return nil, apperr.ValidationError("Course name is required")
	}
	if !hasCrop {
		return nil, apperr.Unprocessable("Exercise has no crop yet")
	}

	path, err := service.images.Save(crop.PNG)
	if err != nil {
		return nil, err
	}

	item.ImagePath = path
	saved, err := service.library.SaveOne(ctx, course, week, item)
	if err != nil {
		service.discardFiles([]string{path})
		return nil, err
	}
	return saved, nil
}

// discardFiles rolls back image files written for a save that failed.
func (service *Service) discardFiles(paths []string) {
	for _, path := range paths {
		if err := service.images.Delete(path); err != nil {
			service.logger.Warn("stale image not removed after failed save",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}
}
