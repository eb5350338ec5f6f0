// Copyright (c) 2026 Exvault. All rights reserved.

package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exvault/exvault/internal/core/exercise"
	"github.com/exvault/exvault/internal/extract"
	"github.com/exvault/exvault/internal/imaging"
	"github.com/exvault/exvault/internal/platform/apperr"
)

// # Fakes

// stubExtractor returns a fixed result or error, optionally blocking until
// released to exercise the busy guard.
type stubExtractor struct {
	result  extract.Result
	err     error
	started chan struct{}
	release chan struct{}
}

func (extractor *stubExtractor) Extract(ctx context.Context, pages []imaging.Frame) (extract.Result, error) {
	if extractor.started != nil {
		close(extractor.started)
	}
	if extractor.release != nil {
		<-extractor.release
	}
	if extractor.err != nil {
		return extract.Result{}, extractor.err
	}
	return extractor.result, nil
}

// stubImages records written blobs and can fail on demand, optionally
// blocking the first write until released.
type stubImages struct {
	saveErr error
	writes  int
	deleted []string
	started chan struct{}
	release chan struct{}
}

func (images *stubImages) Save(data []byte) (string, error) {
	if images.started != nil {
		close(images.started)
		images.started = nil
	}
	if images.release != nil {
		<-images.release
	}
	if images.saveErr != nil {
		return "", images.saveErr
	}
	images.writes++
	return fmt.Sprintf("images/crop-%d.png", images.writes), nil
}

func (images *stubImages) Delete(path string) error {
	images.deleted = append(images.deleted, path)
	return nil
}

// stubLibrary records batch saves and can fail on demand.
type stubLibrary struct {
	err      error
	course   string
	week     int
	received []exercise.Exercise
}

func (library *stubLibrary) ReplaceWeek(_ context.Context, course string, week int, items []exercise.Exercise) ([]exercise.Exercise, error) {
	if library.err != nil {
		return nil, library.err
	}
	library.course = course
	library.week = week
	library.received = items
	return items, nil
}

func (library *stubLibrary) SaveOne(_ context.Context, course string, week int, item exercise.Exercise) (*exercise.Exercise, error) {
	if library.err != nil {
		return nil, library.err
	}
	library.course = course
	library.week = week
	library.received = append(library.received, item)
	return &item, nil
}

// # Helpers

func pngUpload(t *testing.T, width, height int) []byte {
	t.Helper()

	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(bitmap, bitmap.Bounds(), image.NewUniform(color.RGBA{R: 0xFF, A: 0xFF}), image.Point{}, draw.Src)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, bitmap))
	return buf.Bytes()
}

func newTestService(extractor extract.Extractor, images *stubImages, library *stubLibrary) *Service {
	return NewService(imaging.NewRasterizer(1.5), extractor, images, library, 150, slog.Default())
}

func openSession(t *testing.T, service *Service, width, height int) string {
	t.Helper()

	view, err := service.CreateSession(context.Background(), "pages.png", pngUpload(t, width, height))
	require.NoError(t, err)
	return view.ID
}

var proposal = extract.Result{
	CourseName: "Linear Algebra",
	Exercises: []extract.Exercise{
		{Name: "Exercise 1.1", Tags: []string{"homework", "matrices"}},
		{Name: "Exercise 1.2", Tags: []string{"homework", "vectors"}},
	},
}

// # Tests

func TestService_CreateSession(t *testing.T) {
	service := newTestService(&stubExtractor{}, &stubImages{}, &stubLibrary{})

	view, err := service.CreateSession(t.Context(), "scan.png", pngUpload(t, 800, 1000))

	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, 1, view.PageCount)
	assert.Equal(t, 800, view.CompositeWidth)
	assert.Equal(t, 1000, view.CompositeHeight)
	assert.Empty(t, view.Exercises)
}

func TestService_CreateSession_BadUpload(t *testing.T) {
	service := newTestService(&stubExtractor{}, &stubImages{}, &stubLibrary{})

	_, err := service.CreateSession(t.Context(), "scan.png", []byte("not an image"))

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "IMAGE_DECODE_ERROR", appError.Code)
}

func TestService_Extract_PopulatesDrafts(t *testing.T) {
	service := newTestService(&stubExtractor{result: proposal}, &stubImages{}, &stubLibrary{})
	id := openSession(t, service, 800, 1000)

	view, err := service.Extract(t.Context(), id)

	require.NoError(t, err)
	assert.Equal(t, "Linear Algebra", view.CourseName)
	require.Len(t, view.Exercises, 2)
	assert.Equal(t, "Exercise 1.1", view.Exercises[0].Name)
	assert.False(t, view.Exercises[0].Selected)
}

/*
TestService_Extract_FailureKeepsDrafts verifies a failed extraction leaves
the previous proposal intact; no partial result is ever applied.
*/
func TestService_Extract_FailureKeepsDrafts(t *testing.T) {
	extractor := &stubExtractor{result: proposal}
	service := newTestService(extractor, &stubImages{}, &stubLibrary{})
	id := openSession(t, service, 800, 1000)

	_, err := service.Extract(t.Context(), id)
	require.NoError(t, err)

	extractor.err = apperr.ExtractionError("AI extraction call failed", errors.New("upstream 500"))
	_, err = service.Extract(t.Context(), id)
	require.Error(t, err)

	view, err := service.GetSession(id)
	require.NoError(t, err)
	assert.Len(t, view.Exercises, 2, "previous proposal survives the failure")
}

/*
TestService_Extract_BusyConflict verifies re-entrant extraction triggers
are rejected while one call is outstanding.
*/
func TestService_Extract_BusyConflict(t *testing.T) {
	extractor := &stubExtractor{
		result:  proposal,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	service := newTestService(extractor, &stubImages{}, &stubLibrary{})
	id := openSession(t, service, 800, 1000)

	done := make(chan error, 1)
	go func() {
		_, err := service.Extract(context.Background(), id)
		done <- err
	}()

	<-extractor.started
	_, err := service.Extract(t.Context(), id)

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "CONFLICT", appError.Code)

	close(extractor.release)
	require.NoError(t, <-done)
}

// drawBox runs a full select-and-drag gesture on the session.
func drawBox(t *testing.T, service *Service, id, draftID string, fromY, toY, viewHeight float64) {
	t.Helper()

	_, err := service.Select(id, draftID)
	require.NoError(t, err)

	for _, event := range []PointerEvent{
		{Type: EventDown, Y: fromY, ViewHeight: viewHeight},
		{Type: EventMove, Y: (fromY + toY) / 2, ViewHeight: viewHeight},
		{Type: EventUp, Y: toY, ViewHeight: viewHeight},
	} {
		_, err := service.HandlePointer(id, event)
		require.NoError(t, err)
	}
}

/*
TestService_DrawingAttachesCrop verifies the full gesture path: the screen
coordinates are scaled through the event's view height, and completing the
gesture attaches a crop of the expected native dimensions.
*/
func TestService_DrawingAttachesCrop(t *testing.T) {
	service := newTestService(&stubExtractor{result: proposal}, &stubImages{}, &stubLibrary{})
	id := openSession(t, service, 800, 1000)

	view, err := service.Extract(t.Context(), id)
	require.NoError(t, err)
	draftID := view.Exercises[0].ID

	// View rendered at half the native height: screen 100..250 is native 200..500.
	drawBox(t, service, id, draftID, 100, 250, 500)

	view, err = service.GetSession(id)
	require.NoError(t, err)
	require.NotNil(t, view.Exercises[0].Box)
	assert.Equal(t, 200, view.Exercises[0].Box.Y)
	assert.Equal(t, 300, view.Exercises[0].Box.Height)
	assert.Equal(t, 800, view.Exercises[0].CropWidth)
	assert.Equal(t, 300, view.Exercises[0].CropHeight)

	frame, err := service.Crop(id, draftID)
	require.NoError(t, err)
	assert.NotEmpty(t, frame.PNG)
}

/*
TestService_DrawingPadsThinCrops verifies the minimum-height policy flows
through the gesture path: a thin band yields a crop of exactly the minimum.
*/
func TestService_DrawingPadsThinCrops(t *testing.T) {
	service := newTestService(&stubExtractor{result: proposal}, &stubImages{}, &stubLibrary{})
	id := openSession(t, service, 800, 1000)

	view, err := service.Extract(t.Context(), id)
	require.NoError(t, err)
	draftID := view.Exercises[0].ID

	// Native 40px band, below the 150px minimum.
	drawBox(t, service, id, draftID, 100, 140, 1000)

	view, err = service.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, 40, view.Exercises[0].Box.Height)
	assert.Equal(t, 150, view.Exercises[0].CropHeight)
}

/*
TestService_ViewResizeMidGesture verifies the rect survives a window resize
between pointer-down and pointer-up: each event is mapped through its own
view height, so the finished box is correct in native pixels.
*/
func TestService_ViewResizeMidGesture(t *testing.T) {
	service := newTestService(&stubExtractor{result: proposal}, &stubImages{}, &stubLibrary{})
	id := openSession(t, service, 800, 1000)

	view, err := service.Extract(t.Context(), id)
	require.NoError(t, err)
	draftID := view.Exercises[0].ID

	_, err = service.Select(id, draftID)
	require.NoError(t, err)

	// Down at half scale (screen 100 = native 200), then the window grows
	// to full scale before release (screen 500 = native 500).
	for _, event := range []PointerEvent{
		{Type: EventDown, Y: 100, ViewHeight: 500},
		{Type: EventMove, Y: 150, ViewHeight: 500},
		{Type: EventUp, Y: 500, ViewHeight: 1000},
	} {
		_, err := service.HandlePointer(id, event)
		require.NoError(t, err)
	}

	view, err = service.GetSession(id)
	require.NoError(t, err)
	require.NotNil(t, view.Exercises[0].Box)
	assert.Equal(t, 200, view.Exercises[0].Box.Y)
	assert.Equal(t, 300, view.Exercises[0].Box.Height)
}

func TestService_PointerDownWithoutSelection(t *testing.T) {
	service := newTestService(&stubExtractor{result: proposal}, &stubImages{}, &stubLibrary{})
	id := openSession(t, service, 800, 1000)

	_, err := service.Extract(t.Context(), id)
	require.NoError(t, err)

	// No selection: the gesture is ignored end to end.
	for _, event := range []PointerEvent{
		{Type: EventDown, Y: 100, ViewHeight: 1000},
		{Type: EventUp, Y: 400, ViewHeight: 1000},
	} {
		_, err := service.HandlePointer(id, event)
		require.NoError(t, err)
	}

	view, err := service.GetSession(id)
	require.NoError(t, err)
	for _, draft := range view.Exercises {
		assert.Nil(t, draft.Box)
	}
}

func TestService_SaveWeek(t *testing.T) {
	images := &stubImages{}
	library := &stubLibrary{}
	service := newTestService(&stubExtractor{result: proposal}, images, library)
	id := openSession(t, service, 800, 1000)

	view, err := service.Extract(t.Context(), id)
	require.NoError(t, err)

	drawBox(t, service, id, view.Exercises[0].ID, 100, 400, 1000)
	drawBox(t, service, id, view.Exercises[1].ID, 500, 900, 1000)

	saved, err := service.SaveWeek(t.Context(), id, "", 3)

	require.NoError(t, err)
	assert.Len(t, saved, 2)
	assert.Equal(t, "Linear Algebra", library.course, "course defaults to the extracted name")
	assert.Equal(t, 3, library.week)
	assert.Equal(t, 2, images.writes)
	assert.Empty(t, images.deleted)
	assert.Equal(t, "images/crop-1.png", library.received[0].ImagePath)
}

/*
TestService_SaveWeek_GestureDuringSaveDoesNotChangeBatch verifies the save
persists the draft values as they were when the save began: a drag that
completes while the image files are still being written must not bleed a
different box or crop into the batch.
*/
func TestService_SaveWeek_GestureDuringSaveDoesNotChangeBatch(t *testing.T) {
	images := &stubImages{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	library := &stubLibrary{}
	service := newTestService(&stubExtractor{result: proposal}, images, library)
	id := openSession(t, service, 800, 1000)

	view, err := service.Extract(t.Context(), id)
	require.NoError(t, err)
	draftID := view.Exercises[0].ID

	drawBox(t, service, id, draftID, 100, 400, 1000)

	started := images.started
	done := make(chan error, 1)
	go func() {
		_, err := service.SaveWeek(context.Background(), id, "", 1)
		done <- err
	}()

	// The file write is in flight, so the batch is already snapshotted.
	// Redraw the box somewhere else before letting the save finish.
	<-started
	drawBox(t, service, id, draftID, 600, 900, 1000)
	close(images.release)
	require.NoError(t, <-done)

	require.Len(t, library.received, 1)
	assert.Equal(t, 100, library.received[0].BoundingBox.Y)
	assert.Equal(t, 300, library.received[0].BoundingBox.Height)

	// The session keeps the newer gesture; only the batch was frozen.
	view, err = service.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, 600, view.Exercises[0].Box.Y)
}

/*
TestService_SaveWeek_RollsBackFilesOnDBFailure verifies the compensation
path: when the batch write fails, image files written for it are removed.
*/
func TestService_SaveWeek_RollsBackFilesOnDBFailure(t *testing.T) {
	images := &stubImages{}
	library := &stubLibrary{err: apperr.SaveError("Database operation failed: insert_exercise", errors.New("boom"))}
	service := newTestService(&stubExtractor{result: proposal}, images, library)
	id := openSession(t, service, 800, 1000)

	view, err := service.Extract(t.Context(), id)
	require.NoError(t, err)
	drawBox(t, service, id, view.Exercises[0].ID, 100, 400, 1000)

	_, err = service.SaveWeek(t.Context(), id, "", 1)

	require.Error(t, err)
	assert.Equal(t, []string{"images/crop-1.png"}, images.deleted)
}

func TestService_SaveWeek_NothingCropped(t *testing.T) {
	service := newTestService(&stubExtractor{result: proposal}, &stubImages{}, &stubLibrary{})
	id := openSession(t, service, 800, 1000)

	_, err := service.Extract(t.Context(), id)
	require.NoError(t, err)

	_, err = service.SaveWeek(t.Context(), id, "", 1)

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "UNPROCESSABLE", appError.Code)
}

func TestService_SaveWeek_NoCourseName(t *testing.T) {
	service := newTestService(&stubExtractor{}, &stubImages{}, &stubLibrary{})
	id := openSession(t, service, 800, 1000)

	// Manual draft with a crop but no extraction, so no course name exists.
	view, err := service.AddDraft(id, "Handwritten", nil)
	require.NoError(t, err)
	drawBox(t, service, id, view.Exercises[0].ID, 100, 400, 1000)

	_, err = service.SaveWeek(t.Context(), id, "", 1)

	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
}

func TestService_CloseSession(t *testing.T) {
	service := newTestService(&stubExtractor{}, &stubImages{}, &stubLibrary{})
	id := openSession(t, service, 800, 1000)

	require.NoError(t, service.CloseSession(id))

	_, err := service.GetSession(id)
	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}

/*
TestService_SweepEvictsIdleSessions verifies the idle sweep: sessions past
the TTL are dropped, but a session with an operation in flight survives no
matter how stale its activity timestamp is.
*/
func TestService_SweepEvictsIdleSessions(t *testing.T) {
	service := newTestService(&stubExtractor{}, &stubImages{}, &stubLibrary{})
	idleID := openSession(t, service, 800, 1000)
	busyID := openSession(t, service, 800, 1000)
	freshID := openSession(t, service, 800, 1000)

	busySession := service.sessions[busyID]
	require.NoError(t, busySession.beginAction("save"))
	defer busySession.endAction()

	stale := time.Now().Add(-3 * time.Hour)
	for _, id := range []string{idleID, busyID} {
		session := service.sessions[id]
		session.mu.Lock()
		session.lastActive = stale
		session.mu.Unlock()
	}

	service.sweep()

	_, err := service.GetSession(idleID)
	var appError *apperr.AppError
	require.ErrorAs(t, err, &appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)

	_, err = service.GetSession(busyID)
	assert.NoError(t, err, "busy session is never evicted")

	_, err = service.GetSession(freshID)
	assert.NoError(t, err)
}
