// Copyright (c) 2026 Exvault. All rights reserved.

/*
Package document implements the capture workflow: an uploaded file becomes a
session holding the stitched composite, the AI-proposed exercise drafts, and
the box editor used to crop each exercise out of the composite.

# Session Model

A session is the server-side analogue of one open document in the desktop
client. All of its mutable state (drafts, selection, drawing state) is owned
by the session and guarded by a single mutex; handlers never touch the
fields directly. Sessions are in-memory only: nothing is persisted until
the explicit save operation hands finished exercises to the library.
*/
package document

import (
	"image"
	"sync"
	"time"

	"github.com/exvault/exvault/internal/extract"
	"github.com/exvault/exvault/internal/imaging"
	"github.com/exvault/exvault/internal/platform/apperr"
	"github.com/exvault/exvault/pkg/uuidv7"
)

// Draft is one proposed exercise inside a session: AI- or user-authored
// metadata, plus the box and crop once the user has drawn one.
type Draft struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`

	// Box is set once the user completes a drawing gesture for this draft.
	Box *imaging.Box `json:"box,omitempty"`
	// Crop holds the cropped image; populated together with Box.
	Crop *imaging.Frame `json:"crop,omitempty"`
}

// HasCrop reports whether the draft is ready to be saved.
func (draft *Draft) HasCrop() bool {
	return draft.Box != nil && draft.Crop != nil && len(draft.Crop.PNG) > 0
}

// Session is one in-flight document capture.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu sync.Mutex

	// pages are the encoded page frames, kept for extraction payloads and
	// cache fingerprinting.
	pages []imaging.Frame
	// composite is the stitched bitmap crops are sampled from.
	composite *image.RGBA
	// compositeFrame is the encoded composite served to the client.
	compositeFrame imaging.Frame

	courseName string
	drafts     []*Draft
	selectedID string
	editor     boxEditor

	// busy marks an in-flight extraction or save; re-entrant triggers of
	// either are rejected while it is set.
	busy       bool
	busyAction string

	lastActive time.Time
}

func newSession(pages []imaging.Frame, composite *image.RGBA, compositeFrame imaging.Frame) *Session {
	now := time.Now()
	return &Session{
		ID:             uuidv7.New(),
		CreatedAt:      now,
		pages:          pages,
		composite:      composite,
		compositeFrame: compositeFrame,
		drafts:         make([]*Draft, 0),
		lastActive:     now,
	}
}

// touch refreshes the idle timer. Callers must hold the mutex.
func (session *Session) touch() {
	session.lastActive = time.Now()
}

// draftByID returns the draft with the given id. Callers must hold the mutex.
func (session *Session) draftByID(id string) (*Draft, error) {
	for _, draft := range session.drafts {
		if draft.ID == id {
			return draft, nil
		}
	}
	return nil, apperr.NotFound("Exercise")
}

// beginAction claims the session for a non-re-entrant operation.
func (session *Session) beginAction(action string) error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.busy {
		return apperr.Conflict("Another " + session.busyAction + " operation is in progress")
	}
	session.busy = true
	session.busyAction = action
	session.touch()
	return nil
}

// endAction releases a claim taken with beginAction.
func (session *Session) endAction() {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.busy = false
	session.busyAction = ""
}

// # Views

// DraftView is the client-facing shape of a draft; the crop is reduced to
// its dimensions, with the pixels served by a dedicated endpoint.
type DraftView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Tags     []string `json:"tags"`
	Selected bool     `json:"selected"`

	Box        *imaging.Box `json:"box,omitempty"`
	CropWidth  int          `json:"crop_width,omitempty"`
	CropHeight int          `json:"crop_height,omitempty"`
}

// View is the client-facing snapshot of a session.
type View struct {
	ID              string      `json:"id"`
	CourseName      string      `json:"course_name,omitempty"`
	PageCount       int         `json:"page_count"`
	CompositeWidth  int         `json:"composite_width"`
	CompositeHeight int         `json:"composite_height"`
	Busy            bool        `json:"busy"`
	Exercises       []DraftView `json:"exercises"`
}

// snapshot builds a View. Callers must hold the mutex.
func (session *Session) snapshot() View {
	view := View{
		ID:              session.ID,
		CourseName:      session.courseName,
		PageCount:       len(session.pages),
		CompositeWidth:  session.compositeFrame.Width,
		CompositeHeight: session.compositeFrame.Height,
		Busy:            session.busy,
		Exercises:       make([]DraftView, 0, len(session.drafts)),
	}

	for _, draft := range session.drafts {
		item := DraftView{
			ID:       draft.ID,
			Name:     draft.Name,
			Tags:     draft.Tags,
			Selected: draft.ID == session.selectedID,
			Box:      draft.Box,
		}
		if draft.Crop != nil {
			item.CropWidth = draft.Crop.Width
			item.CropHeight = draft.Crop.Height
		}
		view.Exercises = append(view.Exercises, item)
	}
	return view
}

// applyExtraction replaces the draft list with a fresh proposal. Callers
// must hold the mutex. Existing crops are discarded deliberately: the
// proposal defines a new exercise list and stale geometry must not survive.
func (session *Session) applyExtraction(result extract.Result) {
	session.courseName = result.CourseName
	session.selectedID = ""
	session.editor.reset()

	session.drafts = make([]*Draft, 0, len(result.Exercises))
	for _, proposed := range result.Exercises {
		session.drafts = append(session.drafts, &Draft{
			ID:   uuidv7.New(),
			Name: proposed.Name,
			Tags: proposed.Tags,
		})
	}
}
