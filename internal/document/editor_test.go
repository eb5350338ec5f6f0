// Copyright (c) 2026 Exvault. All rights reserved.

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exvault/exvault/internal/imaging"
)

/*
TestBoxEditor_Gesture verifies the drawing state machine: down starts, move
updates, up completes with top = min(startY, currentY) and
height = |currentY - startY|.
*/
func TestBoxEditor_Gesture(t *testing.T) {
	type step struct {
		eventType string
		y         int
	}

	tests := []struct {
		name    string
		events  []step
		wantBox imaging.Box
	}{
		{
			name: "downward drag",
			events: []step{
				{EventDown, 100},
				{EventMove, 150},
				{EventUp, 300},
			},
			wantBox: imaging.Box{Y: 100, Height: 200},
		},
		{
			name: "upward drag normalizes top",
			events: []step{
				{EventDown, 400},
				{EventMove, 250},
				{EventUp, 100},
			},
			wantBox: imaging.Box{Y: 100, Height: 300},
		},
		{
			name: "leave completes like up",
			events: []step{
				{EventDown, 50},
				{EventMove, 120},
				{EventLeave, 120},
			},
			wantBox: imaging.Box{Y: 50, Height: 70},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			editor := boxEditor{}

			var box imaging.Box
			var completed bool
			for _, event := range test.events {
				var err error
				box, completed, err = editor.handle(event.eventType, event.y)
				require.NoError(t, err)
			}

			require.True(t, completed)
			assert.Equal(t, test.wantBox, box)
			assert.False(t, editor.drawing, "editor returns to idle")
		})
	}
}

func TestBoxEditor_ClickWithoutDrag(t *testing.T) {
	editor := boxEditor{}

	_, _, err := editor.handle(EventDown, 200)
	require.NoError(t, err)
	box, completed, err := editor.handle(EventUp, 200)

	require.NoError(t, err)
	assert.False(t, completed, "zero-extent gesture draws nothing")
	assert.Zero(t, box)
	assert.False(t, editor.drawing)
}

func TestBoxEditor_MoveWhileIdle(t *testing.T) {
	editor := boxEditor{}

	_, completed, err := editor.handle(EventMove, 500)
	require.NoError(t, err)
	assert.False(t, completed)

	_, completed, err = editor.handle(EventUp, 500)
	require.NoError(t, err)
	assert.False(t, completed)
}

func TestBoxEditor_UnknownEvent(t *testing.T) {
	editor := boxEditor{}

	_, _, err := editor.handle("hover", 10)
	assert.Error(t, err)
}

/*
TestToNative verifies screen-to-native scaling: the scale is derived from
the event's own view height, so a resized window changes the mapping on the
very next event.
*/
func TestToNative(t *testing.T) {
	tests := []struct {
		name         string
		event        PointerEvent
		nativeHeight int
		want         int
	}{
		{
			name:         "view at half native size",
			event:        PointerEvent{Y: 100, ViewHeight: 1100},
			nativeHeight: 2200,
			want:         200,
		},
		{
			name:         "view at native size",
			event:        PointerEvent{Y: 763, ViewHeight: 2200},
			nativeHeight: 2200,
			want:         763,
		},
		{
			name:         "negative coordinate clamps to zero",
			event:        PointerEvent{Y: -10, ViewHeight: 1000},
			nativeHeight: 2000,
			want:         0,
		},
		{
			name:         "beyond bottom clamps to native height",
			event:        PointerEvent{Y: 1500, ViewHeight: 1000},
			nativeHeight: 2000,
			want:         2000,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := toNative(test.event, test.nativeHeight)

			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestToNative_InvalidViewHeight(t *testing.T) {
	_, err := toNative(PointerEvent{Y: 10, ViewHeight: 0}, 1000)
	assert.Error(t, err)
}
