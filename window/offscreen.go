// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package window

import (
	"image"
	"log/slog"
)

// FrameTime is the simulated time between offscreen frames.
const FrameTime = 1.0 / 60.0

// Offscreen is a Window with no display, for headless rendering
// and tests. It asks to close after a fixed number of frames,
// and its clock advances by [FrameTime] per presented frame.
type Offscreen struct {
	// MaxFrames is the number of frames after which the window
	// asks to close; 0 means never.
	MaxFrames int

	size      image.Point
	frames    int
	close     bool
	destroyed bool
	resize    func(size image.Point)
	keys      map[Keys]bool
	pending   []func()
}

var _ Window = (*Offscreen)(nil)

// NewOffscreen returns a new offscreen window of given size
// that closes after given number of frames.
func NewOffscreen(size image.Point, frames int) *Offscreen {
	return &Offscreen{MaxFrames: frames, size: size, keys: make(map[Keys]bool)}
}

func (w *Offscreen) Size() image.Point { return w.size }

func (w *Offscreen) ShouldClose() bool {
	return w.close || (w.MaxFrames > 0 && w.frames >= w.MaxFrames)
}

func (w *Offscreen) SetShouldClose(close bool) { w.close = close }

// PollEvents delivers simulated events queued by [Offscreen.Resize].
func (w *Offscreen) PollEvents() {
	evs := w.pending
	w.pending = nil
	for _, ev := range evs {
		ev()
	}
}

// Present counts a rendered frame.
func (w *Offscreen) Present() {
	w.frames++
}

// Frames returns the number of frames presented.
func (w *Offscreen) Frames() int { return w.frames }

func (w *Offscreen) OnResize(fun func(size image.Point)) { w.resize = fun }

func (w *Offscreen) KeyPressed(key Keys) bool { return w.keys[key] }

// Press sets the held state of a key.
func (w *Offscreen) Press(key Keys, down bool) {
	w.keys[key] = down
}

// Resize queues a framebuffer resize, delivered by the next PollEvents.
func (w *Offscreen) Resize(size image.Point) {
	w.pending = append(w.pending, func() {
		w.size = size
		if w.resize != nil {
			w.resize(size)
		}
	})
}

func (w *Offscreen) Time() float64 {
	return float64(w.frames) * FrameTime
}

func (w *Offscreen) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	slog.Debug("window.Offscreen destroyed", "frames", w.frames)
}
