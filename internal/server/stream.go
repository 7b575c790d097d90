package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// FrameBuffer holds the most recent JPEG published by the frame loop.
type FrameBuffer struct {
	mu    sync.RWMutex
	jpeg  []byte
	seq   uint64
	ready chan struct{}
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{ready: make(chan struct{})}
}

// Set replaces the current frame. The buffer keeps jpeg; callers must not modify it.
func (b *FrameBuffer) Set(jpeg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.jpeg = jpeg
	b.seq++
	close(b.ready)
	b.ready = make(chan struct{})
}

// Latest returns the current frame and its sequence number. seq is 0 before the
// first Set.
func (b *FrameBuffer) Latest() (jpeg []byte, seq uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.jpeg, b.seq
}

// next returns a channel closed on the next Set.
func (b *FrameBuffer) next() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ready
}

// StreamHandler serves the frame buffer as MJPEG.
type StreamHandler struct {
	frames    *FrameBuffer
	keepAlive time.Duration
}

// NewStreamHandler creates a new StreamHandler over frames.
func NewStreamHandler(frames *FrameBuffer) *StreamHandler {
	return &StreamHandler{frames: frames, keepAlive: 5 * time.Second}
}

// ServeHTTP streams each new frame to the client until it disconnects. The current
// frame is repeated every keepAlive so idle streams stay open.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var sent uint64
	for {
		next := h.frames.next()
		if jpeg, seq := h.frames.Latest(); seq != 0 && seq != sent {
			if err := writePart(w, jpeg); err != nil {
				return
			}
			sent = seq
		}

		select {
		case <-r.Context().Done():
			return
		case <-next:
		case <-time.After(h.keepAlive):
			sent = 0
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\r\n"); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
