package bridge

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrRadioClosed is returned once the radio has no more input.
var ErrRadioClosed = errors.New("bridge: radio closed")

// Radio is the receive side of a half-duplex transceiver.
// RxDone is polled; it must not block.
type Radio interface {
	StartReceive(ctx context.Context) error
	RxDone() (bool, error)
	ReadPayload() ([]byte, error)
	ClearIRQ() error
	Teardown() error
}

// LineRadio is a Radio over a byte stream carrying one payload per line,
// such as a UART-attached transceiver in transparent mode, or stdin.
type LineRadio struct {
	src    io.Reader
	frames chan frame

	mu      sync.Mutex
	pending *frame
	done    bool
	readErr error

	closeOnce sync.Once
}

// frame is one received line, or the reason it was dropped.
type frame struct {
	data []byte
	err  error
}

const maxPayloadSize = 64 * 1024

func NewLineRadio(src io.Reader) *LineRadio {
	r := &LineRadio{src: src, frames: make(chan frame, 1)}
	go r.readLoop()
	return r
}

// readLoop splits src on '\n'. A line over maxPayloadSize is discarded up to
// its newline and delivered as a malformed frame, so reception resyncs on the
// next line.
func (r *LineRadio) readLoop() {
	br := bufio.NewReaderSize(r.src, 4096)
	var (
		line      []byte
		oversized bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if !oversized {
			line = append(line, chunk...)
			if len(line) > maxPayloadSize+2 {
				line, oversized = nil, true
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err == nil || len(line) > 0 || oversized {
			r.emit(line, oversized)
			line, oversized = nil, false
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.mu.Lock()
				r.readErr = err
				r.mu.Unlock()
			}
			break
		}
	}
	close(r.frames)
}

func (r *LineRadio) emit(line []byte, oversized bool) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if oversized || len(line) > maxPayloadSize {
		r.frames <- frame{err: fmt.Errorf("%w: line longer than %d bytes", ErrMalformedPayload, maxPayloadSize)}
		return
	}
	if len(line) == 0 {
		return
	}
	r.frames <- frame{data: line}
}

// StartReceive drops a payload left over from a previous cycle.
func (r *LineRadio) StartReceive(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return ErrRadioClosed
	}
	r.pending = nil
	return nil
}

func (r *LineRadio) RxDone() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		return true, nil
	}
	if r.done {
		return false, ErrRadioClosed
	}
	select {
	case f, ok := <-r.frames:
		if !ok {
			r.done = true
			if r.readErr != nil {
				return false, r.readErr
			}
			return false, ErrRadioClosed
		}
		r.pending = &f
		return true, nil
	default:
		return false, nil
	}
}

// ReadPayload returns ErrMalformedPayload for a line that was dropped as oversized.
func (r *LineRadio) ReadPayload() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return nil, errors.New("bridge: no payload received")
	}
	return r.pending.data, r.pending.err
}

func (r *LineRadio) ClearIRQ() error {
	r.mu.Lock()
	r.pending = nil
	r.mu.Unlock()
	return nil
}

// Teardown closes the underlying stream when it is closable.
func (r *LineRadio) Teardown() error {
	var err error
	r.closeOnce.Do(func() {
		if c, ok := r.src.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
