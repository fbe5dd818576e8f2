package mip

import (
	"errors"
	"io"

	"github.com/golang/glog"
)

// Handler consumes one validated packet.
type Handler func(Packet)

// Stream extracts packets from a continuous sensor byte stream. Bytes are
// accumulated in a rolling buffer; each processing pass skips garbage until
// a sync pair, waits for complete frames, verifies checksums and dispatches
// per-descriptor-set handlers. Corrupt frames are dropped without stopping
// the stream.
//
// Stream is not safe for concurrent use; drive it from a single goroutine.
type Stream struct {
	r        io.Reader
	buf      []byte
	n        int
	handlers map[byte]Handler

	// Debug forces dispatch of frames that fail checksum verification.
	Debug bool

	dropped   uint64
	discarded uint64
}

// StreamConfig holds configuration for creating a Stream.
type StreamConfig struct {
	// Reader is the byte source. May be nil when packets are supplied
	// through Feed only.
	Reader io.Reader

	// BufferSize bounds the rolling buffer. Default is 512 bytes; the
	// minimum is one maximum-size packet.
	BufferSize int
}

// NewStream creates a stream parser.
func NewStream(cfg StreamConfig) *Stream {
	size := cfg.BufferSize
	if size < headerLen+MaxPayloadLen+checksumLen {
		size = 512
	}
	return &Stream{
		r:        cfg.Reader,
		buf:      make([]byte, size),
		handlers: make(map[byte]Handler),
	}
}

// Handle registers the handler for one descriptor set, replacing any
// previous registration.
func (s *Stream) Handle(descriptorSet byte, h Handler) {
	s.handlers[descriptorSet] = h
}

// Dropped returns the count of frames discarded for checksum mismatch.
func (s *Stream) Dropped() uint64 {
	return s.dropped
}

// Poll reads whatever bytes are available from the reader and processes
// the buffer. It returns the number of packets dispatched. A read error is
// returned after processing anything already buffered; io.EOF is returned
// as-is once the buffer is exhausted.
func (s *Stream) Poll() (int, error) {
	if s.r == nil {
		return s.process(), nil
	}

	n, err := s.r.Read(s.buf[s.n:])
	s.n += n
	dispatched := s.process()

	if err != nil && !errors.Is(err, io.EOF) {
		return dispatched, err
	}
	if errors.Is(err, io.EOF) && s.n == 0 {
		return dispatched, io.EOF
	}
	return dispatched, nil
}

// Feed appends raw bytes to the buffer and processes it, returning the
// number of packets dispatched. Bytes that overflow the buffer trigger the
// lossy recovery path, dropping the oldest half of the pending data.
func (s *Stream) Feed(data []byte) int {
	dispatched := 0
	for len(data) > 0 {
		if s.n == len(s.buf) {
			s.shiftHalf()
		}
		n := copy(s.buf[s.n:], data)
		s.n += n
		data = data[n:]
		dispatched += s.process()
	}
	return dispatched
}

// process scans the buffer, dispatching every complete valid frame, and
// compacts consumed bytes out of the front.
func (s *Stream) process() int {
	dispatched := 0
	start := 0

	for {
		// Hunt for the sync pair, discarding anything before it.
		syncAt := -1
		for i := start; i+1 < s.n; i++ {
			if s.buf[i] == Sync1 && s.buf[i+1] == Sync2 {
				syncAt = i
				break
			}
		}
		if syncAt < 0 {
			// Keep a trailing lone sync byte; everything else is garbage.
			keepFrom := s.n
			if s.n > start && s.buf[s.n-1] == Sync1 {
				keepFrom = s.n - 1
			}
			s.discard(start, keepFrom)
			start = keepFrom
			break
		}
		s.discard(start, syncAt)
		start = syncAt

		// Wait for the rest of the header, then the full frame.
		if s.n-start < headerLen {
			break
		}
		total := headerLen + int(s.buf[start+3]) + checksumLen
		if s.n-start < total {
			if total > len(s.buf)-start {
				// The frame can never complete where it sits; compact now so
				// the remainder has room to arrive.
				s.compact(start)
				start = 0
			}
			break
		}

		frame := s.buf[start : start+total]
		if VerifyChecksum(frame) || s.Debug {
			if h, ok := s.handlers[frame[2]]; ok {
				pkt := Packet{
					DescriptorSet: frame[2],
					Payload:       append([]byte(nil), frame[headerLen:total-checksumLen]...),
				}
				h(pkt)
				dispatched++
			}
			start += total
		} else {
			s.dropped++
			if glog.V(1) {
				glog.Infof("mip: dropped frame, descriptor set %02X, %d bytes, bad checksum", frame[2], total)
			}
			// A corrupt frame is consumed whole; bytes inside its claimed
			// span are never rescanned as frames of their own.
			start += total
		}
	}

	s.compact(start)
	return dispatched
}

func (s *Stream) discard(from, to int) {
	if to > from {
		s.discarded += uint64(to - from)
		if glog.V(2) {
			glog.Infof("mip: skipped %d bytes before sync", to-from)
		}
	}
}

func (s *Stream) compact(start int) {
	if start == 0 {
		return
	}
	copy(s.buf, s.buf[start:s.n])
	s.n -= start
}

// shiftHalf drops the oldest half of the buffer. Only reached when the
// producer outruns processing; loses data but restores forward progress.
func (s *Stream) shiftHalf() {
	half := s.n / 2
	copy(s.buf, s.buf[half:s.n])
	s.n -= half
	if glog.V(1) {
		glog.Infof("mip: %v, dropped %d oldest bytes", ErrBufferOverflow, half)
	}
}
