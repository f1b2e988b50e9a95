// Copyright (C) 2024  wwhai
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, see <https://www.gnu.org/licenses/>.

package modbus

import (
	"errors"
	"fmt"
	"io"
)

// RTUScanner reads successive frames from a serial byte stream. The stream
// has no frame delimiters, so after line noise the scanner resynchronizes
// by discarding one byte at a time until a frame with a valid CRC emerges.
// The internal buffer is fixed at MaxRTUFrameLength; the scanner never
// allocates after construction.
type RTUScanner struct {
	rd     io.Reader
	logger io.Writer
	buf    [MaxRTUFrameLength]byte
	n      int
	// consumed is the length of the frame returned by the previous Read
	// call. Its bytes are still referenced by that frame's views, so they
	// are discarded at the start of the next Read, not earlier.
	consumed int
}

// NewRTUScanner wraps a byte stream, typically an open serial port.
func NewRTUScanner(rd io.Reader) *RTUScanner {
	return &RTUScanner{rd: rd}
}

// SetLogger directs trace output to w. A *SimpleLogger fits; nil disables
// tracing.
func (s *RTUScanner) SetLogger(w io.Writer) {
	s.logger = w
}

func (s *RTUScanner) logf(format string, args ...any) {
	if s.logger != nil {
		fmt.Fprintf(s.logger, format, args...)
	}
}

// ReadRequest reads the next request frame. A server loop calls this.
// The returned request's Coils, Data and Extra views alias the scanner's
// buffer and are overwritten by the next Read call.
func (s *RTUScanner) ReadRequest() (RTURequest, error) {
	var req RTURequest
	err := s.scan(func(b []byte) (FrameLocation, error) {
		r, loc, err := DecodeRTURequest(b)
		if err != nil {
			return FrameLocation{}, err
		}
		req = r
		return loc, nil
	})
	return req, err
}

// ReadResponse reads the next response frame. A client calls this after
// writing a request.
func (s *RTUScanner) ReadResponse() (RTUResponse, error) {
	var resp RTUResponse
	err := s.scan(func(b []byte) (FrameLocation, error) {
		r, loc, err := DecodeRTUResponse(b)
		if err != nil {
			return FrameLocation{}, err
		}
		resp = r
		return loc, nil
	})
	return resp, err
}

func (s *RTUScanner) scan(decode func([]byte) (FrameLocation, error)) error {
	// the previous frame's views die here
	if s.consumed > 0 {
		s.advance(s.consumed)
		s.consumed = 0
	}
	dropped := 0
	for {
		if s.n >= MinRTUFrameLength {
			loc, err := decode(s.buf[:s.n])
			switch {
			case err == nil:
				s.consumed = loc.End
				return nil
			case errors.Is(err, ErrIncompleteFrame) && s.n < len(s.buf):
				// fall through to read more
			default:
				// CRC mismatch, malformed PDU, or a full buffer that still
				// does not frame: the stream is out of step. Drop one byte
				// and try again, up to one full frame's worth of noise.
				var crcErr *CRCError
				if !errors.Is(err, ErrIncompleteFrame) &&
					!errors.Is(err, ErrInvalidData) && !errors.As(err, &crcErr) {
					return err
				}
				if dropped >= MaxRTUFrameLength {
					s.logf("ERROR: giving up resync after dropping %d bytes: %v\n%s",
						dropped, err, DumpRTUFrame(s.buf[:s.n]))
					return err
				}
				s.logf("DEBUG: dropping byte 0x%02X to resync: %v", s.buf[0], err)
				s.advance(1)
				dropped++
				continue
			}
		}
		if err := s.fill(); err != nil {
			return err
		}
	}
}

// advance discards the first n buffered bytes.
func (s *RTUScanner) advance(n int) {
	copy(s.buf[:], s.buf[n:s.n])
	s.n -= n
}

func (s *RTUScanner) fill() error {
	n, err := s.rd.Read(s.buf[s.n:])
	s.n += n
	if err != nil {
		if err == io.EOF && s.n > 0 {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if n == 0 {
		return io.ErrNoProgress
	}
	return nil
}

// TCPScanner reads successive MBAP frames from a TCP connection. TCP
// delivers an ordered stream, so a malformed header means the connection is
// unusable; unlike the RTU scanner there is no byte-wise resync, the caller
// closes the connection instead.
type TCPScanner struct {
	rd       io.Reader
	logger   io.Writer
	buf      [MaxTCPFrameLength]byte
	n        int
	consumed int
}

// NewTCPScanner wraps a byte stream, typically a net.Conn.
func NewTCPScanner(rd io.Reader) *TCPScanner {
	return &TCPScanner{rd: rd}
}

// SetLogger directs trace output to w; nil disables tracing.
func (s *TCPScanner) SetLogger(w io.Writer) {
	s.logger = w
}

// ReadRequest reads the next request frame. The returned request's Coils,
// Data and Extra views alias the scanner's buffer and are overwritten by
// the next Read call.
func (s *TCPScanner) ReadRequest() (TCPRequest, error) {
	var req TCPRequest
	err := s.scan(func(b []byte) (FrameLocation, error) {
		r, loc, err := DecodeTCPRequest(b)
		if err != nil {
			return FrameLocation{}, err
		}
		req = r
		return loc, nil
	})
	return req, err
}

// ReadResponse reads the next response frame.
func (s *TCPScanner) ReadResponse() (TCPResponse, error) {
	var resp TCPResponse
	err := s.scan(func(b []byte) (FrameLocation, error) {
		r, loc, err := DecodeTCPResponse(b)
		if err != nil {
			return FrameLocation{}, err
		}
		resp = r
		return loc, nil
	})
	return resp, err
}

func (s *TCPScanner) scan(decode func([]byte) (FrameLocation, error)) error {
	// the previous frame's views die here
	if s.consumed > 0 {
		copy(s.buf[:], s.buf[s.consumed:s.n])
		s.n -= s.consumed
		s.consumed = 0
	}
	for {
		if s.n >= TCPHeaderLength {
			loc, err := decode(s.buf[:s.n])
			if err == nil {
				s.consumed = loc.End
				return nil
			}
			if !errors.Is(err, ErrIncompleteFrame) {
				if s.logger != nil {
					fmt.Fprintf(s.logger, "ERROR: stream broken: %v\n%s",
						err, DumpTCPFrame(s.buf[:s.n]))
				}
				return err
			}
		}
		n, err := s.rd.Read(s.buf[s.n:])
		s.n += n
		if err != nil {
			if err == io.EOF && s.n > 0 {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if n == 0 {
			return io.ErrNoProgress
		}
	}
}
