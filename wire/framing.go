// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "encoding/binary"

// MessageType identifies the payload carried by a framed peer message.
type MessageType uint8

// The three message types exchanged between peers. Values are fixed
// by the wire protocol and must not be renumbered.
const (
	MsgTypeTimeBlock   MessageType = 0x01
	MsgTypeValueBlock  MessageType = 0x02
	MsgTypeTransaction MessageType = 0x03
)

// String returns the human-readable name of mt.
func (mt MessageType) String() string {
	switch mt {
	case MsgTypeTimeBlock:
		return "timeblock"
	case MsgTypeValueBlock:
		return "valueblock"
	case MsgTypeTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// lengthPrefixSize is the width of the outer big-endian length field.
const lengthPrefixSize = 4

// EncodeMessage frames payload as [length:u32BE][type:u8][payload],
// where length = 1 + len(payload).
func EncodeMessage(msgType MessageType, payload []byte) []byte {
	length := uint32(1 + len(payload))
	buf := make([]byte, 0, lengthPrefixSize+len(payload)+1)
	buf = binary.BigEndian.AppendUint32(buf, length)
	buf = append(buf, byte(msgType))
	buf = append(buf, payload...)
	return buf
}

// Decoder reassembles a stream of raw bytes from one peer into framed
// messages. It holds no synchronization of its own; callers that share
// a Decoder across goroutines must guard it with their own mutex, as
// the node orchestrator's per-peer reassembly mutex does.
type Decoder struct {
	buf []byte
}

// Feed appends newly-arrived bytes and returns every complete message
// that can now be extracted, each as (type, payload). Feed loops
// internally until the remaining buffered bytes cannot yield another
// full message, matching the authoritative framing description.
func (d *Decoder) Feed(data []byte) []Frame {
	d.buf = append(d.buf, data...)

	var frames []Frame
	for {
		if len(d.buf) < lengthPrefixSize {
			break
		}
		length := binary.BigEndian.Uint32(d.buf[:lengthPrefixSize])
		total := lengthPrefixSize + int(length)
		if len(d.buf) < total {
			break
		}
		if length == 0 {
			// A zero-length frame carries no type byte; drop it
			// defensively rather than looping forever.
			d.buf = d.buf[total:]
			continue
		}
		msgType := MessageType(d.buf[lengthPrefixSize])
		payload := append([]byte(nil), d.buf[lengthPrefixSize+1:total]...)
		frames = append(frames, Frame{Type: msgType, Payload: payload})
		d.buf = d.buf[total:]
	}
	return frames
}

// Frame is one fully-reassembled, type-tagged wire message.
type Frame struct {
	Type    MessageType
	Payload []byte
}
