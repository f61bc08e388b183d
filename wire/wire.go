// Package wire frames and unframes the multipart byte messages carried on
// the command and event sockets. It has no dependency on ZeroMQ: callers
// hand it and receive back [][]byte multipart frames, leaving the actual
// Send/Recv calls to the socket-owning goroutine.
package wire

import (
	"encoding/binary"
	"errors"
)

// ErrMalformed is returned when a received multipart message does not match
// the expected frame shape for its message kind.
var ErrMalformed = errors.New("wire: malformed frame")

// EncodeCommandRequest builds the frames a command scope sends to a DEALER
// socket: [empty][topic][correlationId][payload]. The empty delimiter frame
// is what lets the peer's ROUTER socket recover a clean address/delimiter/
// body split on receive. Topic and correlation id are each their own
// 8-byte little-endian frame, so a request is 5 frames once ZeroMQ prepends
// the ROUTER-side identity.
func EncodeCommandRequest(topic, correlationID uint64, payload []byte) [][]byte {
	topicFrame := make([]byte, 8)
	binary.LittleEndian.PutUint64(topicFrame, topic)
	corrFrame := make([]byte, 8)
	binary.LittleEndian.PutUint64(corrFrame, correlationID)
	return [][]byte{{}, topicFrame, corrFrame, payload}
}

// DecodeCommandRequest parses the frames a ROUTER socket receives for an
// inbound command: [identity][empty][topic][correlationId][payload]. The
// identity frame is prepended automatically by ZeroMQ on the ROUTER side and
// is never sent explicitly by the DEALER.
func DecodeCommandRequest(frames [][]byte) (identity []byte, topic, correlationID uint64, payload []byte, err error) {
	if len(frames) != 5 {
		return nil, 0, 0, nil, ErrMalformed
	}
	identity = frames[0]
	topicFrame := frames[2]
	corrFrame := frames[3]
	if len(topicFrame) != 8 || len(corrFrame) != 8 {
		return nil, 0, 0, nil, ErrMalformed
	}
	topic = binary.LittleEndian.Uint64(topicFrame)
	correlationID = binary.LittleEndian.Uint64(corrFrame)
	payload = frames[4]
	return identity, topic, correlationID, payload, nil
}

// EncodeCommandResponse builds the frames a command server's ROUTER socket
// sends back to a specific peer: [identity][empty][correlationId][payload].
// The identity frame routes the message; ZeroMQ strips it again before
// delivering to the DEALER on the other end.
func EncodeCommandResponse(identity []byte, correlationID uint64, payload []byte) [][]byte {
	corrFrame := make([]byte, 8)
	binary.LittleEndian.PutUint64(corrFrame, correlationID)
	return [][]byte{identity, {}, corrFrame, payload}
}

// DecodeCommandResponse parses the frames a DEALER socket receives for a
// reply: [empty][correlationId][payload]. There is no identity frame here;
// ZeroMQ already consumed it in routing the message to this socket.
func DecodeCommandResponse(frames [][]byte) (correlationID uint64, payload []byte, err error) {
	if len(frames) != 3 {
		return 0, nil, ErrMalformed
	}
	corrFrame := frames[1]
	if len(corrFrame) != 8 {
		return 0, nil, ErrMalformed
	}
	correlationID = binary.LittleEndian.Uint64(corrFrame)
	payload = frames[2]
	return correlationID, payload, nil
}

// EncodeEvent builds the frames a PUB socket sends: [topic][payload]. The
// topic is sent as its raw string so SUB-side subscription filters (which
// match on frame-prefix bytes) can be set by topic name.
func EncodeEvent(topicName string, payload []byte) [][]byte {
	return [][]byte{[]byte(topicName), payload}
}

// DecodeEvent parses the frames a SUB socket receives: [topic][payload].
func DecodeEvent(frames [][]byte) (topicName string, payload []byte, err error) {
	if len(frames) != 2 {
		return "", nil, ErrMalformed
	}
	return string(frames[0]), frames[1], nil
}
