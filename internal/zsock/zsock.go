// Package zsock centralizes the small ZeroMQ plumbing shared by every
// socket-owning package: multipart send and probe-range binding. Kept
// internal because it is an implementation seam, not part of the public
// surface.
package zsock

import (
	"fmt"

	zmq "github.com/pebbe/zmq4"
)

// SendFrames writes frames as one multipart ZeroMQ message, setting
// zmq.SNDMORE on every frame but the last.
func SendFrames(sock *zmq.Socket, frames [][]byte) error {
	for i, frame := range frames {
		flag := zmq.SNDMORE
		if i == len(frames)-1 {
			flag = 0
		}
		if _, err := sock.SendBytes(frame, flag); err != nil {
			return err
		}
	}
	return nil
}

// BindInRange binds sock to the first free tcp://*:port in
// [base, base+window), returning the bound port.
func BindInRange(sock *zmq.Socket, base uint16, window int) (uint16, error) {
	if window <= 0 {
		window = 1
	}
	var lastErr error
	for i := 0; i < window; i++ {
		port := base + uint16(i)
		if err := sock.Bind(fmt.Sprintf("tcp://*:%d", port)); err == nil {
			return port, nil
		} else {
			lastErr = err
		}
	}
	return 0, fmt.Errorf("zsock: no free port in [%d, %d): %w", base, int(base)+window, lastErr)
}
