package transfer

import "errors"

// ErrStreamClosed is returned by [Session.Run] when the frame channel closes
// before the session reaches a terminal state, which means the BLE link was
// torn down under the transfer. The partial result is still usable.
var ErrStreamClosed = errors.New("frame stream closed during transfer")
