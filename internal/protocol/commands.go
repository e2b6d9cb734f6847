package protocol

import "encoding/binary"

// Control opcodes written to the control characteristic.
const (
	CmdStartTransfer byte = 0x01
	CmdStopTransfer  byte = 0x02
	CmdGetStatus     byte = 0x03
	CmdSetLastSent   byte = 0x04
)

// EncodeStartTransfer encodes the START command carrying the big-endian
// index of the first record the device should send.
func EncodeStartTransfer(startIndex uint16) []byte {
	cmd := make([]byte, 3)
	cmd[0] = CmdStartTransfer
	binary.BigEndian.PutUint16(cmd[1:], startIndex)
	return cmd
}

// EncodeStopTransfer encodes the STOP command aborting an in-flight transfer.
func EncodeStopTransfer() []byte {
	return []byte{CmdStopTransfer}
}

// EncodeGetStatus encodes the GET_STATUS command.
func EncodeGetStatus() []byte {
	return []byte{CmdGetStatus}
}

// EncodeSetLastSent encodes the SET_LAST_SENT command updating the device's
// last-sent counter to the given big-endian value.
func EncodeSetLastSent(lastSent uint16) []byte {
	cmd := make([]byte, 3)
	cmd[0] = CmdSetLastSent
	binary.BigEndian.PutUint16(cmd[1:], lastSent)
	return cmd
}
