// Package protocol implements the wire format of the BME280 logger's data
// transfer service: encoding of control commands written to the control
// characteristic and decoding of the status reply and the three notification
// packet shapes (HEADER, DATA, END).
//
// All functions are pure byte transforms with no transport or session state.
// The only stateful type is [RecordDecoder], which assigns sequence numbers
// and synthetic timestamps to raw samples in arrival order within a single
// download session.
package protocol
