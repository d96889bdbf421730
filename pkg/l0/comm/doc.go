// Package comm provides the serial side of the robot link.
package comm

// Bytes arrive one at a time from the receive side of a UART and are
// assembled into lines by a Framer. Completed lines are queued as
// immutable Frames in a FrameQueue, which the control loop drains once
// per tick. Outgoing lines are pushed into a ByteRing that the transmit
// side drains in the background.
//
// Both directions are single-producer/single-consumer. The receive
// goroutine is the only producer of frames and the control loop the only
// consumer; the control loop is the only producer of transmit bytes and
// the transmit goroutine the only consumer. No locks are taken on either
// path.
//
// Client is the host side counterpart: it sends commands and pairs the
// replies with pending commands in order.
