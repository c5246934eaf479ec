// Package framesource delivers frames to the pipeline from the outside
// world: a capture board on a serial port, a recorded JSONL file, or the
// synthetic generator.
//
// Producers hand frames to a Mailbox, a single-slot handoff that keeps only
// the newest unread frame. The consumer therefore always processes the most
// recent frame and never works through a backlog.
package framesource
