// Package audio provides decoding and playback of synthesized speech using
// the oto/v3 library. A Player owns a single playback session: one decoded
// buffer, a cursor, and a Stopped/Playing/Paused state.
package audio
