// Package speech converts episode scripts into audio files.
//
// Scripts are first normalized for narration: host labels, URLs, and markup
// artifacts are stripped so the synthesizer only sees speakable prose. Two
// engines satisfy the Synthesizer contract: a command engine that shells out
// to a local TTS binary such as espeak-ng, and an HTTP engine that posts to a
// standalone TTS service and writes the returned audio.
package speech
