// Package script turns episode materials into a two-host dialogue script.
//
// The producer prefers a remote chat-completions model when an API key is
// configured and always falls back to a deterministic local composer, so
// script generation never fails outright. The local composer condenses lines
// from the materials rather than inventing content: identical input yields an
// identical script.
package script
