// Package audio provides the per-type notification cue.
// Sounds are played with the beep library (WAV, OGG and MP3) with volume
// control, and sound files are watched so edits take effect without a restart.
package audio
