// Package daemon provides the main orchestration for hudtoastd.
// It coordinates the notification store, the lifecycle manager, the host
// message channel, audio cues, host callbacks and configuration hot-reload.
package daemon
