// Package audio plays finished synthesis runs through the host sound
// device using oto/v3. Playback is one-shot and blocking; the artifact on
// disk stays the unit of output, so callers treat playback failures as
// warnings.
package audio
