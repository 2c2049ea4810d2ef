// Package transcribe converts interrogation audio into text.
//
// Two implementations exist: Client forwards the audio to an external
// speech-to-text service over HTTP, and Simulator produces a canned
// transcript for deployments without one. The implementation is chosen
// at startup from configuration.
package transcribe
