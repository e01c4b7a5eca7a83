package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSynth blocks every synthesis until released, so tests can interleave
// cancellation with an in-flight utterance
type gatedSynth struct {
	release chan struct{}
}

func (g *gatedSynth) Synthesize(_ context.Context, _ string) ([]byte, error) {
	<-g.release
	return []byte("audio"), nil
}

func (r *recordingSink) count(msgType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func TestSpeak_PushesAudio(t *testing.T) {
	sink := &recordingSink{}
	synth := &gatedSynth{release: make(chan struct{})}
	svc := NewSpeechService(synth, sink)

	svc.Speak("dev-1", "Hello")
	close(synth.release)

	require.Eventually(t, func() bool {
		return sink.count("speech") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSpeak_KilledUtteranceIsDiscarded(t *testing.T) {
	sink := &recordingSink{}
	synth := &gatedSynth{release: make(chan struct{})}
	svc := NewSpeechService(synth, sink)

	svc.Speak("dev-1", "Old line")
	svc.Kill("dev-1")
	close(synth.release)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, sink.count("speech"), "audio finishing after a kill must not play")
}

func TestSpeak_NewerUtteranceWins(t *testing.T) {
	sink := &recordingSink{}
	synth := &gatedSynth{release: make(chan struct{})}
	svc := NewSpeechService(synth, sink)

	svc.Speak("dev-1", "First")
	svc.Speak("dev-1", "Second")
	close(synth.release)

	// Only the latest utterance survives the token check
	require.Eventually(t, func() bool {
		return sink.count("speech") == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, sink.count("speech"))
}

func TestSpeak_MutedDeviceIsSilent(t *testing.T) {
	sink := &recordingSink{}
	synth := &gatedSynth{release: make(chan struct{})}
	close(synth.release)
	svc := NewSpeechService(synth, sink)

	svc.SetMuted("dev-1", true)
	svc.Speak("dev-1", "Hello")

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, sink.count("speech"))

	// Unmuting restores speech
	svc.SetMuted("dev-1", false)
	svc.Speak("dev-1", "Hello again")
	require.Eventually(t, func() bool {
		return sink.count("speech") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSpeak_EmptyTextIsNoop(t *testing.T) {
	sink := &recordingSink{}
	synth := &gatedSynth{release: make(chan struct{})}
	close(synth.release)
	svc := NewSpeechService(synth, sink)

	svc.Speak("dev-1", "")
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, sink.count("speech"))
}
