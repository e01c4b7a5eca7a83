package services

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/rs/zerolog/log"
)

// SpeechService owns the per-device speech session. Every new utterance bumps
// a monotonic generation token; a synthesis result that comes back after the
// token moved on (newer speech, mute, reset) is discarded instead of played.
type SpeechService struct {
	synth SpeechSynthesizer
	sink  EventSink

	mu    sync.Mutex
	state map[string]*speechState
}

type speechState struct {
	token uint64
	muted bool
}

// NewSpeechService creates a new speech service
func NewSpeechService(synth SpeechSynthesizer, sink EventSink) *SpeechService {
	return &SpeechService{
		synth: synth,
		sink:  sink,
		state: make(map[string]*speechState),
	}
}

func (s *SpeechService) deviceState(deviceID string) *speechState {
	st, ok := s.state[deviceID]
	if !ok {
		st = &speechState{}
		s.state[deviceID] = st
	}
	return st
}

// Speak synthesizes a coach line and pushes the audio to the device.
// Best effort: failures are logged and swallowed, never surfaced.
func (s *SpeechService) Speak(deviceID, text string) {
	if text == "" || s.synth == nil {
		return
	}

	s.mu.Lock()
	st := s.deviceState(deviceID)
	if st.muted {
		s.mu.Unlock()
		return
	}
	st.token++
	id := st.token
	s.mu.Unlock()

	go func() {
		audio, err := s.synth.Synthesize(context.Background(), text)
		if err != nil {
			log.Debug().Err(err).Str("device_id", deviceID).Msg("Speech synthesis failed")
			return
		}

		s.mu.Lock()
		stale := s.deviceState(deviceID).token != id || s.deviceState(deviceID).muted
		s.mu.Unlock()
		if stale {
			return
		}

		msg := WSMessage{Type: "speech", Audio: base64.StdEncoding.EncodeToString(audio)}
		if err := s.sink.SendToDevice(deviceID, msg); err != nil {
			log.Debug().Err(err).Str("device_id", deviceID).Msg("Failed to push speech audio")
		}
	}()
}

// Kill invalidates any in-flight utterance for the device
func (s *SpeechService) Kill(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceState(deviceID).token++
}

// SetMuted toggles audio guidance; muting also kills in-flight speech
func (s *SpeechService) SetMuted(deviceID string, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.deviceState(deviceID)
	st.muted = muted
	if muted {
		st.token++
	}
}
