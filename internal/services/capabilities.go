package services

import (
	"context"

	"mirror-backend/internal/models"
)

// LookGenerator is the generative capability behind the stylist. Images are
// base64-encoded JPEGs throughout.
type LookGenerator interface {
	GenerateStyledImage(ctx context.Context, photo string, mode models.MirrorMode, style, lang string) (string, error)
	GenerateGreeting(ctx context.Context, photo string, mode models.MirrorMode, lang string) (string, error)
	GenerateTutorial(ctx context.Context, original, styled string, mode models.MirrorMode, lang string) (*models.Tutorial, error)
	GenerateShoppingItems(ctx context.Context, styled string, mode models.MirrorMode, lang string) ([]models.RecommendedItem, error)
	ProgressFeedback(ctx context.Context, styled, progress string, step models.TutorialStep, mode models.MirrorMode, lang string) (string, error)
	AnswerCoachQuestion(ctx context.Context, question, styled string, mode models.MirrorMode, step models.TutorialStep, lang string) (string, error)
}

// SpeechSynthesizer renders coach lines to audio
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// UsageStore persists the per-device daily look counters
type UsageStore interface {
	LooksUsed(ctx context.Context, deviceID, day string) (int, error)
	IncrementLooks(ctx context.Context, deviceID, day string) error
}

// DeviceStore reads device records (premium flag in particular)
type DeviceStore interface {
	GetByID(ctx context.Context, id string) (*models.Device, error)
}

// EventSink pushes asynchronous events to a connected device
type EventSink interface {
	SendToDevice(deviceID string, msg WSMessage) error
}
