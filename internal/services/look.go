package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mirror-backend/internal/models"
	"mirror-backend/internal/policy"

	"github.com/rs/zerolog/log"
)

const shoppingFetchTimeout = 60 * time.Second

// UserError is an error whose message may be shown to the user verbatim
type UserError struct {
	msg string
}

func (e *UserError) Error() string { return e.msg }

// UserFacing marks the message as safe to show to the user
func (e *UserError) UserFacing() bool { return true }

// ErrTryAnotherAngle is returned when the generator produced no image
var ErrTryAnotherAngle = &UserError{msg: "Please try another angle."}

type userFacing interface {
	error
	UserFacing() bool
}

// UserMessage converts a pipeline error into the text the user sees:
// user-facing messages pass through, everything else becomes the localized
// generic error.
func UserMessage(err error, lang string) string {
	var uf userFacing
	if errors.As(err, &uf) {
		return uf.Error()
	}
	return coachStringsFor(lang).GenericError
}

// GenerationResult is the session update produced by a successful generation
type GenerationResult struct {
	TargetImage string
	Compliment  string
	Steps       []models.TutorialStep
}

// LookOrchestrator sequences the external calls that turn a captured photo
// plus a chosen style into a complete look: styled image, quota mark,
// branding stamp, tutorial, and a detached shopping fetch.
type LookOrchestrator struct {
	generator LookGenerator
	ledger    *EntitlementLedger
	policy    *policy.RemoteConfig
	speech    *SpeechService
	brand     func(image, text string) string
}

// NewLookOrchestrator creates a new look orchestrator
func NewLookOrchestrator(
	generator LookGenerator,
	ledger *EntitlementLedger,
	cfg *policy.RemoteConfig,
	speech *SpeechService,
	brand func(image, text string) string,
) *LookOrchestrator {
	if brand == nil {
		brand = func(image, _ string) string { return image }
	}
	return &LookOrchestrator{
		generator: generator,
		ledger:    ledger,
		policy:    cfg,
		speech:    speech,
		brand:     brand,
	}
}

// Generate runs the full generation sequence. Steps 1-4 are blocking and
// ordered; the shopping fetch is detached and reported through onItems.
// Quota is consumed only after the styled image exists.
func (o *LookOrchestrator) Generate(
	ctx context.Context,
	deviceID, day, photo string,
	mode models.MirrorMode,
	style, lang string,
	onItems func([]models.RecommendedItem),
) (*GenerationResult, error) {
	styled, err := o.generator.GenerateStyledImage(ctx, photo, mode, style, lang)
	if err != nil {
		return nil, err
	}
	if styled == "" {
		return nil, ErrTryAnotherAngle
	}

	// The look exists; it counts against today's quota even if a later
	// step fails. A counter write failure must not lose the generated look.
	if err := o.ledger.MarkLookUsed(ctx, deviceID, day); err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("Failed to record look usage")
	}

	branded := o.brand(styled, o.policy.Branding.WatermarkText)

	tutorial, err := o.generator.GenerateTutorial(ctx, photo, branded, mode, lang)
	if err != nil {
		return nil, fmt.Errorf("tutorial generation failed: %w", err)
	}

	if o.policy.Features.Shopping && onItems != nil {
		go o.fetchShoppingItems(deviceID, branded, mode, lang, onItems)
	}

	first := tutorial.Steps[0]
	line := fmt.Sprintf("%s. %s: %s. %s", tutorial.Compliment, first.Title, first.Instruction, coachStringsFor(lang).LetMeSee)
	o.speech.Speak(deviceID, line)

	return &GenerationResult{
		TargetImage: branded,
		Compliment:  tutorial.Compliment,
		Steps:       tutorial.Steps,
	}, nil
}

// fetchShoppingItems runs detached from the generation sequence; failure is
// logged and the session keeps an empty recommendation list.
func (o *LookOrchestrator) fetchShoppingItems(deviceID, branded string, mode models.MirrorMode, lang string, onItems func([]models.RecommendedItem)) {
	ctx, cancel := context.WithTimeout(context.Background(), shoppingFetchTimeout)
	defer cancel()

	items, err := o.generator.GenerateShoppingItems(ctx, branded, mode, lang)
	if err != nil {
		log.Warn().Err(err).Str("device_id", deviceID).Msg("Shopping fetch failed")
		return
	}
	onItems(items)
}
