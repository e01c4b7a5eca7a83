package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"mirror-backend/internal/models"
	"mirror-backend/internal/policy"

	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidState is returned for a transition the machine does not allow
	ErrInvalidState = errors.New("action is not allowed in the current state")
	// ErrGenerationInFlight enforces one generation sequence per session
	ErrGenerationInFlight = errors.New("a generation is already in progress")
	// ErrNoStyleChosen is returned when a generation capture arrives before a style pick
	ErrNoStyleChosen = errors.New("no style chosen")
)

// ClientInfo carries the per-request client context the machine needs:
// language, resolved payment region, and the device-local calendar day.
type ClientInfo struct {
	Lang   string
	Region string
	Day    string
}

// ActionResult is the outcome of a session action. Exactly one of Paywall,
// Notice or Message may be set alongside the session snapshot: a paywall
// interrupt, a blocking notice, or an inline recoverable error.
type ActionResult struct {
	Session *models.Session      `json:"session"`
	Paywall *models.PaywallOffer `json:"paywall,omitempty"`
	Notice  string               `json:"notice,omitempty"`
	Message string               `json:"message,omitempty"`
}

type deviceSession struct {
	mu         sync.Mutex
	data       models.Session
	generating bool
	// epoch increments on reset; in-flight results from an older epoch are dropped
	epoch uint64
}

// SessionService owns the per-device styling journey: which state the user is
// in, which transitions are legal, and which gate applies at each transition.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*deviceSession

	devices      DeviceStore
	ledger       *EntitlementLedger
	orchestrator *LookOrchestrator
	gate         *PaywallGate
	speech       *SpeechService
	generator    LookGenerator
	sink         EventSink
	policy       *policy.RemoteConfig
}

// NewSessionService creates a new session service
func NewSessionService(
	devices DeviceStore,
	ledger *EntitlementLedger,
	orchestrator *LookOrchestrator,
	gate *PaywallGate,
	speech *SpeechService,
	generator LookGenerator,
	sink EventSink,
	cfg *policy.RemoteConfig,
) *SessionService {
	return &SessionService{
		sessions:     make(map[string]*deviceSession),
		devices:      devices,
		ledger:       ledger,
		orchestrator: orchestrator,
		gate:         gate,
		speech:       speech,
		generator:    generator,
		sink:         sink,
		policy:       cfg,
	}
}

func freshSession() models.Session {
	return models.Session{
		State:            models.StateIdle,
		Steps:            []models.TutorialStep{},
		RecommendedItems: []models.RecommendedItem{},
	}
}

func (s *SessionService) session(deviceID string) *deviceSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[deviceID]
	if !ok {
		sess = &deviceSession{data: freshSession()}
		s.sessions[deviceID] = sess
		if !s.policy.Features.AudioGuidance {
			s.speech.SetMuted(deviceID, true)
		}
	}
	return sess
}

// snapshot must be called with sess.mu held
func snapshot(sess *deviceSession) *ActionResult {
	data := sess.data
	if data.Steps == nil {
		data.Steps = []models.TutorialStep{}
	}
	if data.RecommendedItems == nil {
		data.RecommendedItems = []models.RecommendedItem{}
	}
	return &ActionResult{Session: &data}
}

func (s *SessionService) premium(ctx context.Context, deviceID string) (bool, error) {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve device: %w", err)
	}
	return device.Premium, nil
}

// applyGate attaches the paywall interrupt (or the billing-disabled notice)
// to the result. The gated action itself is never performed.
func (s *SessionService) applyGate(res *ActionResult, reason models.PaywallReason, info ClientInfo, preview string) {
	if !s.gate.Enabled() {
		res.Notice = s.gate.Notice(info.Lang)
		return
	}
	if preview == "" {
		preview = res.Session.OriginalImage
	}
	res.Paywall = s.gate.Offer(reason, info.Lang, info.Region, preview)
}

// Get returns the current session snapshot
func (s *SessionService) Get(deviceID string) *ActionResult {
	sess := s.session(deviceID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return snapshot(sess)
}

// SelectMode enters CAPTURE_INITIAL for an enabled styling mode
func (s *SessionService) SelectMode(deviceID string, mode models.MirrorMode, info ClientInfo) (*ActionResult, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	sess := s.session(deviceID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.data.State != models.StateIdle {
		return nil, ErrInvalidState
	}
	if !s.policy.ModeEnabled(mode) {
		res := snapshot(sess)
		res.Notice = coachStringsFor(info.Lang).ModeDisabled
		return res, nil
	}

	sess.data.Mode = mode
	sess.data.State = models.StateCaptureInitial
	sess.data.CapturePhase = models.PhaseAwaitingGreeting
	sess.data.Greeting = ""
	return snapshot(sess), nil
}

// ChoosePreference records the chosen style/mood for the session
func (s *SessionService) ChoosePreference(deviceID, mood string) (*ActionResult, error) {
	if strings.TrimSpace(mood) == "" {
		return nil, fmt.Errorf("mood must not be empty")
	}

	sess := s.session(deviceID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.data.State != models.StateCaptureInitial {
		return nil, ErrInvalidState
	}
	sess.data.Preference = mood
	return snapshot(sess), nil
}

// Capture handles a camera frame. What it means depends on where the session
// is: the first CAPTURE_INITIAL shot produces the greeting, later ones
// trigger generation, and a GUIDING shot is a progress check-in.
func (s *SessionService) Capture(ctx context.Context, deviceID string, info ClientInfo, image string) (*ActionResult, error) {
	if image == "" {
		return nil, fmt.Errorf("image must not be empty")
	}

	sess := s.session(deviceID)
	sess.mu.Lock()

	switch sess.data.State {
	case models.StateCaptureInitial:
		if sess.data.CapturePhase == models.PhaseAwaitingGreeting {
			return s.captureForGreeting(ctx, sess, deviceID, info, image)
		}
		return s.captureForGeneration(ctx, sess, deviceID, info, image)
	case models.StateGuiding:
		return s.captureForProgress(ctx, sess, deviceID, info, image)
	default:
		sess.mu.Unlock()
		return nil, ErrInvalidState
	}
}

// captureForGreeting consumes the first capture to produce the personalized
// greeting. No quota applies and the state does not change; any failure is
// logged and swallowed. Called with sess.mu held; releases it.
func (s *SessionService) captureForGreeting(ctx context.Context, sess *deviceSession, deviceID string, info ClientInfo, image string) (*ActionResult, error) {
	// The greeting fires once per session even if it fails
	sess.data.CapturePhase = models.PhaseAwaitingStyleCapture
	mode := sess.data.Mode
	epoch := sess.epoch
	sess.mu.Unlock()

	greeting, err := s.generator.GenerateGreeting(ctx, image, mode, info.Lang)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Str("device_id", deviceID).Msg("Greeting generation failed")
	} else if sess.epoch == epoch {
		sess.data.Greeting = greeting
		s.speech.Speak(deviceID, greeting)
	}
	return snapshot(sess), nil
}

// captureForGeneration runs the gated look-generation trigger.
// Called with sess.mu held; releases it.
func (s *SessionService) captureForGeneration(ctx context.Context, sess *deviceSession, deviceID string, info ClientInfo, image string) (*ActionResult, error) {
	if sess.generating {
		sess.mu.Unlock()
		return nil, ErrGenerationInFlight
	}
	if sess.data.Preference == "" {
		sess.mu.Unlock()
		return nil, ErrNoStyleChosen
	}
	mode := sess.data.Mode
	style := sess.data.Preference
	epoch := sess.epoch
	sess.mu.Unlock()

	premium, err := s.premium(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.ledger.CanGenerateLookToday(ctx, deviceID, info.Day, premium)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.epoch != epoch || sess.data.State != models.StateCaptureInitial {
		// The session was reset while we were checking entitlements
		defer sess.mu.Unlock()
		return snapshot(sess), nil
	}
	if !allowed {
		// Quota exhausted: stay in CAPTURE_INITIAL, interrupt with the gate
		defer sess.mu.Unlock()
		res := snapshot(sess)
		s.applyGate(res, models.ReasonLimit, info, image)
		return res, nil
	}
	if sess.generating {
		sess.mu.Unlock()
		return nil, ErrGenerationInFlight
	}
	sess.generating = true
	sess.data.State = models.StateGeneratingLook
	sess.mu.Unlock()

	result, genErr := s.orchestrator.Generate(ctx, deviceID, info.Day, image, mode, style, info.Lang,
		func(items []models.RecommendedItem) {
			s.applyShoppingItems(deviceID, epoch, items)
		})

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.generating = false

	if sess.epoch != epoch {
		// Session was reset while generating; the result is stale
		return snapshot(sess), nil
	}

	if genErr != nil {
		log.Error().Err(genErr).Str("device_id", deviceID).Str("mode", string(mode)).Msg("Look generation failed")
		sess.data.State = models.StateCaptureInitial
		res := snapshot(sess)
		res.Message = UserMessage(genErr, info.Lang)
		return res, nil
	}

	sess.data.OriginalImage = image
	sess.data.TargetImage = result.TargetImage
	sess.data.Steps = result.Steps
	sess.data.Compliment = result.Compliment
	sess.data.CurrentStepIndex = 0
	sess.data.AIFeedback = ""
	sess.data.State = models.StateGuiding
	return snapshot(sess), nil
}

// captureForProgress runs a coaching check-in against the target look.
// Called with sess.mu held; releases it.
func (s *SessionService) captureForProgress(ctx context.Context, sess *deviceSession, deviceID string, info ClientInfo, image string) (*ActionResult, error) {
	if sess.generating {
		sess.mu.Unlock()
		return nil, ErrGenerationInFlight
	}
	sess.generating = true
	sess.data.State = models.StateCheckingProgress
	sess.data.CurrentProgressImage = image
	target := sess.data.TargetImage
	step := sess.data.Steps[sess.data.CurrentStepIndex]
	mode := sess.data.Mode
	epoch := sess.epoch
	sess.mu.Unlock()

	feedback, err := s.generator.ProgressFeedback(ctx, target, image, step, mode, info.Lang)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.generating = false

	if sess.epoch != epoch {
		return snapshot(sess), nil
	}

	sess.data.State = models.StateGuiding
	if err != nil {
		log.Warn().Err(err).Str("device_id", deviceID).Msg("Progress feedback failed")
		res := snapshot(sess)
		res.Message = UserMessage(err, info.Lang)
		return res, nil
	}

	sess.data.AIFeedback = feedback
	s.speech.Speak(deviceID, fmt.Sprintf("%s. %s", feedback, coachStringsFor(info.Lang).LetMeSee))
	return snapshot(sess), nil
}

// AdvanceStep moves the coaching forward one step, or to the final reveal on
// the last step. Reaching step index 1 is gated for non-premium users when
// the second-step gate is on; the index never moves while gated.
func (s *SessionService) AdvanceStep(ctx context.Context, deviceID string, info ClientInfo) (*ActionResult, error) {
	premium, err := s.premium(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	sess := s.session(deviceID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.data.State != models.StateGuiding {
		return nil, ErrInvalidState
	}

	if sess.data.CurrentStepIndex >= len(sess.data.Steps)-1 {
		sess.data.State = models.StateFinalReveal
		return snapshot(sess), nil
	}

	next := sess.data.CurrentStepIndex + 1
	if !premium && s.policy.Billing.GateCoachSecondStep && next >= 1 {
		res := snapshot(sess)
		s.applyGate(res, models.ReasonCoach, info, "")
		return res, nil
	}

	sess.data.CurrentStepIndex = next
	sess.data.AIFeedback = ""
	step := sess.data.Steps[next]
	s.speech.Speak(deviceID, fmt.Sprintf("%s: %s. %s", step.Title, step.Instruction, coachStringsFor(info.Lang).LetMeSee))
	return snapshot(sess), nil
}

// AskCoach answers a free-form question within the session's free quota.
// The question counter is charged before dispatch, once per accepted question.
func (s *SessionService) AskCoach(ctx context.Context, deviceID string, info ClientInfo, question string) (*ActionResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	premium, err := s.premium(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	sess := s.session(deviceID)
	sess.mu.Lock()

	if sess.data.State != models.StateGuiding {
		sess.mu.Unlock()
		return nil, ErrInvalidState
	}
	if !s.policy.Features.Coach {
		defer sess.mu.Unlock()
		res := snapshot(sess)
		res.Notice = coachStringsFor(info.Lang).Unavailable
		return res, nil
	}
	if !s.ledger.CanAskCoachQuestion(premium, sess.data.CoachQuestionsUsed) {
		defer sess.mu.Unlock()
		res := snapshot(sess)
		s.applyGate(res, models.ReasonCoachQA, info, "")
		return res, nil
	}
	if !premium {
		sess.data.CoachQuestionsUsed++
	}

	target := sess.data.TargetImage
	step := sess.data.Steps[sess.data.CurrentStepIndex]
	mode := sess.data.Mode
	epoch := sess.epoch
	sess.mu.Unlock()

	answer, err := s.generator.AnswerCoachQuestion(ctx, question, target, mode, step, info.Lang)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.epoch != epoch {
		return snapshot(sess), nil
	}
	if err != nil {
		log.Warn().Err(err).Str("device_id", deviceID).Msg("Coach answer failed")
		res := snapshot(sess)
		res.Message = UserMessage(err, info.Lang)
		return res, nil
	}

	sess.data.AIFeedback = answer
	s.speech.Speak(deviceID, answer)
	return snapshot(sess), nil
}

// freeShopItems is how many shopping suggestions a free device may see;
// the rest are the shop upsell.
const freeShopItems = 3

// OpenShop returns the shopping results for the current look. The items were
// already fetched detached; free devices see the first few, and the shop
// paywall is attached only when there is more to unlock.
func (s *SessionService) OpenShop(ctx context.Context, deviceID string, info ClientInfo) (*ActionResult, error) {
	premium, err := s.premium(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	sess := s.session(deviceID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.data.State != models.StateGuiding && sess.data.State != models.StateFinalReveal {
		return nil, ErrInvalidState
	}
	if !s.policy.Features.Shopping {
		res := snapshot(sess)
		res.Notice = coachStringsFor(info.Lang).Unavailable
		return res, nil
	}

	res := snapshot(sess)
	if !premium && len(res.Session.RecommendedItems) > freeShopItems {
		res.Session.RecommendedItems = res.Session.RecommendedItems[:freeShopItems]
		s.applyGate(res, models.ReasonShop, info, "")
	}
	return res, nil
}

// Reset clears the session back to IDLE from any state: fresh fields, zeroed
// session counters, and any in-flight speech killed. An in-flight generation
// keeps running but its result is dropped on arrival.
func (s *SessionService) Reset(deviceID string) *ActionResult {
	sess := s.session(deviceID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.epoch++
	sess.data = freshSession()
	s.speech.Kill(deviceID)
	return snapshot(sess)
}

// OpenVault enters the gallery from a resting state
func (s *SessionService) OpenVault(deviceID string, info ClientInfo) (*ActionResult, error) {
	sess := s.session(deviceID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !s.policy.Features.Vault {
		res := snapshot(sess)
		res.Notice = coachStringsFor(info.Lang).Unavailable
		return res, nil
	}
	if sess.data.State != models.StateIdle && sess.data.State != models.StateFinalReveal {
		return nil, ErrInvalidState
	}
	sess.data.State = models.StateGallery
	return snapshot(sess), nil
}

// CloseVault returns from the gallery to IDLE
func (s *SessionService) CloseVault(deviceID string) (*ActionResult, error) {
	sess := s.session(deviceID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.data.State != models.StateGallery {
		return nil, ErrInvalidState
	}
	sess.data.State = models.StateIdle
	return snapshot(sess), nil
}

// SetAudio toggles audio guidance for the device
func (s *SessionService) SetAudio(deviceID string, enabled bool) {
	s.session(deviceID)
	s.speech.SetMuted(deviceID, !enabled)
}

// applyShoppingItems attaches a completed shopping fetch to the session and
// pushes it to the device. A reset in between makes the result stale.
// The app state is never touched here.
func (s *SessionService) applyShoppingItems(deviceID string, epoch uint64, items []models.RecommendedItem) {
	sess := s.session(deviceID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.epoch != epoch {
		return
	}
	if items == nil {
		items = []models.RecommendedItem{}
	}
	sess.data.RecommendedItems = items

	if err := s.sink.SendToDevice(deviceID, WSMessage{Type: "shopping", Items: items}); err != nil {
		log.Debug().Err(err).Str("device_id", deviceID).Msg("Failed to push shopping items")
	}
}
