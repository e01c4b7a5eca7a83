package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mirror-backend/internal/models"
	"mirror-backend/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	styledImage string
	styledErr   error
	greeting    string
	greetingErr error
	tutorial    *models.Tutorial
	tutorialErr error
	items       []models.RecommendedItem
	itemsErr    error
	feedback    string
	feedbackErr error
	answer      string
	answerErr   error
}

func (m *mockGenerator) GenerateStyledImage(_ context.Context, _ string, _ models.MirrorMode, _, _ string) (string, error) {
	return m.styledImage, m.styledErr
}

func (m *mockGenerator) GenerateGreeting(_ context.Context, _ string, _ models.MirrorMode, _ string) (string, error) {
	return m.greeting, m.greetingErr
}

func (m *mockGenerator) GenerateTutorial(_ context.Context, _, _ string, _ models.MirrorMode, _ string) (*models.Tutorial, error) {
	return m.tutorial, m.tutorialErr
}

func (m *mockGenerator) GenerateShoppingItems(_ context.Context, _ string, _ models.MirrorMode, _ string) ([]models.RecommendedItem, error) {
	return m.items, m.itemsErr
}

func (m *mockGenerator) ProgressFeedback(_ context.Context, _, _ string, _ models.TutorialStep, _ models.MirrorMode, _ string) (string, error) {
	return m.feedback, m.feedbackErr
}

func (m *mockGenerator) AnswerCoachQuestion(_ context.Context, _, _ string, _ models.MirrorMode, _ models.TutorialStep, _ string) (string, error) {
	return m.answer, m.answerErr
}

type fakeDeviceStore struct {
	premium map[string]bool
}

func (f *fakeDeviceStore) GetByID(_ context.Context, id string) (*models.Device, error) {
	return &models.Device{ID: id, Premium: f.premium[id]}, nil
}

type recordingSink struct {
	mu       sync.Mutex
	messages []WSMessage
}

func (r *recordingSink) SendToDevice(_ string, msg WSMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

// recordingSynth captures what the coach says out loud
type recordingSynth struct {
	spoken chan string
}

func (r *recordingSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	r.spoken <- text
	return []byte("audio"), nil
}

type sessionFixture struct {
	svc     *SessionService
	gen     *mockGenerator
	usage   *fakeUsageStore
	devices *fakeDeviceStore
	sink    *recordingSink
	spoken  chan string
}

func defaultTutorial() *models.Tutorial {
	return &models.Tutorial{
		Compliment: "You look amazing",
		Steps: []models.TutorialStep{
			{Title: "Prep", Instruction: "Cleanse and moisturize"},
			{Title: "Base", Instruction: "Apply foundation evenly"},
			{Title: "Finish", Instruction: "Set with powder"},
		},
	}
}

func newSessionFixture(t *testing.T, cfg *policy.RemoteConfig) *sessionFixture {
	t.Helper()
	if cfg == nil {
		cfg = policy.Defaults()
		// Most tests want the detached shopping fetch quiet
		cfg.Features.Shopping = false
	}

	gen := &mockGenerator{
		styledImage: "styled-b64",
		greeting:    "Hello gorgeous",
		tutorial:    defaultTutorial(),
		feedback:    "Blend a little more on the left",
		answer:      "Use a damp sponge",
	}
	usage := newFakeUsageStore()
	devices := &fakeDeviceStore{premium: make(map[string]bool)}
	sink := &recordingSink{}
	spoken := make(chan string, 16)
	speech := NewSpeechService(&recordingSynth{spoken: spoken}, sink)
	ledger := NewEntitlementLedger(usage, cfg)
	gate := NewPaywallGate(cfg)
	orch := NewLookOrchestrator(gen, ledger, cfg, speech, nil)
	svc := NewSessionService(devices, ledger, orch, gate, speech, gen, sink, cfg)

	return &sessionFixture{svc: svc, gen: gen, usage: usage, devices: devices, sink: sink, spoken: spoken}
}

func enInfo() ClientInfo {
	return ClientInfo{Lang: "en", Region: "OTHER", Day: "2025-03-09"}
}

func waitSpoken(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("expected a spoken line")
		return ""
	}
}

// driveToGuiding walks a device through mode selection, greeting and a
// successful generation
func driveToGuiding(t *testing.T, f *sessionFixture, deviceID string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.SelectMode(deviceID, models.ModeMakeup, enInfo())
	require.NoError(t, err)
	_, err = f.svc.ChoosePreference(deviceID, "natural glam")
	require.NoError(t, err)
	_, err = f.svc.Capture(ctx, deviceID, enInfo(), "selfie-1")
	require.NoError(t, err)

	res, err := f.svc.Capture(ctx, deviceID, enInfo(), "selfie-2")
	require.NoError(t, err)
	require.Equal(t, models.StateGuiding, res.Session.State)
}

func TestSelectMode(t *testing.T) {
	f := newSessionFixture(t, nil)

	res, err := f.svc.SelectMode("dev-1", models.ModeMakeup, enInfo())
	require.NoError(t, err)
	assert.Equal(t, models.StateCaptureInitial, res.Session.State)
	assert.Equal(t, models.ModeMakeup, res.Session.Mode)
	assert.Equal(t, models.PhaseAwaitingGreeting, res.Session.CapturePhase)

	// Selecting again mid-session is not a legal transition
	_, err = f.svc.SelectMode("dev-1", models.ModeHair, enInfo())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSelectMode_Disabled(t *testing.T) {
	cfg := policy.Defaults()
	cfg.Features.Shopping = false
	cfg.EnabledModes.Hair = false
	f := newSessionFixture(t, cfg)

	res, err := f.svc.SelectMode("dev-1", models.ModeHair, enInfo())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Notice)
	assert.Equal(t, models.StateIdle, res.Session.State, "disabled mode must not transition")
}

func TestCapture_Greeting(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SelectMode("dev-1", models.ModeMakeup, enInfo())
	require.NoError(t, err)

	res, err := f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateCaptureInitial, res.Session.State)
	assert.Equal(t, models.PhaseAwaitingStyleCapture, res.Session.CapturePhase)
	assert.Equal(t, "Hello gorgeous", res.Session.Greeting)
	assert.Equal(t, "Hello gorgeous", waitSpoken(t, f.spoken))

	// The greeting never consumes quota
	used, err := f.usage.LooksUsed(ctx, "dev-1", "2025-03-09")
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestCapture_GreetingFailureStillAdvancesPhase(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.gen.greetingErr = errors.New("model unavailable")

	_, err := f.svc.SelectMode("dev-1", models.ModeMakeup, enInfo())
	require.NoError(t, err)

	res, err := f.svc.Capture(context.Background(), "dev-1", enInfo(), "selfie-1")
	require.NoError(t, err)
	assert.Empty(t, res.Session.Greeting)
	assert.Equal(t, models.PhaseAwaitingStyleCapture, res.Session.CapturePhase)
}

func TestCapture_GenerationSuccess(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SelectMode("dev-1", models.ModeMakeup, enInfo())
	require.NoError(t, err)
	_, err = f.svc.ChoosePreference("dev-1", "natural glam")
	require.NoError(t, err)
	_, err = f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-1")
	require.NoError(t, err)
	waitSpoken(t, f.spoken) // greeting

	res, err := f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-2")
	require.NoError(t, err)
	assert.Equal(t, models.StateGuiding, res.Session.State)
	assert.Equal(t, 0, res.Session.CurrentStepIndex)
	assert.Equal(t, "styled-b64", res.Session.TargetImage)
	assert.Equal(t, "selfie-2", res.Session.OriginalImage)
	assert.Equal(t, "You look amazing", res.Session.Compliment)
	assert.Len(t, res.Session.Steps, 3)

	// The opening line splices compliment, first step and the check-in prompt
	line := waitSpoken(t, f.spoken)
	assert.Contains(t, line, "You look amazing")
	assert.Contains(t, line, "Prep: Cleanse and moisturize")
	assert.Contains(t, line, "Let me see")

	used, err := f.usage.LooksUsed(ctx, "dev-1", "2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestCapture_GenerationWithoutStyle(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SelectMode("dev-1", models.ModeMakeup, enInfo())
	require.NoError(t, err)
	_, err = f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-1")
	require.NoError(t, err)

	_, err = f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-2")
	assert.ErrorIs(t, err, ErrNoStyleChosen)
}

func TestCapture_QuotaExhaustedOpensPaywall(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	f.usage.used["dev-1/2025-03-09"] = 3

	_, err := f.svc.SelectMode("dev-1", models.ModeMakeup, enInfo())
	require.NoError(t, err)
	_, err = f.svc.ChoosePreference("dev-1", "natural glam")
	require.NoError(t, err)
	_, err = f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-1")
	require.NoError(t, err)

	res, err := f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-2")
	require.NoError(t, err)
	require.NotNil(t, res.Paywall)
	assert.Equal(t, models.ReasonLimit, res.Paywall.Reason)
	assert.Equal(t, "selfie-2", res.Paywall.PreviewImage)
	assert.Equal(t, models.StateCaptureInitial, res.Session.State, "gated capture must not generate")
	assert.Equal(t, 3, f.usage.used["dev-1/2025-03-09"], "gated capture must not consume quota")
}

func TestCapture_QuotaExhaustedBillingDisabled(t *testing.T) {
	cfg := policy.Defaults()
	cfg.Features.Shopping = false
	cfg.Billing.Enabled = false
	f := newSessionFixture(t, cfg)
	ctx := context.Background()
	f.usage.used["dev-1/2025-03-09"] = 3

	_, err := f.svc.SelectMode("dev-1", models.ModeMakeup, enInfo())
	require.NoError(t, err)
	_, err = f.svc.ChoosePreference("dev-1", "natural glam")
	require.NoError(t, err)
	_, err = f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-1")
	require.NoError(t, err)

	res, err := f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-2")
	require.NoError(t, err)
	assert.Nil(t, res.Paywall)
	assert.NotEmpty(t, res.Notice)
}

func TestCapture_GenerationFailureReturnsToCapture(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	f.gen.styledErr = errors.New("backend exploded")

	_, err := f.svc.SelectMode("dev-1", models.ModeMakeup, enInfo())
	require.NoError(t, err)
	_, err = f.svc.ChoosePreference("dev-1", "natural glam")
	require.NoError(t, err)
	_, err = f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-1")
	require.NoError(t, err)

	res, err := f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-2")
	require.NoError(t, err)
	assert.Equal(t, models.StateCaptureInitial, res.Session.State)
	assert.Equal(t, "Oops! Something went wrong.", res.Message)
	assert.Zero(t, f.usage.used["dev-1/2025-03-09"], "failed generation must not consume quota")
}

func TestCapture_EmptyStyledImage(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	f.gen.styledImage = ""

	_, err := f.svc.SelectMode("dev-1", models.ModeMakeup, enInfo())
	require.NoError(t, err)
	_, err = f.svc.ChoosePreference("dev-1", "natural glam")
	require.NoError(t, err)
	_, err = f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-1")
	require.NoError(t, err)

	res, err := f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-2")
	require.NoError(t, err)
	assert.Equal(t, models.StateCaptureInitial, res.Session.State)
	assert.Equal(t, "Please try another angle.", res.Message)
	assert.Zero(t, f.usage.used["dev-1/2025-03-09"])
}

func TestCapture_ProgressCheckIn(t *testing.T) {
	f := newSessionFixture(t, nil)
	driveToGuiding(t, f, "dev-1")

	res, err := f.svc.Capture(context.Background(), "dev-1", enInfo(), "progress-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateGuiding, res.Session.State)
	assert.Equal(t, "Blend a little more on the left", res.Session.AIFeedback)
	assert.Equal(t, "progress-1", res.Session.CurrentProgressImage)
	assert.Equal(t, 0, res.Session.CurrentStepIndex, "a check-in never advances the step")
}

func TestCapture_ProgressFailureKeepsGuiding(t *testing.T) {
	f := newSessionFixture(t, nil)
	driveToGuiding(t, f, "dev-1")
	f.gen.feedbackErr = errors.New("timeout")

	res, err := f.svc.Capture(context.Background(), "dev-1", enInfo(), "progress-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateGuiding, res.Session.State)
	assert.NotEmpty(t, res.Message)
	assert.Empty(t, res.Session.AIFeedback)
}

func TestAdvanceStep_SecondStepGatedForFree(t *testing.T) {
	f := newSessionFixture(t, nil)
	driveToGuiding(t, f, "dev-1")

	res, err := f.svc.AdvanceStep(context.Background(), "dev-1", enInfo())
	require.NoError(t, err)
	require.NotNil(t, res.Paywall)
	assert.Equal(t, models.ReasonCoach, res.Paywall.Reason)
	assert.Equal(t, 0, res.Session.CurrentStepIndex, "gated advance must not move the index")

	// Still gated on a retry
	res, err = f.svc.AdvanceStep(context.Background(), "dev-1", enInfo())
	require.NoError(t, err)
	require.NotNil(t, res.Paywall)
	assert.Equal(t, 0, res.Session.CurrentStepIndex)
}

func TestAdvanceStep_PremiumWalksAllSteps(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.devices.premium["dev-1"] = true
	driveToGuiding(t, f, "dev-1")
	ctx := context.Background()

	res, err := f.svc.AdvanceStep(ctx, "dev-1", enInfo())
	require.NoError(t, err)
	assert.Nil(t, res.Paywall)
	assert.Equal(t, 1, res.Session.CurrentStepIndex)
	assert.Empty(t, res.Session.AIFeedback, "advancing clears stale feedback")

	res, err = f.svc.AdvanceStep(ctx, "dev-1", enInfo())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Session.CurrentStepIndex)

	// Advancing past the last step reveals the final look
	res, err = f.svc.AdvanceStep(ctx, "dev-1", enInfo())
	require.NoError(t, err)
	assert.Equal(t, models.StateFinalReveal, res.Session.State)
	assert.Equal(t, 2, res.Session.CurrentStepIndex, "index never exceeds the last step")
}

func TestAdvanceStep_GateDisabledInPolicy(t *testing.T) {
	cfg := policy.Defaults()
	cfg.Features.Shopping = false
	cfg.Billing.GateCoachSecondStep = false
	f := newSessionFixture(t, cfg)
	driveToGuiding(t, f, "dev-1")

	res, err := f.svc.AdvanceStep(context.Background(), "dev-1", enInfo())
	require.NoError(t, err)
	assert.Nil(t, res.Paywall)
	assert.Equal(t, 1, res.Session.CurrentStepIndex)
}

func TestAskCoach_FreeQuestionThenGate(t *testing.T) {
	f := newSessionFixture(t, nil)
	driveToGuiding(t, f, "dev-1")
	ctx := context.Background()

	res, err := f.svc.AskCoach(ctx, "dev-1", enInfo(), "Which brush should I use?")
	require.NoError(t, err)
	assert.Nil(t, res.Paywall)
	assert.Equal(t, "Use a damp sponge", res.Session.AIFeedback)
	assert.Equal(t, 1, res.Session.CoachQuestionsUsed)

	res, err = f.svc.AskCoach(ctx, "dev-1", enInfo(), "And then?")
	require.NoError(t, err)
	require.NotNil(t, res.Paywall)
	assert.Equal(t, models.ReasonCoachQA, res.Paywall.Reason)
	assert.Equal(t, 1, res.Session.CoachQuestionsUsed, "a gated question is not charged")
}

func TestAskCoach_PremiumUnlimited(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.devices.premium["dev-1"] = true
	driveToGuiding(t, f, "dev-1")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := f.svc.AskCoach(ctx, "dev-1", enInfo(), "Question?")
		require.NoError(t, err)
		assert.Nil(t, res.Paywall)
	}
}

func TestAskCoach_ChargedBeforeDispatch(t *testing.T) {
	f := newSessionFixture(t, nil)
	driveToGuiding(t, f, "dev-1")
	f.gen.answerErr = errors.New("model unavailable")

	res, err := f.svc.AskCoach(context.Background(), "dev-1", enInfo(), "Which brush?")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, 1, res.Session.CoachQuestionsUsed, "the question is charged even when the answer fails")
}

func TestAskCoach_FeatureDisabled(t *testing.T) {
	cfg := policy.Defaults()
	cfg.Features.Shopping = false
	cfg.Features.Coach = false
	f := newSessionFixture(t, cfg)
	driveToGuiding(t, f, "dev-1")

	res, err := f.svc.AskCoach(context.Background(), "dev-1", enInfo(), "Hello?")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Notice)
	assert.Zero(t, res.Session.CoachQuestionsUsed)
}

func TestReset(t *testing.T) {
	f := newSessionFixture(t, nil)
	driveToGuiding(t, f, "dev-1")

	_, err := f.svc.AskCoach(context.Background(), "dev-1", enInfo(), "Question?")
	require.NoError(t, err)

	res := f.svc.Reset("dev-1")
	assert.Equal(t, models.StateIdle, res.Session.State)
	assert.Empty(t, res.Session.TargetImage)
	assert.Empty(t, res.Session.OriginalImage)
	assert.Empty(t, res.Session.Greeting)
	assert.Empty(t, res.Session.Steps)
	assert.Zero(t, res.Session.CurrentStepIndex)
	assert.Zero(t, res.Session.CoachQuestionsUsed, "coach quota is per session")
}

func TestReset_DuringQuotaCheckWins(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SelectMode("dev-1", models.ModeMakeup, enInfo())
	require.NoError(t, err)
	_, err = f.svc.ChoosePreference("dev-1", "natural glam")
	require.NoError(t, err)
	_, err = f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-1")
	require.NoError(t, err)

	// Reset lands while the generation capture is reading the quota
	f.usage.onLooksUsed = func() {
		f.usage.onLooksUsed = nil
		f.svc.Reset("dev-1")
	}

	res, err := f.svc.Capture(ctx, "dev-1", enInfo(), "selfie-2")
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, res.Session.State, "a reset session must stay reset")
	assert.Empty(t, res.Session.TargetImage)
	assert.Zero(t, f.usage.used["dev-1/2025-03-09"], "no generation may run after the reset")

	got := f.svc.Get("dev-1")
	assert.Equal(t, models.StateIdle, got.Session.State)
}

func TestReset_DropsStaleShoppingItems(t *testing.T) {
	f := newSessionFixture(t, nil)
	driveToGuiding(t, f, "dev-1")

	sess := f.svc.session("dev-1")
	sess.mu.Lock()
	oldEpoch := sess.epoch
	sess.mu.Unlock()

	f.svc.Reset("dev-1")
	f.svc.applyShoppingItems("dev-1", oldEpoch, []models.RecommendedItem{{Name: "Red Lipstick"}})

	res := f.svc.Get("dev-1")
	assert.Empty(t, res.Session.RecommendedItems, "items from before the reset are stale")
}

func TestShoppingItemsArriveDetached(t *testing.T) {
	cfg := policy.Defaults() // shopping enabled
	f := newSessionFixture(t, cfg)
	f.gen.items = []models.RecommendedItem{
		{Name: "Red Lipstick", Brand: "GlowCo"},
	}

	driveToGuiding(t, f, "dev-1")

	require.Eventually(t, func() bool {
		return len(f.svc.Get("dev-1").Session.RecommendedItems) == 1
	}, 2*time.Second, 10*time.Millisecond)

	res := f.svc.Get("dev-1")
	assert.Equal(t, models.StateGuiding, res.Session.State, "shopping arrival never changes app state")
	assert.Equal(t, "Red Lipstick", res.Session.RecommendedItems[0].Name)
}

func TestShoppingFailureLeavesSessionUntouched(t *testing.T) {
	cfg := policy.Defaults()
	f := newSessionFixture(t, cfg)
	f.gen.itemsErr = errors.New("shopping backend down")

	driveToGuiding(t, f, "dev-1")

	// Give the detached fetch time to fail
	time.Sleep(50 * time.Millisecond)
	res := f.svc.Get("dev-1")
	assert.Equal(t, models.StateGuiding, res.Session.State)
	assert.Empty(t, res.Session.RecommendedItems)
}

func manyShopItems(n int) []models.RecommendedItem {
	items := make([]models.RecommendedItem, n)
	for i := range items {
		items[i] = models.RecommendedItem{Name: fmt.Sprintf("Item %d", i+1)}
	}
	return items
}

func TestOpenShop_FreeSeesFirstThreeAndUpsell(t *testing.T) {
	cfg := policy.Defaults()
	f := newSessionFixture(t, cfg)
	f.gen.items = manyShopItems(5)
	driveToGuiding(t, f, "dev-1")

	require.Eventually(t, func() bool {
		return len(f.svc.Get("dev-1").Session.RecommendedItems) == 5
	}, 2*time.Second, 10*time.Millisecond)

	res, err := f.svc.OpenShop(context.Background(), "dev-1", enInfo())
	require.NoError(t, err)
	require.NotNil(t, res.Paywall)
	assert.Equal(t, models.ReasonShop, res.Paywall.Reason)
	require.Len(t, res.Session.RecommendedItems, 3, "free devices see the first three items")
	assert.Equal(t, "Item 1", res.Session.RecommendedItems[0].Name)
	assert.Equal(t, "Item 3", res.Session.RecommendedItems[2].Name)

	// The full list stays on the session for an upgrade mid-look
	assert.Len(t, f.svc.Get("dev-1").Session.RecommendedItems, 5)
}

func TestOpenShop_FreeWithFewItemsNotGated(t *testing.T) {
	cfg := policy.Defaults()
	f := newSessionFixture(t, cfg)
	f.gen.items = manyShopItems(2)
	driveToGuiding(t, f, "dev-1")

	require.Eventually(t, func() bool {
		return len(f.svc.Get("dev-1").Session.RecommendedItems) == 2
	}, 2*time.Second, 10*time.Millisecond)

	res, err := f.svc.OpenShop(context.Background(), "dev-1", enInfo())
	require.NoError(t, err)
	assert.Nil(t, res.Paywall, "nothing to unlock, nothing to sell")
	assert.Len(t, res.Session.RecommendedItems, 2)
}

func TestOpenShop_Premium(t *testing.T) {
	cfg := policy.Defaults()
	f := newSessionFixture(t, cfg)
	f.devices.premium["dev-1"] = true
	f.gen.items = manyShopItems(5)
	driveToGuiding(t, f, "dev-1")

	require.Eventually(t, func() bool {
		return len(f.svc.Get("dev-1").Session.RecommendedItems) == 5
	}, 2*time.Second, 10*time.Millisecond)

	res, err := f.svc.OpenShop(context.Background(), "dev-1", enInfo())
	require.NoError(t, err)
	assert.Nil(t, res.Paywall)
	assert.Len(t, res.Session.RecommendedItems, 5)
}

func TestVaultTransitions(t *testing.T) {
	f := newSessionFixture(t, nil)

	res, err := f.svc.OpenVault("dev-1", enInfo())
	require.NoError(t, err)
	assert.Equal(t, models.StateGallery, res.Session.State)

	res, err = f.svc.CloseVault("dev-1")
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, res.Session.State)

	// Not reachable while coaching
	driveToGuiding(t, f, "dev-1")
	_, err = f.svc.OpenVault("dev-1", enInfo())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestVaultFeatureDisabled(t *testing.T) {
	cfg := policy.Defaults()
	cfg.Features.Shopping = false
	cfg.Features.Vault = false
	f := newSessionFixture(t, cfg)

	res, err := f.svc.OpenVault("dev-1", enInfo())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Notice)
	assert.Equal(t, models.StateIdle, res.Session.State)
}

func TestCapture_InvalidFromIdle(t *testing.T) {
	f := newSessionFixture(t, nil)
	_, err := f.svc.Capture(context.Background(), "dev-1", enInfo(), "selfie")
	assert.ErrorIs(t, err, ErrInvalidState)
}
