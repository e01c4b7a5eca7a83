package models

import "time"

// MirrorMode is the styling category chosen once per session
type MirrorMode string

const (
	ModeMakeup  MirrorMode = "MAKEUP"
	ModeClothes MirrorMode = "CLOTHES"
	ModeHair    MirrorMode = "HAIR"
)

// Valid reports whether m is a known styling mode
func (m MirrorMode) Valid() bool {
	switch m {
	case ModeMakeup, ModeClothes, ModeHair:
		return true
	}
	return false
}

// AppState is the session state machine state
type AppState string

const (
	StateIdle             AppState = "IDLE"
	StateCaptureInitial   AppState = "CAPTURE_INITIAL"
	StateGeneratingLook   AppState = "GENERATING_LOOK"
	StateGuiding          AppState = "GUIDING"
	StateCheckingProgress AppState = "CHECKING_PROGRESS"
	StateFinalReveal      AppState = "FINAL_REVEAL"
	StateGallery          AppState = "GALLERY"
)

// CapturePhase distinguishes what the next capture in CAPTURE_INITIAL means:
// the first shot only produces a greeting, later shots trigger generation.
type CapturePhase string

const (
	PhaseAwaitingGreeting     CapturePhase = "AWAITING_GREETING"
	PhaseAwaitingStyleCapture CapturePhase = "AWAITING_STYLE_CAPTURE"
)

// PaywallReason identifies the gated action that triggered an upsell
type PaywallReason string

const (
	ReasonLimit   PaywallReason = "limit"
	ReasonCoach   PaywallReason = "coach"
	ReasonCoachQA PaywallReason = "coachqa"
	ReasonShop    PaywallReason = "shop"
)

// TutorialStep is one coaching step, immutable once generated
type TutorialStep struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Instruction string `json:"instruction"`
	Tip         string `json:"tip"`
}

// Tutorial is the tutorial payload returned by the look generator
type Tutorial struct {
	Compliment string         `json:"compliment"`
	Steps      []TutorialStep `json:"steps"`
}

// RecommendedItem is one shopping suggestion for the generated look
type RecommendedItem struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Brand       string `json:"brand"`
	URL         string `json:"url"`
	MatchReason string `json:"matchReason"`
}

// Session is one styling journey for a device. Images are base64-encoded JPEGs.
type Session struct {
	Mode                 MirrorMode        `json:"mode,omitempty"`
	State                AppState          `json:"state"`
	CapturePhase         CapturePhase      `json:"capture_phase,omitempty"`
	OriginalImage        string            `json:"original_image,omitempty"`
	TargetImage          string            `json:"target_image,omitempty"`
	CurrentProgressImage string            `json:"current_progress_image,omitempty"`
	Steps                []TutorialStep    `json:"steps"`
	CurrentStepIndex     int               `json:"current_step_index"`
	AIFeedback           string            `json:"ai_feedback,omitempty"`
	Preference           string            `json:"preference,omitempty"`
	RecommendedItems     []RecommendedItem `json:"recommended_items"`
	Compliment           string            `json:"compliment,omitempty"`
	Greeting             string            `json:"greeting,omitempty"`
	CoachQuestionsUsed   int               `json:"coach_questions_used"`
}

// Device represents one anonymous client device
type Device struct {
	ID        string    `json:"id"`
	Token     string    `json:"token,omitempty"`
	Premium   bool      `json:"premium"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedLook is one vault entry for a device
type SavedLook struct {
	ID        string     `json:"id"`
	DeviceID  string     `json:"-"`
	Mode      MirrorMode `json:"mode"`
	Mood      string     `json:"mood"`
	ImageURL  string     `json:"image_url"`
	CreatedAt time.Time  `json:"created_at"`
}

// TrackedSession is one recorded app load
type TrackedSession struct {
	ID          string    `json:"id"`
	UserAgent   string    `json:"user_agent,omitempty"`
	InitialMode string    `json:"initial_mode,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Event is one recorded client event
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"event"`
	Payload   []byte    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PaywallOffer is the upsell payload rendered by the client
type PaywallOffer struct {
	Reason       PaywallReason `json:"reason"`
	Title        string        `json:"title"`
	Subtitle     string        `json:"subtitle"`
	Highlight    string        `json:"highlight"`
	Benefits     []string      `json:"benefits"`
	CTAPrimary   string        `json:"cta_primary"`
	CTASecondary string        `json:"cta_secondary"`
	PayWithPix   string        `json:"pay_with_pix,omitempty"`
	PayWithCard  string        `json:"pay_with_card"`
	Close        string        `json:"close"`
	SmallPrint   string        `json:"small_print"`
	AllowPix     bool          `json:"allow_pix"`
	PreviewImage string        `json:"preview_image,omitempty"`
}
