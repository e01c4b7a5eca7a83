package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mirror-backend/internal/branding"
	"mirror-backend/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	textModel     = "gemini-3-flash-preview"
	imageModel    = "gemini-2.5-flash-image"
	shoppingModel = "gemini-3-pro-image-preview"
	ttsModel      = "gemini-2.5-flash-preview-tts"

	imageTimeout    = 90 * time.Second
	tutorialTimeout = 45 * time.Second
	textTimeout     = 30 * time.Second
	ttsTimeout      = 30 * time.Second
)

const (
	stylistProtocol = "CRITICAL: Do NOT add, modify, or emphasize any facial hair (beards, stubble, or mustaches). " +
		"Maintain a clean, sophisticated, and feminine aesthetic. Focus strictly on requested changes."
	preservationProtocol = "CRITICAL: Maintain the exact body shape, weight, height, and pose of the person. " +
		"Do NOT change the background or environment. The person must be 100% recognizable as themselves in their current setting."
)

// SafetyError is returned when the generative backend rejects a request on
// safety grounds. The message is shown to the user verbatim.
type SafetyError struct{}

func (e *SafetyError) Error() string {
	return "I couldn't generate this specific look due to safety guidelines. Please try a different photo or style!"
}

// UserFacing marks the message as safe to show to the user
func (e *SafetyError) UserFacing() bool { return true }

// Client talks to the Gemini backend for every stylist capability:
// image generation, tutorials, feedback, shopping items and speech.
type Client struct {
	ai    *genai.Client
	voice string
}

// New creates a Gemini client
func New(ctx context.Context, apiKey, voice string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	ai, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if voice == "" {
		voice = "Kore"
	}
	return &Client{ai: ai, voice: voice}, nil
}

// Close releases the underlying connection
func (c *Client) Close() error {
	return c.ai.Close()
}

func langInstruction(lang string) string {
	name := "English"
	switch lang {
	case "pt":
		name = "Portuguese"
	case "es":
		name = "Spanish"
	case "ja":
		name = "Japanese"
	}
	return fmt.Sprintf("Emma the Stylist instruction: All generated text must be in %s. Brand 'Everyday Mirror' remains in English.", name)
}

func imagePart(b64 string) (genai.Part, error) {
	data, err := base64.StdEncoding.DecodeString(branding.Normalize(b64))
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("invalid image data")
	}
	return genai.ImageData("jpeg", data), nil
}

// responseText concatenates all text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", nil
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", &SafetyError{}
	}
	if cand.Content == nil {
		return "", nil
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// responseImage extracts the first inline image of the first candidate,
// base64-encoded. An empty result is not an error here; callers decide.
func responseImage(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", nil
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", &SafetyError{}
	}
	if cand.Content == nil {
		return "", nil
	}
	for _, part := range cand.Content.Parts {
		if blob, ok := part.(genai.Blob); ok {
			return base64.StdEncoding.EncodeToString(blob.Data), nil
		}
	}
	return "", nil
}

// GenerateStyledImage renders the chosen style onto the captured photo.
// An empty result means the model produced no image for this angle.
func (c *Client) GenerateStyledImage(ctx context.Context, photo string, mode models.MirrorMode, style, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()

	var base string
	switch mode {
	case models.ModeMakeup:
		if style == "Surprise Me" {
			base = "Apply a breathtaking, high-end makeup look that complements these features."
		} else {
			base = fmt.Sprintf("Apply a professional %q makeup look to this face.", style)
		}
		base += " Focus strictly on cosmetic application (lips, eyes, skin, and contour)."
	case models.ModeClothes:
		if style == "Carnival Celebration" {
			base = "Transform this person's outfit into a spectacular Brazilian Carnival costume."
		} else {
			base = fmt.Sprintf("Show this person wearing a high-fashion %q outfit.", style)
		}
		base += " Only the clothing should be transformed."
	case models.ModeHair:
		base = fmt.Sprintf("Change the person's hair on top of their head to a sophisticated %q style. Only the hair should be modified.", style)
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}

	prompt := fmt.Sprintf("%s %s The person must be immediately recognizable as themselves. %s OUTPUT THE EDITED IMAGE DATA. %s",
		base, preservationProtocol, stylistProtocol, langInstruction(lang))

	img, err := imagePart(photo)
	if err != nil {
		return "", err
	}

	model := c.ai.GenerativeModel(imageModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt), img)
	if err != nil {
		return "", fmt.Errorf("styled image generation failed: %w", err)
	}
	return responseImage(resp)
}

// GenerateGreeting produces the personalized welcome line from the first capture
func (c *Client) GenerateGreeting(ctx context.Context, photo string, mode models.MirrorMode, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, textTimeout)
	defer cancel()

	prompt := "You are Emma, a world-class personal stylist for 'Everyday Mirror'.\n" +
		"1. Analyze their features and give a warm, specific, and natural compliment (about 15-20 words). " +
		"Focus on something genuine like their smile, the light in their eyes, or their natural glow.\n" +
		"2. Follow it with: \"Let's make you look even more fabulous today! When you're ready, pick a look below and I'll guide you.\"\n" +
		langInstruction(lang)

	img, err := imagePart(photo)
	if err != nil {
		return "", err
	}

	model := c.ai.GenerativeModel(textModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt), img)
	if err != nil {
		return "", fmt.Errorf("greeting generation failed: %w", err)
	}
	return responseText(resp)
}

// GenerateTutorial produces the compliment plus ordered coaching steps for a look
func (c *Client) GenerateTutorial(ctx context.Context, original, styled string, mode models.MirrorMode, lang string) (*models.Tutorial, error) {
	ctx, cancel := context.WithTimeout(ctx, tutorialTimeout)
	defer cancel()

	origPart, err := imagePart(original)
	if err != nil {
		return nil, fmt.Errorf("invalid original image: %w", err)
	}
	styledPart, err := imagePart(styled)
	if err != nil {
		return nil, fmt.Errorf("invalid styled image: %w", err)
	}

	prompt := "You are Emma, the Everyday Mirror stylist.\n" +
		"1. Provide a charming, natural, and realistic compliment (approx 15-20 words) about why this specific new look beautifully enhances their unique features. Create an emotional connection.\n" +
		"2. Provide professional steps to achieve this.\n" +
		langInstruction(lang)

	model := c.ai.GenerativeModel(textModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"compliment": {Type: genai.TypeString},
			"steps": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":          {Type: genai.TypeInteger},
						"title":       {Type: genai.TypeString},
						"instruction": {Type: genai.TypeString},
						"tip":         {Type: genai.TypeString},
					},
					Required: []string{"id", "title", "instruction", "tip"},
				},
			},
		},
		Required: []string{"compliment", "steps"},
	}

	resp, err := model.GenerateContent(ctx, origPart, styledPart, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("tutorial generation failed: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	var tutorial models.Tutorial
	if err := json.Unmarshal([]byte(text), &tutorial); err != nil {
		return nil, fmt.Errorf("failed to parse tutorial: %w", err)
	}
	if len(tutorial.Steps) == 0 {
		return nil, fmt.Errorf("tutorial contained no steps")
	}
	return &tutorial, nil
}

// GenerateShoppingItems identifies purchasable products matching the look
func (c *Client) GenerateShoppingItems(ctx context.Context, styled string, mode models.MirrorMode, lang string) ([]models.RecommendedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, textTimeout)
	defer cancel()

	category := "makeup products"
	switch mode {
	case models.ModeClothes:
		category = "clothing and outfits"
	case models.ModeHair:
		category = "hair accessories and products"
	}

	img, err := imagePart(styled)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Identify 3 real-world %s used in this look. Provide details for each. %s", category, langInstruction(lang))

	model := c.ai.GenerativeModel(shoppingModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":        {Type: genai.TypeString},
				"price":       {Type: genai.TypeString},
				"brand":       {Type: genai.TypeString},
				"url":         {Type: genai.TypeString},
				"matchReason": {Type: genai.TypeString},
			},
			Required: []string{"name", "price", "brand", "url", "matchReason"},
		},
	}

	resp, err := model.GenerateContent(ctx, img, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("shopping generation failed: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	var items []models.RecommendedItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("failed to parse shopping items: %w", err)
	}
	return items, nil
}

// ProgressFeedback compares the check-in photo with the target look
func (c *Client) ProgressFeedback(ctx context.Context, styled, progress string, step models.TutorialStep, mode models.MirrorMode, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, textTimeout)
	defer cancel()

	styledPart, err := imagePart(styled)
	if err != nil {
		return "", fmt.Errorf("invalid styled image: %w", err)
	}
	progressPart, err := imagePart(progress)
	if err != nil {
		return "", fmt.Errorf("invalid progress image: %w", err)
	}

	prompt := fmt.Sprintf("Emma the Stylist: Compare their current progress for step: %q. "+
		"Give warm, encouraging, and specific feedback on what they did well and what to tweak. "+
		"Be natural and helpful (approx 20 words). %s", step.Title, langInstruction(lang))

	model := c.ai.GenerativeModel(textModel)
	resp, err := model.GenerateContent(ctx, styledPart, progressPart, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("progress feedback failed: %w", err)
	}
	return responseText(resp)
}

// AnswerCoachQuestion answers a free-form user question in the context of the look
func (c *Client) AnswerCoachQuestion(ctx context.Context, question, styled string, mode models.MirrorMode, step models.TutorialStep, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, textTimeout)
	defer cancel()

	img, err := imagePart(styled)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("User asks: %q. Emma, answer professionally and warmly based on the target look provided in the image and current step %q. "+
		"Keep it conversational and encouraging. %s", question, step.Title, langInstruction(lang))

	model := c.ai.GenerativeModel(textModel)
	resp, err := model.GenerateContent(ctx, img, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("coach answer failed: %w", err)
	}
	return responseText(resp)
}

// Synthesize renders spoken audio for a coach line
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, ttsTimeout)
	defer cancel()

	model := c.ai.GenerativeModel(ttsModel)
	resp, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no audio returned")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if blob, ok := part.(genai.Blob); ok {
			return blob.Data, nil
		}
	}
	return nil, fmt.Errorf("no audio returned")
}
