// Package vision classifies photographed food items via the Gemini API,
// producing the structured payload the intake merge consumes.
package vision

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"pantrypal/internal/core"
	"pantrypal/internal/intake"
)

// Config configures the classifier.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Classifier sends food images to Gemini and parses the extraction result.
type Classifier struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClassifier creates a Gemini-backed image classifier.
func NewClassifier(ctx context.Context, cfg Config, logger *zap.Logger) (*Classifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		return nil, core.Errorf(core.KindExternal, "vision.init", "Gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 45 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, core.E(core.KindExternal, "vision.init", err)
	}

	return &Classifier{client: client, model: model, timeout: timeout, logger: logger}, nil
}

// Classify extracts food items from raw image bytes. Model or transport
// failure is an external error; a well-formed reply that declares failure
// or misses required fields is a malformed-input error, reported before
// any table mutation.
func (c *Classifier) Classify(ctx context.Context, image []byte, mimeType string) (intake.Classification, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()

	parts := []*genai.Part{
		genai.NewPartFromText(extractionPrompt),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return intake.Classification{}, core.E(core.KindExternal, "vision.classify", err)
	}

	text := resp.Text()
	c.logger.Debug("image classified",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(startTime)),
		zap.Int("response_len", len(text)))

	classification, err := ParseResponse(text)
	if err != nil {
		return intake.Classification{}, err
	}
	if !classification.Success {
		return classification, core.Errorf(core.KindMalformed, "vision.classify",
			"classification unsuccessful: %s", classification.Error)
	}

	c.logger.Info("food items recognized",
		zap.Int("items", len(classification.Items)),
		zap.Float64("confidence", classification.ConfidenceScore))
	return classification, nil
}

// ParseResponse extracts the classification JSON from the model reply. The
// model sometimes wraps the object in prose or fences, so the outermost
// braces are sliced out before decoding.
func ParseResponse(text string) (intake.Classification, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return intake.Classification{}, core.Errorf(core.KindMalformed, "vision.parse",
			"no JSON object found in response")
	}

	var classification intake.Classification
	if err := json.Unmarshal([]byte(text[start:end+1]), &classification); err != nil {
		return intake.Classification{}, core.Errorf(core.KindMalformed, "vision.parse",
			"failed to parse classification JSON: %v", err)
	}

	if classification.Success && len(classification.Items) == 0 {
		return intake.Classification{}, core.Errorf(core.KindMalformed, "vision.parse",
			"classification reports success but carries no items")
	}
	return classification, nil
}
