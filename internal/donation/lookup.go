// Package donation finds nearby food donation centers for soon-to-expire
// items, using Gemini with Google Search grounding.
package donation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pantrypal/internal/core"
	"pantrypal/internal/retry"
)

// Sentinel replies returned to the user instead of raw errors.
const (
	NotFoundReply = "I could not find any suitable donation centers right now. Please try again later."
	FailureReply  = "Connection or API error. Could not complete the search."
)

const systemPrompt = "You are a local donation assistance service. Use the provided Google Search tool " +
	"to find current, actionable contact information. Do not add any introductory or " +
	"concluding text, only the structured list of contacts."

// TextGenerator produces grounded free text from a prompt.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Finder looks up donation centers near a configured location.
type Finder struct {
	generator TextGenerator
	location  string
	policy    retry.Policy
	logger    *zap.Logger
}

// NewFinder returns a donation finder.
func NewFinder(generator TextGenerator, location string, policy retry.Policy, logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{generator: generator, location: location, policy: policy, logger: logger}
}

// FindCenters asks for three nearby donation contacts accepting the given
// items. The reply is free text in "1. Name, Address, Phone" format, or one
// of the fixed sentinel strings; the caller never sees a raw error.
// Transient transport failures are retried on the bounded backoff schedule;
// terminal API rejections (bad key, malformed request) fail immediately.
func (f *Finder) FindCenters(ctx context.Context, items []string) string {
	itemList := strings.Join(items, ",")
	f.logger.Info("searching donation centers",
		zap.String("items", itemList),
		zap.String("location", f.location))

	userQuery := fmt.Sprintf(
		"Find 3 local non-profit food banks or pantries within 5 kilometers of %s "+
			"that specifically accept donations of '%s'. "+
			"Or accepts food as donation. "+
			"For each one, provide the Name, full Street Address, and Phone Number. "+
			"Respond ONLY with a numbered list in this format: 1. Name, Address, Phone.",
		f.location, itemList)

	var text string
	err := f.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		text, err = f.generator.Complete(ctx, systemPrompt, userQuery)
		if err != nil {
			if !core.IsKind(err, core.KindExternal) {
				f.logger.Error("donation lookup rejected", zap.Error(err))
				return retry.Permanent(err)
			}
			f.logger.Warn("donation lookup attempt failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		f.logger.Error("donation lookup failed", zap.Error(err))
		return FailureReply
	}

	if strings.TrimSpace(text) == "" {
		return NotFoundReply
	}
	return strings.TrimSpace(text)
}
