// Package app wires the pantry components into the three user-facing
// routines: the scheduled spoilage pass, the donation webhook, and image
// intake. The HTTP server, the scheduler, and the CLI all drive this one
// service.
package app

import (
	"context"

	"go.uber.org/zap"

	"pantrypal/internal/intake"
	"pantrypal/internal/inventory"
	"pantrypal/internal/notify"
	"pantrypal/internal/policy"
)

// Classifier turns image bytes into a classification payload.
type Classifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) (intake.Classification, error)
}

// DonationFinder produces a donation-center listing for the given items.
type DonationFinder interface {
	FindCenters(ctx context.Context, items []string) string
}

// Messenger delivers an alert to the household recipient.
type Messenger interface {
	Send(ctx context.Context, body string) error
}

// App is the pantry application service.
type App struct {
	Store       *inventory.Store
	Engine      *policy.Engine
	Intake      *intake.Service
	Classifier  Classifier
	Donations   DonationFinder
	Messenger   Messenger
	HorizonDays int
	Logger      *zap.Logger
}

// RunRoutine executes the daily pass: weather-gated spoilage check, then an
// alert for whatever is flagged. Messaging failures are logged inside the
// notifier and do not fail the routine.
func (a *App) RunRoutine(ctx context.Context) (*policy.Report, error) {
	report, err := a.Engine.CheckSpoilage(ctx)
	if err != nil {
		return nil, err
	}

	if report.Updated && len(report.FlaggedNames) > 0 {
		// Fire-and-forget: the user hears about spoiling food, never
		// about messaging trouble.
		_ = a.Messenger.Send(ctx, notify.HeatAlert(report.FlaggedNames))
		return report, nil
	}

	flagged, err := a.Store.FlaggedNames()
	if err != nil {
		return nil, err
	}
	if len(flagged) > 0 {
		_ = a.Messenger.Send(ctx, notify.ExpiryAlert(flagged, a.HorizonDays))
	}
	return report, nil
}

// Donate looks up donation centers for the currently flagged items and
// messages the listing back to the user. Returns the listing text. With
// nothing flagged the user gets a fixed reply and no lookup runs.
func (a *App) Donate(ctx context.Context) (string, error) {
	flagged, err := a.Store.FlaggedNames()
	if err != nil {
		return "", err
	}
	if len(flagged) == 0 {
		_ = a.Messenger.Send(ctx, notify.NothingToDonateReply)
		return notify.NothingToDonateReply, nil
	}

	listing := a.Donations.FindCenters(ctx, flagged)
	_ = a.Messenger.Send(ctx, notify.DonationReply(listing))
	return listing, nil
}

// IngestImage classifies the image and merges recognized items into the
// ledger. Returns the number of rows added.
func (a *App) IngestImage(ctx context.Context, image []byte, mimeType string) (int, error) {
	classification, err := a.Classifier.Classify(ctx, image, mimeType)
	if err != nil {
		return 0, err
	}
	return a.Intake.Merge(ctx, classification)
}
