package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"pantrypal/internal/intake"
	"pantrypal/internal/inventory"
	"pantrypal/internal/notify"
	"pantrypal/internal/policy"
)

type fakeWeather struct{ temp float64 }

func (f *fakeWeather) AverageMaxTemp(ctx context.Context) (float64, error) {
	return f.temp, nil
}

type fakeMessenger struct{ sent []string }

func (f *fakeMessenger) Send(ctx context.Context, body string) error {
	f.sent = append(f.sent, body)
	return nil
}

type fakeDonations struct{ reply string }

func (f *fakeDonations) FindCenters(ctx context.Context, items []string) string {
	return f.reply
}

func newApp(t *testing.T, temp float64, rows []inventory.Row) (*App, *fakeMessenger) {
	t.Helper()
	store := inventory.NewStore(filepath.Join(t.TempDir(), "inventory.csv"), nil)
	if rows != nil {
		if err := store.Replace(rows); err != nil {
			t.Fatal(err)
		}
	}
	engine := policy.NewEngine(store, &fakeWeather{temp: temp}, policy.Config{
		HorizonDays:    3,
		HeatShiftDays:  1,
		HeatThresholdC: 20,
	}, nil)
	svc := intake.NewService(store, filepath.Join(t.TempDir(), "absent-ref.csv"),
		intake.Defaults{ShelfLifeDays: 2, Storage: inventory.StorageCounter}, nil)

	messenger := &fakeMessenger{}
	return &App{
		Store:       store,
		Engine:      engine,
		Intake:      svc,
		Donations:   &fakeDonations{reply: "1. Center, Address, Phone"},
		Messenger:   messenger,
		HorizonDays: 3,
	}, messenger
}

func TestRunRoutineHeatAlert(t *testing.T) {
	now := inventory.Today()
	a, messenger := newApp(t, 25, []inventory.Row{
		{Name: "Banana", Expiry: now.AddDate(0, 0, 2), Status: inventory.StatusOpen, Storage: inventory.StorageCounter},
	})

	report, err := a.RunRoutine(context.Background())
	if err != nil {
		t.Fatalf("RunRoutine: %v", err)
	}
	if !report.Updated {
		t.Error("expected update")
	}
	if len(messenger.sent) != 1 || !strings.Contains(messenger.sent[0], "Due to upcoming hot weather") {
		t.Errorf("sent = %v, want heat alert", messenger.sent)
	}
}

func TestRunRoutineExpiryAlertWithoutHeat(t *testing.T) {
	now := inventory.Today()
	a, messenger := newApp(t, 15, []inventory.Row{
		{Name: "Milk", Expiry: now.AddDate(0, 0, 1), Status: inventory.StatusFlagged, Storage: inventory.StorageFridge},
	})

	report, err := a.RunRoutine(context.Background())
	if err != nil {
		t.Fatalf("RunRoutine: %v", err)
	}
	if report.Updated {
		t.Error("no update expected in mild weather")
	}
	if len(messenger.sent) != 1 || !strings.Contains(messenger.sent[0], "by the next 3 days") {
		t.Errorf("sent = %v, want expiry alert", messenger.sent)
	}
}

func TestRunRoutineQuietWhenNothingFlagged(t *testing.T) {
	a, messenger := newApp(t, 15, nil)

	if _, err := a.RunRoutine(context.Background()); err != nil {
		t.Fatalf("RunRoutine: %v", err)
	}
	if len(messenger.sent) != 0 {
		t.Errorf("sent = %v, want no messages", messenger.sent)
	}
}

func TestDonate(t *testing.T) {
	now := inventory.Today()
	a, messenger := newApp(t, 15, []inventory.Row{
		{Name: "Milk", Expiry: now.AddDate(0, 0, 1), Status: inventory.StatusFlagged, Storage: inventory.StorageFridge},
	})

	listing, err := a.Donate(context.Background())
	if err != nil {
		t.Fatalf("Donate: %v", err)
	}
	if listing != "1. Center, Address, Phone" {
		t.Errorf("listing = %q", listing)
	}
	if len(messenger.sent) != 1 || !strings.Contains(messenger.sent[0], listing) {
		t.Errorf("sent = %v", messenger.sent)
	}
}

func TestDonateNothingFlagged(t *testing.T) {
	a, messenger := newApp(t, 15, nil)

	listing, err := a.Donate(context.Background())
	if err != nil {
		t.Fatalf("Donate: %v", err)
	}
	if listing != notify.NothingToDonateReply {
		t.Errorf("listing = %q, want the nothing-to-donate reply", listing)
	}
	if len(messenger.sent) != 1 || messenger.sent[0] != notify.NothingToDonateReply {
		t.Errorf("sent = %v", messenger.sent)
	}
}
