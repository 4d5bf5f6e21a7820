package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantrypal/internal/app"
	"pantrypal/internal/core"
	"pantrypal/internal/intake"
	"pantrypal/internal/inventory"
	"pantrypal/internal/notify"
	"pantrypal/internal/policy"
)

type fakeWeather struct{ temp float64 }

func (f *fakeWeather) AverageMaxTemp(ctx context.Context) (float64, error) {
	return f.temp, nil
}

type fakeClassifier struct {
	classification intake.Classification
	err            error
}

func (f *fakeClassifier) Classify(ctx context.Context, image []byte, mimeType string) (intake.Classification, error) {
	return f.classification, f.err
}

type fakeDonations struct {
	items []string
	reply string
}

func (f *fakeDonations) FindCenters(ctx context.Context, items []string) string {
	f.items = items
	return f.reply
}

type fakeMessenger struct{ sent []string }

func (f *fakeMessenger) Send(ctx context.Context, body string) error {
	f.sent = append(f.sent, body)
	return nil
}

type fixture struct {
	handler   http.Handler
	store     *inventory.Store
	donations *fakeDonations
	messenger *fakeMessenger
	vision    *fakeClassifier
}

func newFixture(t *testing.T, temp float64) *fixture {
	t.Helper()
	store := inventory.NewStore(filepath.Join(t.TempDir(), "inventory.csv"), nil)

	engine := policy.NewEngine(store, &fakeWeather{temp: temp}, policy.Config{
		HorizonDays:    3,
		HeatShiftDays:  1,
		HeatThresholdC: 20,
	}, nil)

	svc := intake.NewService(store, filepath.Join(t.TempDir(), "absent-ref.csv"),
		intake.Defaults{ShelfLifeDays: 2, Storage: inventory.StorageCounter}, nil)

	f := &fixture{
		store:     store,
		donations: &fakeDonations{reply: "1. Center, Address, Phone"},
		messenger: &fakeMessenger{},
		vision:    &fakeClassifier{},
	}

	application := &app.App{
		Store:       store,
		Engine:      engine,
		Intake:      svc,
		Classifier:  f.vision,
		Donations:   f.donations,
		Messenger:   f.messenger,
		HorizonDays: 3,
	}
	f.handler = New(":0", application, nil).Handler()
	return f
}

func postForm(handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMessageMissingData(t *testing.T) {
	f := newFixture(t, 15)
	rec := postForm(f.handler, "/message", url.Values{"From": {"whatsapp:+1555"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing data")
}

func TestMessageNonDonateIgnored(t *testing.T) {
	f := newFixture(t, 15)
	rec := postForm(f.handler, "/message", url.Values{
		"From": {"whatsapp:+1555"},
		"Body": {"hello there"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.donations.items)
	assert.Empty(t, f.messenger.sent)
}

func TestMessageDonateTriggersLookup(t *testing.T) {
	f := newFixture(t, 15)
	now := inventory.Today()
	require.NoError(t, f.store.Replace([]inventory.Row{
		{Name: "Milk", Expiry: now.AddDate(0, 0, 1), Status: inventory.StatusFlagged, Storage: inventory.StorageFridge},
	}))

	rec := postForm(f.handler, "/message", url.Values{
		"From": {"whatsapp:+1555"},
		"Body": {"Donate"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Milk"}, f.donations.items)
	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0], "Thank you for choosing to donate.")
	assert.Contains(t, f.messenger.sent[0], "1. Center, Address, Phone")
}

func TestMessageDonateNothingFlagged(t *testing.T) {
	f := newFixture(t, 15)
	rec := postForm(f.handler, "/message", url.Values{
		"From": {"whatsapp:+1555"},
		"Body": {"Donate"},
	})

	// An empty ledger is a normal state, not a server fault; the user gets
	// a fixed reply and no lookup runs.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.donations.items)
	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, notify.NothingToDonateReply, f.messenger.sent[0])
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadSuccess(t *testing.T) {
	f := newFixture(t, 15)
	f.vision.classification = intake.Classification{
		Success: true,
		Items:   []intake.Item{{Type: intake.TypeGrocery, Name: "Banana"}},
	}

	body, contentType := multipartUpload(t, "groceries.jpg", []byte("fake-image"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "File 'groceries.jpg' uploaded successfully and inventory updated", resp.Message)

	rows, err := f.store.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Banana", rows[0].Name)
}

func TestUploadNoFilePart(t *testing.T) {
	f := newFixture(t, 15)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No file part in the request")
}

func TestUploadMalformedClassification(t *testing.T) {
	f := newFixture(t, 15)
	f.vision.err = core.Errorf(core.KindMalformed, "vision.classify", "classification unsuccessful: no food detected")

	body, contentType := multipartUpload(t, "cat.jpg", []byte("fake-image"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateInventoryHotWeather(t *testing.T) {
	f := newFixture(t, 25)
	now := inventory.Today()
	require.NoError(t, f.store.Replace([]inventory.Row{
		{Name: "Banana", Expiry: now.AddDate(0, 0, 3), Status: inventory.StatusOpen, Storage: inventory.StorageCounter},
	}))

	req := httptest.NewRequest(http.MethodPost, "/update-inventory", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Inventory updated successfully")
	require.Len(t, f.messenger.sent, 1)
	assert.Contains(t, f.messenger.sent[0], "Due to upcoming hot weather")
}

func TestUpdateInventoryMildWeather(t *testing.T) {
	f := newFixture(t, 15)

	req := httptest.NewRequest(http.MethodPost, "/update-inventory", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No inventory update needed")
	assert.Empty(t, f.messenger.sent)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, 15)
	for _, path := range []string{"/message", "/upload", "/update-inventory"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}
