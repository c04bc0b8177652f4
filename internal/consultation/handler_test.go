package consultation

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-chatbot/internal/agent"
	"health-chatbot/internal/auth"
	"health-chatbot/internal/user"
)

type usersByName struct{ repo user.Repository }

func (u usersByName) FindByUsername(ctx context.Context, name string) (*user.User, error) {
	return u.repo.GetByUsername(ctx, name)
}

type stubRenderer struct{}

func (stubRenderer) RenderPDF(c Consultation, owner string) ([]byte, error) {
	return []byte("%PDF-1.3 " + owner), nil
}

type handlerFixture struct {
	*fixture
	router http.Handler
	issuer *auth.Issuer
}

func newHandlerFixture(t *testing.T, maxBytes int64) *handlerFixture {
	t.Helper()
	f := newFixture(t)
	issuer := auth.NewIssuer("secret", time.Hour)
	svc := NewService(f.repo, agent.NewEngine(fixedSource(2)), f.store, quietLogger(), WithClock(tickingClock(t0)))
	h := NewHandler(svc, usersByName{f.users}, stubRenderer{}, maxBytes, quietLogger())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(issuer))
		RegisterRoutes(r, h)
	})
	return &handlerFixture{fixture: f, router: r, issuer: issuer}
}

func (hf *handlerFixture) token(t *testing.T, username string) string {
	t.Helper()
	hf.addUser(t, username)
	tok, _, err := hf.issuer.Issue(username)
	require.NoError(t, err)
	return tok
}

func (hf *handlerFixture) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	hf.router.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandler_SymptomsAndHistory(t *testing.T) {
	hf := newHandlerFixture(t, 1<<20)
	tok := hf.token(t, "alice")

	rec := hf.do(httptest.NewRequest(http.MethodPost, "/api/consultations/symptoms",
		strings.NewReader(`{"symptoms":"fever and cough"}`)), tok)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "SYMPTOM", raw["consultationType"])
	assert.Equal(t, "fever and cough", raw["symptoms"])
	assert.Nil(t, raw["imagePath"])
	assert.Nil(t, raw["seriousnessRating"])
	assert.Contains(t, raw, "createdAt")
	assert.NotContains(t, raw, "userId")

	rec = hf.do(httptest.NewRequest(http.MethodGet, "/api/consultations/history", nil), tok)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []DTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, KindSymptom, history[0].ConsultationType)
}

func TestHandler_SymptomsValidation(t *testing.T) {
	hf := newHandlerFixture(t, 1<<20)
	tok := hf.token(t, "alice")

	rec := hf.do(httptest.NewRequest(http.MethodPost, "/api/consultations/symptoms",
		strings.NewReader(`{"symptoms":""}`)), tok)
	require.Equal(t, http.StatusOK, rec.Code)
	var dto DTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.NotNil(t, dto.PrescriptionSuggestion)
	assert.Equal(t, "Please provide detailed symptoms for accurate analysis.", *dto.PrescriptionSuggestion)

	long := `{"symptoms":"` + strings.Repeat("é", MaxSymptomsLength+1) + `"}`
	rec = hf.do(httptest.NewRequest(http.MethodPost, "/api/consultations/symptoms", strings.NewReader(long)), tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at most 10000 characters")

	rec = hf.do(httptest.NewRequest(http.MethodGet, "/api/consultations/history", nil), tok)
	var history []DTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 1)
}

func TestHandler_EmptyHistoryIsArray(t *testing.T) {
	hf := newHandlerFixture(t, 1<<20)
	tok := hf.token(t, "alice")

	rec := hf.do(httptest.NewRequest(http.MethodGet, "/api/consultations/history", nil), tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_UploadImage(t *testing.T) {
	hf := newHandlerFixture(t, 1<<20)
	tok := hf.token(t, "alice")

	body, ct := multipartBody(t, "file", "mole.jpg", []byte("jpeg-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/consultations/image", body)
	req.Header.Set("Content-Type", ct)
	rec := hf.do(req, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto DTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, KindImage, dto.ConsultationType)
	require.NotNil(t, dto.SeriousnessRating)
	assert.Equal(t, "High", *dto.SeriousnessRating)
	require.NotNil(t, dto.ImagePath)
	assert.True(t, strings.HasSuffix(*dto.ImagePath, ".jpg"))
	assert.Nil(t, dto.Symptoms)
	assert.Len(t, hf.files(t), 1)
}

func TestHandler_UploadImage_Rejections(t *testing.T) {
	hf := newHandlerFixture(t, 16)
	tok := hf.token(t, "alice")

	body, ct := multipartBody(t, "attachment", "a.png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/consultations/image", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusBadRequest, hf.do(req, tok).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/consultations/image", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, hf.do(req, tok).Code)

	body, ct = multipartBody(t, "file", "big.png", bytes.Repeat([]byte("x"), 64))
	req = httptest.NewRequest(http.MethodPost, "/api/consultations/image", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, hf.do(req, tok).Code)

	assert.Empty(t, hf.files(t))
}

func TestHandler_Unauthenticated(t *testing.T) {
	hf := newHandlerFixture(t, 1<<20)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/consultations/history", nil),
		httptest.NewRequest(http.MethodPost, "/api/consultations/symptoms", strings.NewReader(`{"symptoms":"x"}`)),
		httptest.NewRequest(http.MethodPost, "/api/consultations/image", nil),
	} {
		assert.Equal(t, http.StatusUnauthorized, hf.do(req, "").Code, req.URL.Path)
	}

	assert.Equal(t, http.StatusUnauthorized,
		hf.do(httptest.NewRequest(http.MethodGet, "/api/consultations/history", nil), "garbage").Code)
}

func TestHandler_TokenForMissingUserIsInternalError(t *testing.T) {
	hf := newHandlerFixture(t, 1<<20)
	tok, _, err := hf.issuer.Issue("ghost")
	require.NoError(t, err)

	rec := hf.do(httptest.NewRequest(http.MethodGet, "/api/consultations/history", nil), tok)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error","message":"internal server error"}`, rec.Body.String())
}

func TestHandler_Report(t *testing.T) {
	hf := newHandlerFixture(t, 1<<20)
	alice := hf.token(t, "alice")
	bob := hf.token(t, "bob")

	rec := hf.do(httptest.NewRequest(http.MethodPost, "/api/consultations/symptoms",
		strings.NewReader(`{"symptoms":"headache"}`)), alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var dto DTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))

	path := "/api/consultations/" + jsonNumber(dto.ID) + "/report"

	rec = hf.do(httptest.NewRequest(http.MethodGet, path, nil), alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3 alice", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, hf.do(httptest.NewRequest(http.MethodGet, path, nil), bob).Code)
	assert.Equal(t, http.StatusNotFound,
		hf.do(httptest.NewRequest(http.MethodGet, "/api/consultations/abc/report", nil), alice).Code)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
