package router_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"enrollment/config"
	apimiddleware "enrollment/internal/delivery/api/middleware"
	"enrollment/internal/delivery/api/router"
	"enrollment/internal/delivery/api/router/handler"
	"enrollment/internal/delivery/api/validator"
	"enrollment/internal/delivery/middleware"
	"enrollment/internal/domain/constants"
	"enrollment/internal/domain/entity"
	"enrollment/internal/infra/clock"
	"enrollment/internal/infra/persistence/dbtest"
	"enrollment/internal/infra/persistence/postgres"
	"enrollment/internal/infra/qrcode"
	mockService "enrollment/internal/mocks/service"
	"enrollment/internal/usecase/impl"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)

const completeFieldsJSON = `{
	"full_name": "Asha Verma",
	"date_of_birth": "12-04-1990",
	"gender": "Female",
	"blood_group": "O+",
	"mobile": "9876543210",
	"email": "asha@example.com",
	"national_id_a": "1234 5678 9012",
	"national_id_b": "abcde1234f",
	"address": "12 Lake Road",
	"city": "Pune",
	"region": "Maharashtra",
	"postal_code": "411001",
	"height_cm": 172
}`

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string           `json:"code"`
		Details []map[string]any `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

type apiFixture struct {
	e  *echo.Echo
	db *gorm.DB
}

// newAPI wires the routes over real services confirming cards synchronously.
func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{
		Enrollment: &config.EnrollmentConfig{AllowOptionalEditAfterLock: true},
		Card: &config.CardConfig{
			ConfirmationMode: constants.CardConfirmationSync,
			VerifyBaseURL:    "https://cards.example.com/verify",
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := dbtest.New(t)
	fixedClock := &clock.Fixed{At: now}

	memberRepo := postgres.NewMemberRepository(db)
	purchaseRepo := postgres.NewPlanPurchaseRepository(db)
	members := impl.NewMemberService(impl.MemberServiceParams{
		MemberRepo:   memberRepo,
		PurchaseRepo: purchaseRepo,
		Clock:        fixedClock,
		Config:       cfg,
		Logger:       logger,
	})
	cards := impl.NewCardService(impl.CardServiceParams{
		TxManager:    postgres.NewTransactionManager(db),
		MemberRepo:   memberRepo,
		CardRepo:     postgres.NewECardRepository(db),
		PurchaseRepo: purchaseRepo,
		Publisher:    mockService.NewMockEventPublisher(t),
		QRService:    qrcode.NewQRCodeService(256, "M"),
		Clock:        fixedClock,
		Config:       cfg,
		Logger:       logger,
	})
	wizard := impl.NewWizardService(impl.WizardServiceParams{
		Members: members,
		Cards:   cards,
		Clock:   fixedClock,
		Logger:  logger,
	})

	e := echo.New()
	e.Validator = validator.New()
	e.HTTPErrorHandler = apimiddleware.NewErrorMiddleware(logger).HandleHTTPError
	e.Use(middleware.NewRequestIDMiddleware(logger).Process)

	router.NewRouter(router.RouterParams{
		MemberHandler: handler.NewMemberHandler(handler.MemberHandlerParams{MemberUC: members, Logger: logger}),
		CardHandler:   handler.NewCardHandler(handler.CardHandlerParams{CardUC: cards, Logger: logger}),
		EnrollmentHandler: handler.NewEnrollmentHandler(handler.EnrollmentHandlerParams{
			EnrollmentUC: impl.NewEnrollmentService(memberRepo, purchaseRepo),
			WizardUC:     wizard,
		}),
	}).RegisterRoutes(e)

	return &apiFixture{e: e, db: db}
}

func (f *apiFixture) seedPurchase(t *testing.T, mandatory int, slots ...entity.RelationSlot) uuid.UUID {
	t.Helper()

	purchase := &entity.PlanPurchase{
		ID:                   uuid.New(),
		SubscriberID:         uuid.New(),
		PlanName:             "Family Gold",
		PolicyNumber:         "POL-2026-0001",
		Status:               entity.PlanPurchaseStatusActive,
		MandatoryMemberCount: mandatory,
		RelationSlots:        slots,
		PurchasedAt:          now.AddDate(0, -1, 0),
		ExpiresAt:            now.AddDate(1, 0, 0),
	}
	require.NoError(t, f.db.Create(postgres.FromPlanPurchaseDomain(purchase)).Error)

	return purchase.ID
}

func (f *apiFixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}

	return rec, env
}

func TestRoutes_EnrollAndIssueCard(t *testing.T) {
	api := newAPI(t)
	purchaseID := api.seedPurchase(t, 1, "self", "spouse")
	base := "/api/v1/plan-purchases/" + purchaseID.String()

	rec, env := api.do(t, http.MethodPost, base+"/members", `{"relation_slot":"self"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, env.Meta.RequestID)
	var member entity.Member
	require.NoError(t, json.Unmarshal(env.Data, &member))
	memberPath := "/api/v1/members/" + member.ID.String()

	rec, _ = api.do(t, http.MethodPatch, memberPath+"/draft", `{"fields":{"full_name":"Asha Verma","city":"Pune"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = api.do(t, http.MethodPost, memberPath+"/lock", `{}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.NotEmpty(t, env.Error.Details)

	rec, env = api.do(t, http.MethodPost, memberPath+"/lock", `{"fields":`+completeFieldsJSON+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &member))
	assert.Equal(t, entity.LockStateLocked, member.LockState)
	require.NotNil(t, member.HeightCm)
	assert.InDelta(t, 172.0, *member.HeightCm, 0.001)

	rec, env = api.do(t, http.MethodGet, base+"/enrollment", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		FullyEnrolled bool    `json:"fully_enrolled"`
		Progress      float64 `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.FullyEnrolled)
	assert.InDelta(t, 1.0, status.Progress, 0.001)

	rec, env = api.do(t, http.MethodPost, memberPath+"/card", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var card entity.ECard
	require.NoError(t, json.Unmarshal(env.Data, &card))
	assert.Equal(t, entity.ECardStatusActive, card.Status)

	rec, env = api.do(t, http.MethodPost, memberPath+"/card", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CARD_ALREADY_ISSUED", env.Error.Code)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/cards/"+card.ID.String()+"/qr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.NotEmpty(t, rec.Body.Bytes())

	qrText, err := json.Marshal(map[string]any{
		"card_unique_id": card.CardUniqueID,
		"member_id":      member.ID,
		"valid_till":     card.ValidTill,
	})
	require.NoError(t, err)
	verifyBody, err := json.Marshal(map[string]string{"qr_data": string(qrText)})
	require.NoError(t, err)
	rec, env = api.do(t, http.MethodPost, "/api/v1/cards/verify", string(verifyBody))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var check struct {
		Standing string `json:"standing"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &check))
	assert.Equal(t, "valid", check.Standing)

	rec, env = api.do(t, http.MethodGet, memberPath+"/card", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var byMember entity.ECard
	require.NoError(t, json.Unmarshal(env.Data, &byMember))
	assert.Equal(t, card.ID, byMember.ID)
}

func TestRoutes_DraftEditsOnLockedMember(t *testing.T) {
	api := newAPI(t)
	purchaseID := api.seedPurchase(t, 1, "self")

	_, env := api.do(t, http.MethodPost, "/api/v1/plan-purchases/"+purchaseID.String()+"/members", `{"relation_slot":"self"}`)
	var member entity.Member
	require.NoError(t, json.Unmarshal(env.Data, &member))
	memberPath := "/api/v1/members/" + member.ID.String()
	rec, _ := api.do(t, http.MethodPost, memberPath+"/lock", `{"fields":`+completeFieldsJSON+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = api.do(t, http.MethodPatch, memberPath+"/draft", `{"fields":{"full_name":"Someone Else"}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MEMBER_LOCKED", env.Error.Code)

	rec, _ = api.do(t, http.MethodPatch, memberPath+"/draft", `{"fields":{"weight_kg":64.5}}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRoutes_RequestErrors(t *testing.T) {
	api := newAPI(t)
	purchaseID := api.seedPurchase(t, 1, "self")

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "malformed member id",
			method:   http.MethodGet,
			path:     "/api/v1/members/not-a-uuid",
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "VALIDATION_FAILED",
		},
		{
			name:     "unknown member",
			method:   http.MethodGet,
			path:     "/api/v1/members/" + uuid.NewString(),
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
		{
			name:     "unknown plan purchase",
			method:   http.MethodGet,
			path:     "/api/v1/plan-purchases/" + uuid.NewString() + "/enrollment",
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
		{
			name:     "missing relation slot",
			method:   http.MethodPost,
			path:     "/api/v1/plan-purchases/" + purchaseID.String() + "/members",
			body:     `{}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "VALIDATION_FAILED",
		},
		{
			name:     "malformed body",
			method:   http.MethodPost,
			path:     "/api/v1/plan-purchases/" + purchaseID.String() + "/members",
			body:     `{"relation_slot":`,
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_FAILED",
		},
		{
			name:     "field of the wrong type",
			method:   http.MethodPost,
			path:     "/api/v1/wizard/commit",
			body:     `{"member_id":"` + uuid.NewString() + `","fields":{"city":["Pune"]},"acknowledged":true}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "VALIDATION_FAILED",
		},
		{
			name:     "wizard commit without member",
			method:   http.MethodPost,
			path:     "/api/v1/wizard/commit",
			body:     `{"acknowledged":true}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "VALIDATION_FAILED",
		},
		{
			name:     "unknown route",
			method:   http.MethodGet,
			path:     "/api/v1/nowhere",
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := api.do(t, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantErr, env.Error.Code)
		})
	}
}

func TestRoutes_Wizard(t *testing.T) {
	api := newAPI(t)
	purchaseID := api.seedPurchase(t, 2, "self", "spouse")
	base := "/api/v1/plan-purchases/" + purchaseID.String()

	rec, env := api.do(t, http.MethodPost, base+"/members/provision", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var members []entity.Member
	require.NoError(t, json.Unmarshal(env.Data, &members))
	require.Len(t, members, 2)

	rec, env = api.do(t, http.MethodGet, base+"/wizard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var candidates []struct {
		Selectable bool `json:"selectable"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &candidates))
	require.Len(t, candidates, 2)
	assert.True(t, candidates[0].Selectable)

	commit := `{"member_id":"` + members[0].ID.String() + `","fields":` + completeFieldsJSON + `,"acknowledged":%s}`

	rec, env = api.do(t, http.MethodPost, "/api/v1/wizard/commit", strings.Replace(commit, "%s", "false", 1))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	rec, env = api.do(t, http.MethodPost, "/api/v1/wizard/commit", strings.Replace(commit, "%s", "true", 1))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result struct {
		Member entity.Member `json:"member"`
		Card   entity.ECard  `json:"card"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, entity.LockStateLocked, result.Member.LockState)
	assert.Equal(t, entity.ECardStatusActive, result.Card.Status)

	rec, env = api.do(t, http.MethodGet, base+"/enrollment", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		FullyEnrolled    bool   `json:"fully_enrolled"`
		NextUnlockedSlot string `json:"next_unlocked_slot"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.FullyEnrolled)
	assert.Equal(t, "spouse", status.NextUnlockedSlot)
}
