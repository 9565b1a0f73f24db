package impl

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"enrollment/config"
	"enrollment/internal/domain/constants"
	"enrollment/internal/domain/entity"
	"enrollment/internal/infra/clock"
	"enrollment/internal/infra/persistence/dbtest"
	"enrollment/internal/infra/persistence/postgres"
	mockService "enrollment/internal/mocks/service"
	"enrollment/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)

// enrollmentFixtures wires the real services over a private in-memory database.
type enrollmentFixtures struct {
	db         *gorm.DB
	clock      *clock.Fixed
	publisher  *mockService.MockEventPublisher
	qr         *mockService.MockQRCodeService
	members    usecase.MemberUsecase
	cards      usecase.CardUsecase
	enrollment usecase.EnrollmentUsecase
	wizard     usecase.WizardUsecase
}

type fixtureOption func(*config.Config)

func withConfirmationMode(mode string) fixtureOption {
	return func(cfg *config.Config) { cfg.Card.ConfirmationMode = mode }
}

func withOptionalEditAfterLock(allow bool) fixtureOption {
	return func(cfg *config.Config) { cfg.Enrollment.AllowOptionalEditAfterLock = allow }
}

func newEnrollmentFixtures(t *testing.T, opts ...fixtureOption) *enrollmentFixtures {
	t.Helper()

	cfg := &config.Config{
		Enrollment: &config.EnrollmentConfig{AllowOptionalEditAfterLock: true},
		Card: &config.CardConfig{
			ConfirmationMode: constants.CardConfirmationAsync,
			VerifyBaseURL:    "https://cards.example.com/verify/",
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db := dbtest.New(t)
	fixedClock := &clock.Fixed{At: testNow}
	publisher := mockService.NewMockEventPublisher(t)
	qr := mockService.NewMockQRCodeService(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	memberRepo := postgres.NewMemberRepository(db)
	purchaseRepo := postgres.NewPlanPurchaseRepository(db)

	members := NewMemberService(MemberServiceParams{
		MemberRepo:   memberRepo,
		PurchaseRepo: purchaseRepo,
		Clock:        fixedClock,
		Config:       cfg,
		Logger:       logger,
	})
	cards := NewCardService(CardServiceParams{
		TxManager:    postgres.NewTransactionManager(db),
		MemberRepo:   memberRepo,
		CardRepo:     postgres.NewECardRepository(db),
		PurchaseRepo: purchaseRepo,
		Publisher:    publisher,
		QRService:    qr,
		Clock:        fixedClock,
		Config:       cfg,
		Logger:       logger,
	})

	return &enrollmentFixtures{
		db:         db,
		clock:      fixedClock,
		publisher:  publisher,
		qr:         qr,
		members:    members,
		cards:      cards,
		enrollment: NewEnrollmentService(memberRepo, purchaseRepo),
		wizard: NewWizardService(WizardServiceParams{
			Members: members,
			Cards:   cards,
			Clock:   fixedClock,
			Logger:  logger,
		}),
	}
}

// expectPublishes accepts any number of card request events.
func (fx *enrollmentFixtures) expectPublishes() {
	fx.publisher.EXPECT().
		PublishCardRequested(mock.Anything, mock.Anything).
		Return(nil).
		Maybe()
}

func (fx *enrollmentFixtures) seedPurchase(t *testing.T, mandatory int, slots ...entity.RelationSlot) *entity.PlanPurchase {
	t.Helper()

	purchase := &entity.PlanPurchase{
		ID:                   uuid.New(),
		SubscriberID:         uuid.New(),
		PlanName:             "Family Gold",
		PolicyNumber:         "POL-2026-0001",
		Status:               entity.PlanPurchaseStatusActive,
		MandatoryMemberCount: mandatory,
		RelationSlots:        slots,
		BenefitsSummary:      "Cashless hospitalisation up to 5L",
		EmergencyContact:     entity.EmergencyContact{Name: "Helpline", Phone: "1800123456"},
		PurchasedAt:          testNow.AddDate(0, -1, 0),
		ExpiresAt:            testNow.AddDate(0, 6, 0),
	}
	require.NoError(t, fx.db.Create(postgres.FromPlanPurchaseDomain(purchase)).Error)

	return purchase
}

func (fx *enrollmentFixtures) lockedMember(t *testing.T, purchase *entity.PlanPurchase, slot entity.RelationSlot) *entity.Member {
	t.Helper()

	member, err := fx.members.CreateMember(t.Context(), purchase.ID, slot)
	require.NoError(t, err)
	member, err = fx.members.CommitAndLock(t.Context(), member.ID, completeFields())
	require.NoError(t, err)

	return member
}

func completeFields() entity.FieldValues {
	return entity.FieldValues{
		entity.FieldFullName:    "Asha Verma",
		entity.FieldDateOfBirth: "12-04-1990",
		entity.FieldGender:      "Female",
		entity.FieldBloodGroup:  "O+",
		entity.FieldMobile:      "9876543210",
		entity.FieldEmail:       "asha@example.com",
		entity.FieldNationalIDA: "1234 5678 9012",
		entity.FieldNationalIDB: "abcde1234f",
		entity.FieldAddress:     "12 Lake Road",
		entity.FieldCity:        "Pune",
		entity.FieldRegion:      "Maharashtra",
		entity.FieldPostalCode:  "411001",
	}
}
