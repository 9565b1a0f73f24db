package postgres

import (
	"context"

	"enrollment/internal/domain/entity"
	"enrollment/internal/domain/repository"
	"enrollment/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// planPurchaseRepository implements the repository.PlanPurchaseRepository interface.
type planPurchaseRepository struct {
	db *gorm.DB
}

// NewPlanPurchaseRepository is the constructor for planPurchaseRepository.
func NewPlanPurchaseRepository(db *gorm.DB) repository.PlanPurchaseRepository {
	return &planPurchaseRepository{
		db: db,
	}
}

// FindPlanPurchaseByID retrieves a plan purchase by its unique ID.
func (repo *planPurchaseRepository) FindPlanPurchaseByID(ctx context.Context, id uuid.UUID) (*entity.PlanPurchase, error) {
	var purchaseM model.PlanPurchaseModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&purchaseM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPlanPurchaseNotFound
		}

		return nil, errors.Wrap(err, "failed to find plan purchase by ID")
	}

	return toPlanPurchaseDomain(&purchaseM), nil
}

// --- Mapper Functions ---

// toPlanPurchaseDomain converts a GORM PlanPurchaseModel to a domain PlanPurchase entity.
func toPlanPurchaseDomain(data *model.PlanPurchaseModel) *entity.PlanPurchase {
	if data == nil {
		return nil
	}

	slots := make([]entity.RelationSlot, 0, len(data.RelationSlots))
	for _, slot := range data.RelationSlots {
		slots = append(slots, entity.RelationSlot(slot))
	}
	contact := data.EmergencyContact.Data()

	return &entity.PlanPurchase{
		ID:                   data.ID,
		SubscriberID:         data.SubscriberID,
		PlanName:             data.PlanName,
		PolicyNumber:         data.PolicyNumber,
		Status:               entity.PlanPurchaseStatus(data.Status),
		MandatoryMemberCount: data.MandatoryMemberCount,
		RelationSlots:        slots,
		BenefitsSummary:      data.BenefitsSummary,
		EmergencyContact:     entity.EmergencyContact{Name: contact.Name, Phone: contact.Phone},
		PurchasedAt:          data.PurchasedAt,
		ExpiresAt:            data.ExpiresAt,
	}
}

// FromPlanPurchaseDomain converts a domain PlanPurchase to its GORM model.
// The purchase flow and test fixtures use it to seed rows.
func FromPlanPurchaseDomain(data *entity.PlanPurchase) *model.PlanPurchaseModel {
	if data == nil {
		return nil
	}

	slots := make(datatypes.JSONSlice[string], 0, len(data.RelationSlots))
	for _, slot := range data.RelationSlots {
		slots = append(slots, string(slot))
	}

	return &model.PlanPurchaseModel{
		ID:                   data.ID,
		SubscriberID:         data.SubscriberID,
		PlanName:             data.PlanName,
		PolicyNumber:         data.PolicyNumber,
		Status:               string(data.Status),
		MandatoryMemberCount: data.MandatoryMemberCount,
		RelationSlots:        slots,
		BenefitsSummary:      data.BenefitsSummary,
		EmergencyContact: datatypes.NewJSONType(model.EmergencyContactData{
			Name:  data.EmergencyContact.Name,
			Phone: data.EmergencyContact.Phone,
		}),
		PurchasedAt: data.PurchasedAt,
		ExpiresAt:   data.ExpiresAt,
	}
}
