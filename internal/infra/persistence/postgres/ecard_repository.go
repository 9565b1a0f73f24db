package postgres

import (
	"context"
	"time"

	"enrollment/internal/domain/entity"
	domainerrors "enrollment/internal/domain/errors"
	"enrollment/internal/domain/repository"
	"enrollment/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// ecardRepository implements the repository.ECardRepository interface.
type ecardRepository struct {
	db *gorm.DB
}

// NewECardRepository is the constructor for ecardRepository.
func NewECardRepository(db *gorm.DB) repository.ECardRepository {
	return &ecardRepository{
		db: db,
	}
}

// CreateCard persists a new pending card.
func (repo *ecardRepository) CreateCard(ctx context.Context, card *entity.ECard) error {
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	cardM := fromECardDomain(card)

	if err := repo.db.WithContext(ctx).Create(cardM).Error; err != nil {
		// member_id is the only unique column a legitimate insert can collide on
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateCard
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create card")
	}

	card.CreatedAt = cardM.CreatedAt
	card.UpdatedAt = cardM.UpdatedAt

	return nil
}

// FindCardByID retrieves a card by its unique ID.
func (repo *ecardRepository) FindCardByID(ctx context.Context, id uuid.UUID) (*entity.ECard, error) {
	return repo.findOne(ctx, "id = ?", id)
}

// FindCardByMemberID retrieves the card issued to a member.
func (repo *ecardRepository) FindCardByMemberID(ctx context.Context, memberID uuid.UUID) (*entity.ECard, error) {
	return repo.findOne(ctx, "member_id = ?", memberID)
}

// ActivateCard moves a pending card to active.
func (repo *ecardRepository) ActivateCard(ctx context.Context, id uuid.UUID, activatedAt time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ECardModel{}).
		Where("id = ? AND status = ?", id, string(entity.ECardStatusPending)).
		Updates(map[string]any{
			"status":       string(entity.ECardStatusActive),
			"activated_at": activatedAt,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to activate card")
	}

	if result.RowsAffected > 0 {
		return nil
	}

	if _, err := repo.FindCardByID(ctx, id); err != nil {
		return err
	}

	return repository.ErrCardAlreadyActive
}

func (repo *ecardRepository) findOne(ctx context.Context, query string, arg uuid.UUID) (*entity.ECard, error) {
	var cardM model.ECardModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where(query, arg).
		First(&cardM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCardNotFound
		}

		return nil, errors.Wrap(err, "failed to find card")
	}

	return toECardDomain(&cardM), nil
}

// --- Mapper Functions ---

// toECardDomain converts a GORM ECardModel to a domain ECard entity.
func toECardDomain(data *model.ECardModel) *entity.ECard {
	if data == nil {
		return nil
	}

	snapshot := data.Snapshot.Data()

	return &entity.ECard{
		ID:             data.ID,
		MemberID:       data.MemberID,
		PlanPurchaseID: data.PlanPurchaseID,
		Status:         entity.ECardStatus(data.Status),
		CardUniqueID:   data.CardUniqueID,
		IssuedAt:       data.IssuedAt,
		ValidFrom:      data.ValidFrom,
		ValidTill:      data.ValidTill,
		ActivatedAt:    data.ActivatedAt,
		Snapshot: entity.CardSnapshot{
			FullName:        snapshot.FullName,
			RelationSlot:    entity.RelationSlot(snapshot.RelationSlot),
			DateOfBirth:     snapshot.DateOfBirth,
			Gender:          snapshot.Gender,
			BloodGroup:      snapshot.BloodGroup,
			PlanName:        snapshot.PlanName,
			PolicyNumber:    snapshot.PolicyNumber,
			BenefitsSummary: snapshot.BenefitsSummary,
			EmergencyContact: entity.EmergencyContact{
				Name:  snapshot.EmergencyContact.Name,
				Phone: snapshot.EmergencyContact.Phone,
			},
		},
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

// fromECardDomain converts a domain ECard entity to a GORM ECardModel.
func fromECardDomain(data *entity.ECard) *model.ECardModel {
	if data == nil {
		return nil
	}

	return &model.ECardModel{
		ID:             data.ID,
		MemberID:       data.MemberID,
		PlanPurchaseID: data.PlanPurchaseID,
		Status:         string(data.Status),
		CardUniqueID:   data.CardUniqueID,
		IssuedAt:       data.IssuedAt,
		ValidFrom:      data.ValidFrom,
		ValidTill:      data.ValidTill,
		ActivatedAt:    data.ActivatedAt,
		Snapshot: datatypes.NewJSONType(model.CardSnapshotData{
			FullName:        data.Snapshot.FullName,
			RelationSlot:    string(data.Snapshot.RelationSlot),
			DateOfBirth:     data.Snapshot.DateOfBirth,
			Gender:          data.Snapshot.Gender,
			BloodGroup:      data.Snapshot.BloodGroup,
			PlanName:        data.Snapshot.PlanName,
			PolicyNumber:    data.Snapshot.PolicyNumber,
			BenefitsSummary: data.Snapshot.BenefitsSummary,
			EmergencyContact: model.EmergencyContactData{
				Name:  data.Snapshot.EmergencyContact.Name,
				Phone: data.Snapshot.EmergencyContact.Phone,
			},
		}),
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
