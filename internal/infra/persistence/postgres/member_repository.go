// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
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
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// memberRepository implements the repository.MemberRepository interface.
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository is the constructor for memberRepository.
func NewMemberRepository(db *gorm.DB) repository.MemberRepository {
	return &memberRepository{
		db: db,
	}
}

// CreateMember persists a new empty member.
func (repo *memberRepository) CreateMember(ctx context.Context, member *entity.Member) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	memberM := fromMemberDomain(member)

	if err := repo.db.WithContext(ctx).Create(memberM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateSlot
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create member")
	}

	member.CreatedAt = memberM.CreatedAt
	member.UpdatedAt = memberM.UpdatedAt

	return nil
}

// FindMemberByID retrieves a member by its unique ID.
func (repo *memberRepository) FindMemberByID(ctx context.Context, id uuid.UUID) (*entity.Member, error) {
	var memberM model.MemberModel

	// Lock state must be read from the primary, never from a lagging replica.
	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("id = ?", id).
		First(&memberM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMemberNotFound
		}

		return nil, errors.Wrap(err, "failed to find member by ID")
	}

	return toMemberDomain(&memberM)
}

// FindMembersByPlanPurchase retrieves all members of a plan purchase.
func (repo *memberRepository) FindMembersByPlanPurchase(ctx context.Context, planPurchaseID uuid.UUID) ([]*entity.Member, error) {
	var memberModels []*model.MemberModel

	if err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("plan_purchase_id = ?", planPurchaseID).
		Order("relation_slot ASC").
		Find(&memberModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find members by plan purchase")
	}

	members := make([]*entity.Member, 0, len(memberModels))
	for _, memberM := range memberModels {
		member, err := toMemberDomain(memberM)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	return members, nil
}

// SaveDraft writes the given fields and moves the member to draft while it is not locked.
func (repo *memberRepository) SaveDraft(ctx context.Context, member *entity.Member, fields []entity.FieldName) error {
	updates := memberColumns(fromMemberDomain(member), fields)
	updates["lock_state"] = string(entity.LockStateDraft)

	result := repo.db.WithContext(ctx).
		Model(&model.MemberModel{}).
		Where("id = ? AND lock_state <> ?", member.ID, string(entity.LockStateLocked)).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to save member draft")
	}

	if result.RowsAffected == 0 {
		return repo.lockConflict(ctx, member.ID)
	}

	return nil
}

// UpdateOptionalFields writes the given fields without touching the lock state.
func (repo *memberRepository) UpdateOptionalFields(ctx context.Context, member *entity.Member, fields []entity.FieldName) error {
	updates := memberColumns(fromMemberDomain(member), fields)
	if len(updates) == 0 {
		return nil
	}

	result := repo.db.WithContext(ctx).
		Model(&model.MemberModel{}).
		Where("id = ?", member.ID).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update member fields")
	}

	if result.RowsAffected == 0 {
		return repository.ErrMemberNotFound
	}

	return nil
}

// LockMember writes every field and locks the member. The WHERE clause makes
// this a compare-and-swap: only one of several concurrent callers matches.
func (repo *memberRepository) LockMember(ctx context.Context, member *entity.Member, lockedAt time.Time) error {
	updates := memberColumns(fromMemberDomain(member), entity.AllFields)
	updates["lock_state"] = string(entity.LockStateLocked)
	updates["locked_at"] = lockedAt

	result := repo.db.WithContext(ctx).
		Model(&model.MemberModel{}).
		Where("id = ? AND lock_state <> ?", member.ID, string(entity.LockStateLocked)).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to lock member")
	}

	if result.RowsAffected == 0 {
		return repo.lockConflict(ctx, member.ID)
	}

	return nil
}

// AttachCard sets card_id on a locked member that has none yet.
func (repo *memberRepository) AttachCard(ctx context.Context, memberID, cardID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.MemberModel{}).
		Where("id = ? AND card_id IS NULL AND lock_state = ?", memberID, string(entity.LockStateLocked)).
		Update("card_id", cardID)
	if result.Error != nil {
		if isUniqueConstraintViolation(result.Error) {
			return repository.ErrCardAlreadyAttached
		}

		return errors.Wrap(result.Error, "failed to attach card to member")
	}

	if result.RowsAffected > 0 {
		return nil
	}

	current, err := repo.FindMemberByID(ctx, memberID)
	if err != nil {
		return err
	}
	if current.HasCard() {
		return repository.ErrCardAlreadyAttached
	}

	return repository.ErrMemberNotLocked
}

// lockConflict explains why a conditional member update matched no row.
func (repo *memberRepository) lockConflict(ctx context.Context, id uuid.UUID) error {
	if _, err := repo.FindMemberByID(ctx, id); err != nil {
		return err
	}

	return repository.ErrMemberLocked
}

// memberColumns maps field names to column updates taken from data.
func memberColumns(data *model.MemberModel, fields []entity.FieldName) map[string]any {
	updates := make(map[string]any, len(fields)+2)
	for _, field := range fields {
		switch field {
		case entity.FieldFullName:
			updates["full_name"] = data.FullName
		case entity.FieldDateOfBirth:
			updates["date_of_birth"] = data.DateOfBirth
		case entity.FieldGender:
			updates["gender"] = data.Gender
		case entity.FieldBloodGroup:
			updates["blood_group"] = data.BloodGroup
		case entity.FieldMobile:
			updates["mobile"] = data.Mobile
		case entity.FieldEmail:
			updates["email"] = data.Email
		case entity.FieldHeightCm:
			updates["height_cm"] = data.HeightCm
		case entity.FieldWeightKg:
			updates["weight_kg"] = data.WeightKg
		case entity.FieldNationalIDA:
			updates["national_id_a"] = data.NationalIDA
		case entity.FieldNationalIDB:
			updates["national_id_b"] = data.NationalIDB
		case entity.FieldAddress:
			updates["address"] = data.Address
		case entity.FieldCity:
			updates["city"] = data.City
		case entity.FieldRegion:
			updates["region"] = data.Region
		case entity.FieldPostalCode:
			updates["postal_code"] = data.PostalCode
		}
	}

	return updates
}

// --- Mapper Functions ---

// toMemberDomain converts a GORM MemberModel to a domain Member entity.
func toMemberDomain(data *model.MemberModel) (*entity.Member, error) {
	if data == nil {
		return nil, nil
	}

	member := &entity.Member{
		ID:             data.ID,
		PlanPurchaseID: data.PlanPurchaseID,
		RelationSlot:   entity.RelationSlot(data.RelationSlot),
		FullName:       data.FullName,
		Gender:         data.Gender,
		BloodGroup:     data.BloodGroup,
		Mobile:         data.Mobile,
		Email:          data.Email,
		HeightCm:       data.HeightCm,
		WeightKg:       data.WeightKg,
		NationalIDA:    data.NationalIDA,
		NationalIDB:    data.NationalIDB,
		Address:        data.Address,
		City:           data.City,
		Region:         data.Region,
		PostalCode:     data.PostalCode,
		LockState:      entity.LockState(data.LockState),
		CardID:         data.CardID,
		LockedAt:       data.LockedAt,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
	if data.DateOfBirth != nil {
		if err := member.Set(entity.FieldDateOfBirth, *data.DateOfBirth); err != nil {
			return nil, errors.Wrapf(err, "member %s", data.ID)
		}
	}

	return member, nil
}

// fromMemberDomain converts a domain Member entity to a GORM MemberModel.
func fromMemberDomain(data *entity.Member) *model.MemberModel {
	if data == nil {
		return nil
	}

	memberM := &model.MemberModel{
		ID:             data.ID,
		PlanPurchaseID: data.PlanPurchaseID,
		RelationSlot:   string(data.RelationSlot),
		FullName:       data.FullName,
		Gender:         data.Gender,
		BloodGroup:     data.BloodGroup,
		Mobile:         data.Mobile,
		Email:          data.Email,
		HeightCm:       data.HeightCm,
		WeightKg:       data.WeightKg,
		NationalIDA:    data.NationalIDA,
		NationalIDB:    data.NationalIDB,
		Address:        data.Address,
		City:           data.City,
		Region:         data.Region,
		PostalCode:     data.PostalCode,
		LockState:      string(data.LockState),
		CardID:         data.CardID,
		LockedAt:       data.LockedAt,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
	if memberM.LockState == "" {
		memberM.LockState = string(entity.LockStateEmpty)
	}
	if data.DateOfBirth != nil {
		dob := data.DateOfBirth.Format(entity.DateLayout)
		memberM.DateOfBirth = &dob
	}

	return memberM
}
