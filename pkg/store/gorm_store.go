package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"edureview/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &ReviewOutcomeModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser inserts or replaces a user record.
func (s *GormStore) SaveUser(user domain.User) error {
	model := userToModel(user)
	return s.db.Save(&model).Error
}

// GetUserByID fetches a user by primary key.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	err := s.db.First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByEmail fetches a user by unique email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	err := s.db.First(&model, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// HasUserEmail checks whether an email is already registered.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateUser applies a partial update in one statement so fields are never
// half-applied.
func (s *GormStore) UpdateUser(id string, update UserUpdate) (domain.User, bool, error) {
	fields := map[string]any{}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.FullName != nil {
		fields["full_name"] = *update.FullName
	}
	if update.Role != nil {
		fields["role"] = string(*update.Role)
	}
	if update.Active != nil {
		fields["active"] = *update.Active
	}
	if len(fields) > 0 {
		fields["updated_at"] = time.Now().UTC()
		res := s.db.Model(&UserModel{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return domain.User{}, false, res.Error
		}
		if res.RowsAffected == 0 {
			return domain.User{}, false, nil
		}
	}
	return s.GetUserByID(id)
}

// ListUsers returns all users ordered by creation time.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at asc").Find(&models).Error; err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(models))
	for _, model := range models {
		users = append(users, userFromModel(model))
	}
	return users, nil
}

// SaveReviewOutcome inserts or replaces a review outcome with its findings
// serialized as JSONB.
func (s *GormStore) SaveReviewOutcome(outcome domain.ReviewOutcome) error {
	model, err := outcomeToModel(outcome)
	if err != nil {
		return err
	}
	return s.db.Save(&model).Error
}

// GetReviewOutcome fetches a stored outcome by id.
func (s *GormStore) GetReviewOutcome(id string) (domain.ReviewOutcome, bool, error) {
	var model ReviewOutcomeModel
	err := s.db.First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ReviewOutcome{}, false, nil
	}
	if err != nil {
		return domain.ReviewOutcome{}, false, err
	}
	return outcomeFromModel(model)
}

func userToModel(user domain.User) UserModel {
	return UserModel{
		ID:           user.ID,
		Email:        user.Email,
		FullName:     user.FullName,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Active:       user.Active,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func userFromModel(model UserModel) domain.User {
	return domain.User{
		ID:           model.ID,
		Email:        model.Email,
		FullName:     model.FullName,
		PasswordHash: model.PasswordHash,
		Role:         domain.UserRole(model.Role),
		Active:       model.Active,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func outcomeToModel(outcome domain.ReviewOutcome) (ReviewOutcomeModel, error) {
	findings, err := json.Marshal(outcome.Findings)
	if err != nil {
		return ReviewOutcomeModel{}, fmt.Errorf("marshal findings: %w", err)
	}
	recommendations, err := json.Marshal(outcome.Recommendations)
	if err != nil {
		return ReviewOutcomeModel{}, fmt.Errorf("marshal recommendations: %w", err)
	}
	return ReviewOutcomeModel{
		ID:              outcome.ID,
		ContentID:       outcome.ContentID,
		Category:        string(outcome.Category),
		Status:          string(outcome.Status),
		Findings:        datatypes.JSON(findings),
		Summary:         outcome.Summary,
		Recommendations: datatypes.JSON(recommendations),
		QualityScore:    outcome.QualityScore,
		CreatedAt:       outcome.CreatedAt,
		CompletedAt:     outcome.CompletedAt,
	}, nil
}

func outcomeFromModel(model ReviewOutcomeModel) (domain.ReviewOutcome, bool, error) {
	outcome := domain.ReviewOutcome{
		ID:           model.ID,
		ContentID:    model.ContentID,
		Category:     domain.ReviewCategory(model.Category),
		Status:       domain.ReviewStatus(model.Status),
		Summary:      model.Summary,
		QualityScore: model.QualityScore,
		CreatedAt:    model.CreatedAt,
		CompletedAt:  model.CompletedAt,
	}
	if len(model.Findings) > 0 {
		if err := json.Unmarshal(model.Findings, &outcome.Findings); err != nil {
			return domain.ReviewOutcome{}, false, fmt.Errorf("unmarshal findings: %w", err)
		}
	}
	if len(model.Recommendations) > 0 {
		if err := json.Unmarshal(model.Recommendations, &outcome.Recommendations); err != nil {
			return domain.ReviewOutcome{}, false, fmt.Errorf("unmarshal recommendations: %w", err)
		}
	}
	return outcome, true, nil
}
