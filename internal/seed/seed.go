package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	consultationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/consultation/domain"
	invitationdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/domain"
	userdomain "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/user/domain"
)

const (
	devPractitionerEmail = "practitioner@hcwhome.local"
	devPatientEmail      = "user@example.com"
)

// EnsureDevData seeds a practitioner, a patient, one upcoming
// consultation and its issued invitation so a fresh environment is
// usable immediately. Production never calls this.
func EnsureDevData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		practitioner, err := ensureUser(ctx, tx, node, devPractitionerEmail, "Gaelle", "Martin", userdomain.RolePractitioner)
		if err != nil {
			return err
		}
		if _, err := ensureUser(ctx, tx, node, devPatientEmail, "Jean", "Dupont", userdomain.RolePatient); err != nil {
			return err
		}

		consultation, err := ensureConsultation(ctx, tx, node, practitioner.ID)
		if err != nil {
			return err
		}

		return ensureInvitation(ctx, tx, node, consultation.ID)
	})
}

func ensureUser(ctx context.Context, tx *gorm.DB, node *snowflake.Node, email, firstName, lastName string, role userdomain.Role) (*userdomain.User, error) {
	var user userdomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user = userdomain.User{
		ID:        node.Generate(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func ensureConsultation(ctx context.Context, tx *gorm.DB, node *snowflake.Node, practitionerID snowflake.ID) (*consultationdomain.Consultation, error) {
	var consultation consultationdomain.Consultation
	err := tx.WithContext(ctx).
		Where("practitioner_id = ? AND status = ?", practitionerID, consultationdomain.StatusScheduled).
		First(&consultation).Error
	if err == nil {
		return &consultation, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	consultation = consultationdomain.Consultation{
		ID:             node.Generate(),
		PractitionerID: practitionerID,
		PatientEmail:   devPatientEmail,
		Status:         consultationdomain.StatusScheduled,
		ScheduledAt:    now.Add(24 * time.Hour),
		EndsAt:         now.Add(24*time.Hour + 30*time.Minute),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.WithContext(ctx).Create(&consultation).Error; err != nil {
		return nil, err
	}
	return &consultation, nil
}

func ensureInvitation(ctx context.Context, tx *gorm.DB, node *snowflake.Node, consultationID snowflake.ID) error {
	var invitation invitationdomain.Invitation
	err := tx.WithContext(ctx).Where("consultation_id = ?", consultationID).First(&invitation).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	invitation = invitationdomain.Invitation{
		ID:             node.Generate(),
		ConsultationID: consultationID,
		Token:          uuid.NewString(),
		Status:         invitationdomain.StatusIssued,
		Metadata:       datatypes.JSONMap{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return tx.WithContext(ctx).Create(&invitation).Error
}
