package repository

import (
	"context"
	"time"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/invitation/domain"
	"github.com/Vaibhavsahu2810/hcw-home-sub001/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invitation *domain.Invitation) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invitations (id, consultation_id, token, status, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		invitation.ID,
		invitation.ConsultationID,
		invitation.Token,
		invitation.Status,
		invitation.Metadata,
		invitation.CreatedAt,
		invitation.UpdatedAt,
	).Error
}

func (r *repo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := db.WithContext(ctx).Raw(
		`SELECT id, consultation_id, token, status, camera_test, microphone_test, speaker_test,
		        acknowledged_at, device_tested_at, accepted_at, metadata, created_at, updated_at
		 FROM invitations WHERE token = ?`,
		token,
	).Scan(&invitation).Error
	if err != nil {
		return nil, err
	}
	if invitation.ID == 0 {
		return nil, nil
	}
	return &invitation, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := db.WithContext(ctx).Raw(
		`SELECT id, consultation_id, token, status, camera_test, microphone_test, speaker_test,
		        acknowledged_at, device_tested_at, accepted_at, metadata, created_at, updated_at
		 FROM invitations WHERE id = ?`,
		id,
	).Scan(&invitation).Error
	if err != nil {
		return nil, err
	}
	if invitation.ID == 0 {
		return nil, nil
	}
	return &invitation, nil
}

// MarkAcknowledged only fires while the invitation is still issued, so a
// replayed acknowledge is a no-op at the store level.
func (r *repo) MarkAcknowledged(ctx context.Context, db *gorm.DB, token string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, acknowledged_at = ?, updated_at = ?
		 WHERE token = ? AND status = ?`,
		domain.StatusAcknowledged, at, at, token, domain.StatusIssued,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) MarkDeviceTestedAndAccepted(ctx context.Context, db *gorm.DB, token string, results domain.DeviceTestRequest, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invitations
		 SET status = ?, camera_test = ?, microphone_test = ?, speaker_test = ?,
		     device_tested_at = ?, accepted_at = ?, updated_at = ?
		 WHERE token = ? AND status <> ?`,
		domain.StatusAccepted,
		results.CameraTest, results.MicrophoneTest, results.SpeakerTest,
		at, at, at,
		token, domain.StatusAccepted,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) MarkAccepted(ctx context.Context, db *gorm.DB, token string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, accepted_at = ?, updated_at = ?
		 WHERE token = ? AND status <> ?`,
		domain.StatusAccepted, at, at, token, domain.StatusAccepted,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListInvitationFilter, page pagination.Pagination) ([]*domain.Invitation, error) {
	var invitations []*domain.Invitation
	stmt := db.WithContext(ctx).Model(&domain.Invitation{})
	if filter.ConsultationID != "" {
		if id, err := snowflake.ParseString(filter.ConsultationID); err == nil {
			stmt = stmt.Where("consultation_id = ?", id)
		}
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	stmt = pagination.Apply(stmt, page)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}
