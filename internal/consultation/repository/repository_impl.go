package repository

import (
	"context"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/consultation/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Consultation, error) {
	var consultation domain.Consultation
	err := db.WithContext(ctx).Raw(
		`SELECT id, practitioner_id, patient_email, patient_phone, status, scheduled_at, ends_at, created_at, updated_at
		 FROM consultations WHERE id = ?`,
		id,
	).Scan(&consultation).Error
	if err != nil {
		return nil, err
	}
	if consultation.ID == 0 {
		return nil, nil
	}
	return &consultation, nil
}
