package domain

import (
	"context"
	"time"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists invitations. Transition writes are conditional
// UPDATEs returning the affected row count, so concurrent calls on one
// token stay idempotent-or-monotonic without this core holding a lock.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invitation *Invitation) error
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*Invitation, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invitation, error)
	MarkAcknowledged(ctx context.Context, db *gorm.DB, token string, at time.Time) (int64, error)
	MarkDeviceTestedAndAccepted(ctx context.Context, db *gorm.DB, token string, results DeviceTestRequest, at time.Time) (int64, error)
	MarkAccepted(ctx context.Context, db *gorm.DB, token string, at time.Time) (int64, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvitationFilter, page pagination.Pagination) ([]*Invitation, error)
}
