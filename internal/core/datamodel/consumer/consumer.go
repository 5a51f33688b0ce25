package consumer

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceConsumer links a resident to a billing account.
type ServiceConsumer struct {
	ID                            string         `gorm:"primaryKey;type:uuid"`
	UserID                        string         `gorm:"column:user_id;not null"`
	ResidentID                    string         `gorm:"column:resident_id"`
	AccountNumber                 string         `gorm:"column:account_number"`
	BillingIntegrationContextID   *string        `gorm:"column:billing_integration_context_id"`
	AcquiringIntegrationContextID *string        `gorm:"column:acquiring_integration_context_id"`
	CreatedAt                     time.Time      `gorm:"column:created_at"`
	UpdatedAt                     time.Time      `gorm:"column:updated_at"`
	DeletedAt                     gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (ServiceConsumer) TableName() string {
	return "service_consumers"
}

func (c *ServiceConsumer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *ServiceConsumer) IsDeleted() bool {
	return c.DeletedAt.Valid
}

func (c *ServiceConsumer) HasAccountNumber() bool {
	return strings.TrimSpace(c.AccountNumber) != ""
}

// AcquiringIntegrationContext holds where the consumer's payments are acquired.
type AcquiringIntegrationContext struct {
	ID        string         `gorm:"primaryKey;type:uuid"`
	HostURL   string         `gorm:"column:host_url;not null"`
	Enabled   bool           `gorm:"column:enabled;not null;default:false"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (AcquiringIntegrationContext) TableName() string {
	return "acquiring_integration_contexts"
}

func (c *AcquiringIntegrationContext) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
