package stripewebhook

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgdb "github.com/nino-0813/honma-ec-sub000/pkg/db"
	"github.com/nino-0813/honma-ec-sub000/pkg/db/models"
)

// Ledger records processed webhook event ids. The primary key on event_id is
// the at-most-once guard: the insert either lands, or fails uniqueness and
// tells the caller this delivery is a redelivery. Rows are never updated or
// read back, so no TTL or cleanup is required for correctness.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("db handle is required")
	}
	return &Ledger{db: db}, nil
}

// Record inserts the event id. Returns duplicate=true when the id was
// already recorded by an earlier delivery.
func (l *Ledger) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	err := l.db.WithContext(ctx).Create(&models.WebhookEvent{
		EventID:   eventID,
		EventType: eventType,
	}).Error
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
