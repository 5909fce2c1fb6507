package tracking

import (
	"context"
	"errors"
	"fmt"

	"github.com/SafeTrack/ST-Backend/internal/db"
	"github.com/SafeTrack/ST-Backend/internal/notify"
	"gorm.io/gorm"
)

// gormDirectory resolves devices and recipients against the family schema.
// The queries go through raw SQL so this package stays decoupled from the
// family package's model types.
type gormDirectory struct{}

func (gormDirectory) FindActiveChildByDevice(ctx context.Context, deviceID string) (*Subject, error) {
	var row struct {
		ID   uint
		Name string
	}
	res := db.DB.WithContext(ctx).Raw(`
		SELECT id, first_name || ' ' || last_name AS name
		FROM family.children
		WHERE device_id = ? AND status = 'active'
		ORDER BY id
		LIMIT 1
	`, deviceID).Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("device lookup query failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &Subject{ID: row.ID, Name: row.Name}, nil
}

func (gormDirectory) ChildRecipients(ctx context.Context, childID uint) ([]notify.Recipient, error) {
	rows, err := db.DB.WithContext(ctx).Raw(`
		SELECT u.id, u.phone FROM family.users u
		JOIN family.parent_child pc ON u.id = pc.parent_id
		WHERE pc.child_id = ? AND u.status = 'active'
		UNION
		SELECT u.id, u.phone FROM family.users u
		JOIN family.teacher_child tc ON u.id = tc.teacher_id
		WHERE tc.child_id = ? AND u.status = 'active'
	`, childID, childID).Rows()
	if err != nil {
		return nil, fmt.Errorf("recipients query failed: %w", err)
	}
	defer rows.Close()

	var recipients []notify.Recipient
	for rows.Next() {
		var r notify.Recipient
		if err := rows.Scan(&r.UserID, &r.Phone); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

type gormGeofenceStore struct{}

// ActiveGeofence returns at most one fence: the lowest-id active row. The
// system is deliberately single-zone; additional active rows are ignored.
func (gormGeofenceStore) ActiveGeofence(ctx context.Context) (*Geofence, error) {
	var fence Geofence
	err := db.DB.WithContext(ctx).
		Where("status = ?", "active").
		Order("id").
		First(&fence).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("geofence query failed: %w", err)
	}
	return &fence, nil
}

type gormLocationStore struct{}

func (gormLocationStore) LatestSample(ctx context.Context, childID uint) (*LocationSample, error) {
	var sample LocationSample
	err := db.DB.WithContext(ctx).
		Where("child_id = ?", childID).
		Order("timestamp DESC, id DESC").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest sample query failed: %w", err)
	}
	return &sample, nil
}

func (gormLocationStore) AppendReport(ctx context.Context, sample *LocationSample, alerts []Alert) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sample).Error; err != nil {
			return fmt.Errorf("insert sample: %w", err)
		}
		for i := range alerts {
			alerts[i].ChildID = sample.ChildID
			if err := tx.Create(&alerts[i]).Error; err != nil {
				return fmt.Errorf("insert alert: %w", err)
			}
		}
		return nil
	})
}
