package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/cyberdyne10/huntress/internal/domain"
)

type CRMRepository struct {
	db *gorm.DB
}

func (r *CRMRepository) CRMSyncStatus(ctx context.Context) (domain.CRMSyncStatus, error) {
	status := domain.CRMSyncStatus{
		State:    domain.CRMSyncIdle,
		ByStatus: map[string]int64{},
	}

	var groups []struct {
		Status string
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&crmRecordStateModel{}).
		Select("status, count(*) AS total").
		Group("status").
		Scan(&groups).Error; err != nil {
		return domain.CRMSyncStatus{}, err
	}
	for _, g := range groups {
		status.ByStatus[g.Status] = g.Total
		status.TrackedRecords += g.Total
	}

	var last webhookEventModel
	err := r.db.WithContext(ctx).Order("received_at DESC").Take(&last).Error
	switch {
	case isNotFound(err):
		return status, nil
	case err != nil:
		return domain.CRMSyncStatus{}, err
	}
	at := last.ReceivedAt.UTC()
	status.State = domain.CRMSyncActive
	status.LastEventAt = &at
	status.LastEventID = last.EventID
	return status, nil
}

func (r *CRMRepository) GetRecordState(ctx context.Context, recordID string) (domain.CRMRecordState, error) {
	var row crmRecordStateModel
	if err := r.db.WithContext(ctx).Where("record_id = ?", recordID).Take(&row).Error; err != nil {
		if isNotFound(err) {
			return domain.CRMRecordState{}, domain.ErrNotFound
		}
		return domain.CRMRecordState{}, err
	}
	return toDomainRecordState(row), nil
}
