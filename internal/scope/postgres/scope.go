package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/hr-portal/internal/core/datamodel/portal"
	"github.com/frahmantamala/hr-portal/internal/scope"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScopeRepository struct {
	db *gorm.DB
}

func NewScopeRepository(db *gorm.DB) scope.Store {
	return &ScopeRepository{db: db}
}

func (r *ScopeRepository) Last(ctx context.Context, clientID string) (int64, bool, error) {
	var row portal.DepartmentScope
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read department scope: %w", err)
	}
	return row.DepartmentID, true, nil
}

func (r *ScopeRepository) Remember(ctx context.Context, clientID string, departmentID int64) error {
	row := &portal.DepartmentScope{ClientID: clientID, DepartmentID: departmentID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"department_id", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to save department scope: %w", err)
	}
	return nil
}
