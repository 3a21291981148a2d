package services

import (
	"context"

	"greened-backend/models"

	"gorm.io/gorm"
)

const DefaultOpportunityLimit = 20

type OpportunityFilter struct {
	Type     string
	Category string
	Limit    int
}

type OpportunityService struct {
	DB *gorm.DB
}

func NewOpportunityService(db *gorm.DB) *OpportunityService {
	return &OpportunityService{DB: db}
}

// List returns active opportunities matching the filter, soonest deadline first.
func (s *OpportunityService) List(ctx context.Context, f OpportunityFilter) ([]models.Opportunity, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultOpportunityLimit
	}
	if limit > 100 {
		limit = 100
	}
	q := s.DB.WithContext(ctx).Where("is_active = ?", true)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	var rows []models.Opportunity
	err := q.Order("deadline ASC").Order("created_at ASC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (s *OpportunityService) Get(ctx context.Context, id string) (*models.Opportunity, error) {
	return findByID[models.Opportunity](s.DB.WithContext(ctx), id, "opportunity")
}

// ExpireOpportunities deactivates listings whose deadline day is before today (YYYY-MM-DD).
func (s *OpportunityService) ExpireOpportunities(ctx context.Context, today string) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Opportunity{}).
		Where("is_active = ? AND deadline <> '' AND deadline < ?", true, today).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
