package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/melody-api/internal/models"
	"gorm.io/gorm"
)

const maxCompositionPageSize = 100

var (
	// ErrCompositionNotFound is returned when no composition has the slug
	ErrCompositionNotFound = errors.New("composition not found")
	// ErrPersistenceDisabled is returned when no database is configured
	ErrPersistenceDisabled = errors.New("composition storage is not configured")
)

// CompositionStore saves and looks up generated melodies
type CompositionStore interface {
	Create(ctx context.Context, c *models.Composition) error
	GetBySlug(ctx context.Context, slug string) (*models.Composition, error)
	List(ctx context.Context, limit, offset int) ([]models.Composition, int64, error)
}

// CompositionService stores compositions in PostgreSQL through gorm
type CompositionService struct {
	db    *gorm.DB
	slugs *SlugCodec
}

func NewCompositionService(db *gorm.DB, slugs *SlugCodec) *CompositionService {
	return &CompositionService{db: db, slugs: slugs}
}

// Create inserts c and assigns its slug
func (s *CompositionService) Create(ctx context.Context, c *models.Composition) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to insert composition: %w", err)
		}
		slug, err := s.slugs.Encode(c.ID)
		if err != nil {
			return err
		}
		if err := tx.Model(c).Update("slug", slug).Error; err != nil {
			return fmt.Errorf("failed to set composition slug: %w", err)
		}
		c.Slug = slug
		return nil
	})
}

// GetBySlug loads one composition. Unknown and malformed slugs both
// return ErrCompositionNotFound.
func (s *CompositionService) GetBySlug(ctx context.Context, slug string) (*models.Composition, error) {
	id, err := s.slugs.Decode(slug)
	if err != nil {
		return nil, ErrCompositionNotFound
	}

	var c models.Composition
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompositionNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns the newest compositions first, plus the total count
func (s *CompositionService) List(ctx context.Context, limit, offset int) ([]models.Composition, int64, error) {
	limit, offset = clampPage(limit, offset)

	db := s.db.WithContext(ctx).Model(&models.Composition{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var compositions []models.Composition
	if err := db.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&compositions).Error; err != nil {
		return nil, 0, err
	}
	return compositions, total, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxCompositionPageSize {
		limit = maxCompositionPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
