package repository

import (
	"context"
	"strings"

	"github.com/example/freshgrocers/pkg/models"
	"gorm.io/gorm"
)

type StaffFilter struct {
	Role   models.StaffRole
	Status models.StaffStatus
	Search string
}

type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) Create(ctx context.Context, s *models.Staff) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *StaffRepository) Save(ctx context.Context, s *models.Staff) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *StaffRepository) Get(ctx context.Context, staffID string) (*models.Staff, error) {
	var s models.Staff
	if err := r.db.WithContext(ctx).Where("staff_id = ?", staffID).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	var s models.Staff
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *StaffRepository) Exists(ctx context.Context, staffID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Staff{}).Where("staff_id = ?", staffID).Count(&n).Error
	return n > 0, err
}

func (r *StaffRepository) CountByRole(ctx context.Context, role models.StaffRole) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Staff{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

func (r *StaffRepository) List(ctx context.Context, filter StaffFilter) ([]models.Staff, error) {
	query := r.db.WithContext(ctx).Model(&models.Staff{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(staff_id) LIKE ?", like, like, like)
	}

	var staff []models.Staff
	if err := query.Order("staff_id").Find(&staff).Error; err != nil {
		return nil, err
	}
	return staff, nil
}

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *models.StaffApplication) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApplicationRepository) Save(ctx context.Context, a *models.StaffApplication) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *ApplicationRepository) Get(ctx context.Context, id string) (*models.StaffApplication, error) {
	var a models.StaffApplication
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *ApplicationRepository) FindPendingByEmail(ctx context.Context, email string) (*models.StaffApplication, error) {
	var a models.StaffApplication
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ? AND status = ?", strings.ToLower(email), models.ApplicationPending).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *ApplicationRepository) List(ctx context.Context, status models.ApplicationStatus) ([]models.StaffApplication, error) {
	query := r.db.WithContext(ctx).Model(&models.StaffApplication{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var apps []models.StaffApplication
	if err := query.Order("submitted_at").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// Approve stores the new staff account and the reviewed application together.
func (r *ApplicationRepository) Approve(ctx context.Context, a *models.StaffApplication, s *models.Staff) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		return tx.Save(a).Error
	})
}

func (r *StaffRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Staff{}).Count(&n).Error
	return n, err
}
