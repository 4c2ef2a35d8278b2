package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var rolePrefixes = map[models.StaffRole]string{
	models.StaffRoleAdmin:       "ADM",
	models.StaffRoleManager:     "MGR",
	models.StaffRoleStaff:       "STF",
	models.StaffRoleCashier:     "CSH",
	models.StaffRoleStockkeeper: "STK",
	models.StaffRoleDelivery:    "DEL",
	models.StaffRoleSupervisor:  "SUP",
}

func rolePrefix(role models.StaffRole) string {
	if p, ok := rolePrefixes[role]; ok {
		return p
	}
	return "STF"
}

// ApplicationNotifier tells a supervisor about a new staff application.
type ApplicationNotifier interface {
	ApplicationSubmitted(app *models.StaffApplication)
}

type StaffApplicationRequest struct {
	FirstName         string           `json:"first_name" validate:"required"`
	LastName          string           `json:"last_name" validate:"required"`
	Email             string           `json:"email" validate:"required,email"`
	Phone             string           `json:"phone" validate:"required"`
	RequestedRole     models.StaffRole `json:"requested_role" validate:"required"`
	Department        string           `json:"department" validate:"required"`
	SupervisorEmail   string           `json:"supervisor_email" validate:"required,email"`
	EmployeeID        string           `json:"employee_id"`
	Password          string           `json:"password" validate:"required"`
	ConfirmPassword   string           `json:"confirm_password" validate:"required"`
	AcceptTerms       bool             `json:"accept_terms"`
	BackgroundConsent bool             `json:"background_consent"`
}

type AddStaffRequest struct {
	Name     string           `json:"name" validate:"required"`
	Email    string           `json:"email" validate:"required,email"`
	Role     models.StaffRole `json:"role" validate:"required"`
	Password string           `json:"password" validate:"required,min=6"`
	Notes    string           `json:"notes"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type StaffStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Admins   int `json:"admins"`
	Managers int `json:"managers"`
}

type StaffService struct {
	staff        *repository.StaffRepository
	applications *repository.ApplicationRepository
	customers    *repository.CustomerRepository
	notifier     ApplicationNotifier
	cost         int
	logger       *zap.Logger
	now          Clock
}

func NewStaffService(staff *repository.StaffRepository, applications *repository.ApplicationRepository, customers *repository.CustomerRepository, bcryptCost int, logger *zap.Logger) *StaffService {
	return &StaffService{
		staff:        staff,
		applications: applications,
		customers:    customers,
		cost:         bcryptCost,
		logger:       logger.Named("staff"),
		now:          time.Now,
	}
}

func (s *StaffService) SetNotifier(n ApplicationNotifier) {
	s.notifier = n
}

// GenerateStaffID returns the role prefix followed by the role's head count
// plus one, bumped past any id already taken.
func (s *StaffService) GenerateStaffID(ctx context.Context, role models.StaffRole) (string, error) {
	n, err := s.staff.CountByRole(ctx, role)
	if err != nil {
		return "", fmt.Errorf("failed to count staff: %w", err)
	}
	prefix := rolePrefix(role)
	for seq := n + 1; ; seq++ {
		id := fmt.Sprintf("%s%03d", prefix, seq)
		taken, err := s.staff.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check staff id: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
}

func (s *StaffService) emailInUse(ctx context.Context, email string) (bool, error) {
	if _, err := s.staff.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if _, err := s.customers.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	return false, nil
}

// Apply stores a self-registration as pending.
func (s *StaffService) Apply(ctx context.Context, req *StaffApplicationRequest) (*models.StaffApplication, error) {
	req.Email = normalizeEmail(req.Email)
	req.SupervisorEmail = normalizeEmail(req.SupervisorEmail)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !req.RequestedRole.Valid() {
		return nil, invalid("unknown role %q", req.RequestedRole)
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if err := checkPasswordStrength(req.Password); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, invalid("passwords do not match")
	}
	if !req.AcceptTerms {
		return nil, invalid("please agree to the terms and conditions")
	}
	if !req.BackgroundConsent {
		return nil, invalid("please consent to background verification")
	}

	inUse, err := s.emailInUse(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, conflict("an account with this email already exists")
	}
	if _, err := s.applications.FindPendingByEmail(ctx, req.Email); err == nil {
		return nil, conflict("an application for this email is already pending")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(req.Password, s.cost)
	if err != nil {
		return nil, err
	}
	app := &models.StaffApplication{
		ID:              uuid.NewString(),
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           req.Email,
		Phone:           phone,
		RequestedRole:   req.RequestedRole,
		Department:      strings.TrimSpace(req.Department),
		SupervisorEmail: req.SupervisorEmail,
		EmployeeID:      strings.ToUpper(strings.TrimSpace(req.EmployeeID)),
		PasswordHash:    hash,
		Status:          models.ApplicationPending,
		SubmittedAt:     s.now(),
	}
	if err := s.applications.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to store application: %w", err)
	}
	s.logger.Info("Staff application submitted",
		zap.String("application_id", app.ID),
		zap.String("role", string(app.RequestedRole)))

	if s.notifier != nil {
		s.notifier.ApplicationSubmitted(app)
	}
	return app, nil
}

func (s *StaffService) ListApplications(ctx context.Context, status models.ApplicationStatus) ([]models.StaffApplication, error) {
	return s.applications.List(ctx, status)
}

func (s *StaffService) pendingApplication(ctx context.Context, id string) (*models.StaffApplication, error) {
	app, err := s.applications.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "application", id)
	}
	if app.Status != models.ApplicationPending {
		return nil, conflict(fmt.Sprintf("application is already %s", app.Status))
	}
	return app, nil
}

// Approve turns a pending application into an active staff account. The
// requested employee id is kept when it is still free.
func (s *StaffService) Approve(ctx context.Context, id, approver string) (*models.Staff, error) {
	app, err := s.pendingApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	staffID := app.EmployeeID
	if staffID != "" {
		taken, err := s.staff.Exists(ctx, staffID)
		if err != nil {
			return nil, err
		}
		if taken {
			staffID = ""
		}
	}
	if staffID == "" {
		if staffID, err = s.GenerateStaffID(ctx, app.RequestedRole); err != nil {
			return nil, err
		}
	}

	now := s.now()
	member := &models.Staff{
		StaffID:      staffID,
		Name:         app.FirstName + " " + app.LastName,
		FirstName:    app.FirstName,
		LastName:     app.LastName,
		Email:        app.Email,
		PasswordHash: app.PasswordHash,
		Role:         app.RequestedRole,
		Department:   app.Department,
		Phone:        app.Phone,
		Status:       models.StaffStatusActive,
		ApprovedBy:   approver,
		ApprovedAt:   &now,
	}
	app.Status = models.ApplicationApproved
	app.ReviewedBy = approver
	app.ReviewedAt = &now

	if err := s.applications.Approve(ctx, app, member); err != nil {
		return nil, fmt.Errorf("failed to approve application: %w", err)
	}
	s.logger.Info("Staff application approved",
		zap.String("application_id", app.ID),
		zap.String("staff_id", member.StaffID),
		zap.String("approved_by", approver))
	return member, nil
}

func (s *StaffService) Reject(ctx context.Context, id, reviewer string) (*models.StaffApplication, error) {
	app, err := s.pendingApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	app.Status = models.ApplicationRejected
	app.ReviewedBy = reviewer
	app.ReviewedAt = &now
	if err := s.applications.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to reject application: %w", err)
	}
	s.logger.Info("Staff application rejected", zap.String("application_id", app.ID))
	return app, nil
}

// Add creates an active staff account directly from the admin console.
func (s *StaffService) Add(ctx context.Context, req *AddStaffRequest) (*models.Staff, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, invalid("unknown role %q", req.Role)
	}
	inUse, err := s.emailInUse(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, conflict("email address already exists")
	}

	staffID, err := s.GenerateStaffID(ctx, req.Role)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password, s.cost)
	if err != nil {
		return nil, err
	}
	member := &models.Staff{
		StaffID:      staffID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       models.StaffStatusActive,
		Notes:        strings.TrimSpace(req.Notes),
	}
	if err := s.staff.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	s.logger.Info("Staff member added", zap.String("staff_id", member.StaffID))
	return member, nil
}

func (s *StaffService) List(ctx context.Context, filter repository.StaffFilter) ([]models.Staff, error) {
	return s.staff.List(ctx, filter)
}

func (s *StaffService) Get(ctx context.Context, staffID string) (*models.Staff, error) {
	member, err := s.staff.Get(ctx, staffID)
	if err != nil {
		return nil, notFound(err, "staff", staffID)
	}
	return member, nil
}

func (s *StaffService) Stats(ctx context.Context) (*StaffStats, error) {
	all, err := s.staff.List(ctx, repository.StaffFilter{})
	if err != nil {
		return nil, err
	}
	stats := &StaffStats{Total: len(all)}
	for _, m := range all {
		if m.Status == models.StaffStatusActive {
			stats.Active++
		}
		switch m.Role {
		case models.StaffRoleAdmin:
			stats.Admins++
		case models.StaffRoleManager:
			stats.Managers++
		}
	}
	return stats, nil
}

func (s *StaffService) ToggleStatus(ctx context.Context, staffID string) (*models.Staff, error) {
	member, err := s.Get(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if member.Status == models.StaffStatusActive {
		member.Status = models.StaffStatusInactive
	} else {
		member.Status = models.StaffStatusActive
	}
	if err := s.staff.Save(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to update staff: %w", err)
	}
	s.logger.Info("Staff status changed",
		zap.String("staff_id", member.StaffID),
		zap.String("status", string(member.Status)))
	return member, nil
}

func (s *StaffService) ResetPassword(ctx context.Context, staffID string, req *ResetPasswordRequest) error {
	if req.Password == "" || req.ConfirmPassword == "" {
		return invalid("please fill in all fields")
	}
	if req.Password != req.ConfirmPassword {
		return invalid("passwords do not match")
	}
	if len(req.Password) < 6 {
		return invalid("password must be at least 6 characters long")
	}
	member, err := s.Get(ctx, staffID)
	if err != nil {
		return err
	}
	hash, err := hashPassword(req.Password, s.cost)
	if err != nil {
		return err
	}
	member.PasswordHash = hash
	if err := s.staff.Save(ctx, member); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.logger.Info("Staff password reset", zap.String("staff_id", staffID))
	return nil
}
