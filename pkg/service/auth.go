package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dgrijalva/jwt-go"
	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the signed part of a session token. The session itself lives in
// the session store, so logging out revokes the token.
type Claims struct {
	SessionID string          `json:"sid"`
	UserType  models.UserType `json:"user_type"`
	jwt.StandardClaims
}

type RegisterCustomerRequest struct {
	FirstName       string         `json:"first_name" validate:"required"`
	LastName        string         `json:"last_name" validate:"required"`
	Email           string         `json:"email" validate:"required,email"`
	Phone           string         `json:"phone" validate:"required"`
	Password        string         `json:"password" validate:"required"`
	ConfirmPassword string         `json:"confirm_password" validate:"required"`
	Address         models.Address `json:"address"`
	AcceptTerms     bool           `json:"accept_terms"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	StaffID  string `json:"staff_id,omitempty"`
}

type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   *models.Session `json:"session"`
}

type AuthService struct {
	customers    *repository.CustomerRepository
	staff        *repository.StaffRepository
	applications *repository.ApplicationRepository
	sessions     *repository.SessionStore
	carts        *repository.CartStore
	secret       []byte
	ttl          time.Duration
	cost         int
	logger       *zap.Logger
	now          Clock
}

func NewAuthService(
	cfg config.AuthConfig,
	customers *repository.CustomerRepository,
	staff *repository.StaffRepository,
	applications *repository.ApplicationRepository,
	sessions *repository.SessionStore,
	carts *repository.CartStore,
	logger *zap.Logger,
) *AuthService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		customers:    customers,
		staff:        staff,
		applications: applications,
		sessions:     sessions,
		carts:        carts,
		secret:       []byte(cfg.JWTSecret),
		ttl:          cfg.SessionTTL,
		cost:         cost,
		logger:       logger.Named("auth"),
		now:          time.Now,
	}
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// checkPasswordStrength requires 8+ characters with upper, lower and a digit.
func checkPasswordStrength(password string) error {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if len(password) < 8 || !upper || !lower || !digit {
		return invalid("password must be at least 8 characters and contain uppercase, lowercase and a number")
	}
	return nil
}

// normalizePhone strips formatting and requires exactly ten digits.
func normalizePhone(phone string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) != 10 {
		return "", invalid("please enter a valid 10-digit phone number")
	}
	return digits, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) RegisterCustomer(ctx context.Context, req *RegisterCustomerRequest) (*models.Customer, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	a := req.Address
	if a.Street == "" || a.City == "" || a.State == "" || a.ZipCode == "" {
		return nil, invalid("address is required")
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
		return nil, invalid("you must agree to the terms and conditions")
	}

	if _, err := s.customers.FindByEmail(ctx, req.Email); err == nil {
		return nil, conflict("an account with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.staff.FindByEmail(ctx, req.Email); err == nil {
		return nil, conflict("an account with this email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(req.Password, s.cost)
	if err != nil {
		return nil, err
	}
	customer := &models.Customer{
		ID:           "CUST-" + strings.ToUpper(uuid.NewString()[:8]),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        phone,
		Address:      a,
		Active:       true,
		RegisteredAt: s.now(),
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	s.logger.Info("Customer registered", zap.String("customer_id", customer.ID))
	return customer, nil
}

func (s *AuthService) LoginCustomer(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, invalid("please fill in all fields")
	}

	customer, err := s.customers.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		if staff, err := s.staff.FindByEmail(ctx, email); err == nil && checkPassword(staff.PasswordHash, req.Password) {
			return nil, forbidden("This email is registered as staff. Please use staff login.")
		}
		return nil, unauthorized("No account found with this email address. Please register first.")
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(customer.PasswordHash, req.Password) {
		return nil, unauthorized("Incorrect password. Please try again.")
	}

	return s.startSession(ctx, &models.Session{
		UserID:   customer.ID,
		Email:    customer.Email,
		Name:     customer.FullName(),
		UserType: models.UserTypeCustomer,
	})
}

func (s *AuthService) LoginStaff(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	staffID := strings.ToUpper(strings.TrimSpace(req.StaffID))
	if email == "" || req.Password == "" || staffID == "" {
		return nil, invalid("please fill in all fields")
	}

	member, err := s.staff.Get(ctx, staffID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if member == nil || !strings.EqualFold(member.Email, email) || !checkPassword(member.PasswordHash, req.Password) {
		if _, err := s.applications.FindPendingByEmail(ctx, email); err == nil {
			return nil, forbidden("Your registration is still pending approval. Please contact your supervisor.")
		}
		return nil, unauthorized("Invalid credentials or staff ID. Please check your details and try again.")
	}
	if member.Status != models.StaffStatusActive {
		return nil, forbidden("Your staff account is inactive. Please contact an administrator.")
	}

	return s.startSession(ctx, &models.Session{
		UserID:     member.StaffID,
		Email:      member.Email,
		Name:       member.Name,
		UserType:   models.UserTypeAdmin,
		Role:       member.Role,
		Department: member.Department,
	})
}

func (s *AuthService) startSession(ctx context.Context, session *models.Session) (*LoginResult, error) {
	now := s.now()
	session.ID = uuid.NewString()
	session.LoginTime = now
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		SessionID: session.ID,
		UserType:  session.UserType,
		StandardClaims: jwt.StandardClaims{
			Subject:   session.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("Session started",
		zap.String("user_id", session.UserID),
		zap.String("user_type", string(session.UserType)))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Session: session}, nil
}

// Authenticate resolves a bearer token to its live session. Expired tokens,
// revoked sessions and corrupted session records are all unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, unauthorized("invalid or expired token")
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrCorrupted):
		return nil, unauthorized("session expired, please log in again")
	case err != nil:
		return nil, err
	}
	if session.UserType != claims.UserType {
		return nil, unauthorized("session expired, please log in again")
	}
	return session, nil
}

// Logout drops the session and its cart.
func (s *AuthService) Logout(ctx context.Context, session *models.Session) error {
	if err := s.carts.Clear(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("Session ended", zap.String("user_id", session.UserID))
	return nil
}
