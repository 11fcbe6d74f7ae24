package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/phone"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
	"gopkg.in/guregu/null.v3"
)

const minPasswordLength = 6

var (
	errInvalidCredentials = apperr.Unauthorized("invalid phone or password")
	fieldValidator        = validator.New()
)

type RegisterInput struct {
	FullName string
	Email    string
	Phone    string
	Password string
}

// OfficialInput describes an account created out of band for ward staff.
type OfficialInput struct {
	Username           string
	FullName           string
	Phone              string
	Password           string
	Role               entity.UserRole
	ManagementAreaCode string
}

type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *entity.User `json:"user"`
}

// GoogleProfile holds the claims we read from a verified Google ID token.
type GoogleProfile struct {
	Subject string
	Email   string
	Name    string
}

type GoogleVerifier interface {
	Verify(ctx context.Context, rawToken string) (*GoogleProfile, error)
}

type googleVerifier struct {
	clientID string
}

// NewGoogleVerifier checks ID tokens against Google's published keys for the
// given OAuth client.
func NewGoogleVerifier(clientID string) GoogleVerifier {
	return &googleVerifier{clientID: clientID}
}

func (v *googleVerifier) Verify(ctx context.Context, rawToken string) (*GoogleProfile, error) {
	payload, err := idtoken.Validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, err
	}
	profile := &GoogleProfile{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		profile.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		profile.Name = name
	}
	return profile, nil
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, phoneNumber, password string) (*AuthResult, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error)
	Me(ctx context.Context, caller entity.Identity) (*entity.User, error)
	ValidateToken(tokenString string) (entity.Identity, error)
	UpsertOfficial(ctx context.Context, in OfficialInput) (*entity.User, error)
}

type AuthConfig struct {
	Secret      []byte
	TTL         time.Duration
	PhoneRegion string
}

type authService struct {
	users  repository.UserRepository
	google GoogleVerifier
	cfg    AuthConfig
	clock  clockwork.Clock
	log    logrus.FieldLogger
}

// NewAuthService builds the service. google may be nil, in which case Google
// sign-in is refused.
func NewAuthService(users repository.UserRepository, google GoogleVerifier, cfg AuthConfig, clock clockwork.Clock, log logrus.FieldLogger) AuthService {
	return &authService{users: users, google: google, cfg: cfg, clock: clock, log: log}
}

type tokenClaims struct {
	Role entity.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) issue(user *entity.User) (*AuthResult, error) {
	now := s.clock.Now()
	expires := now.Add(s.cfg.TTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &AuthResult{Token: signed, ExpiresAt: expires, User: user}, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.FullName == "" {
		return nil, apperr.InvalidArgument("full_name is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.InvalidArgument("password must be at least %d characters", minPasswordLength)
	}
	normalized, err := phone.Normalize(in.Phone, s.cfg.PhoneRegion)
	if err != nil {
		return nil, apperr.InvalidArgument("%s", err.Error())
	}
	if in.Email != "" {
		if err := fieldValidator.Var(in.Email, "email"); err != nil {
			return nil, apperr.InvalidArgument("invalid email address")
		}
	}

	existing, err := s.users.GetByPhone(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up phone: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("phone number is already registered")
	}
	if in.Email != "" {
		existing, err = s.users.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up email: %w", err)
		}
		if existing != nil {
			return nil, apperr.Conflict("email is already registered")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     normalized,
		PasswordHash: string(hashed),
		FullName:     in.FullName,
		Phone:        null.StringFrom(normalized),
		Email:        null.NewString(in.Email, in.Email != ""),
		Role:         entity.RoleResident,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, translateRepoErr(err, "User", user.ID, "create user")
	}
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, phoneNumber, password string) (*AuthResult, error) {
	normalized, err := phone.Normalize(phoneNumber, s.cfg.PhoneRegion)
	if err != nil {
		return nil, errInvalidCredentials
	}
	user, err := s.users.GetByPhone(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}

	s.touch(ctx, user)
	return s.issue(user)
}

func (s *authService) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.google == nil {
		return nil, apperr.Unauthorized("google sign-in is not configured")
	}
	profile, err := s.google.Verify(ctx, idToken)
	if err != nil {
		s.log.WithError(err).Debug("google token rejected")
		return nil, apperr.Unauthorized("invalid google token")
	}
	email := strings.ToLower(profile.Email)
	if email == "" {
		return nil, apperr.Unauthorized("google account has no email")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		// Google accounts have no usable password.
		random, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user = &entity.User{
			ID:           uuid.New().String(),
			Username:     email,
			PasswordHash: string(random),
			FullName:     profile.Name,
			Email:        null.StringFrom(email),
			Role:         entity.RoleResident,
			CreatedAt:    s.clock.Now(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, translateRepoErr(err, "User", user.ID, "create user")
		}
		s.log.WithField("user_id", user.ID).Info("user created from google sign-in")
	} else {
		s.touch(ctx, user)
	}
	return s.issue(user)
}

func (s *authService) touch(ctx context.Context, user *entity.User) {
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to record last login")
		return
	}
	user.LastLoginAt = null.TimeFrom(s.clock.Now())
}

func (s *authService) Me(ctx context.Context, caller entity.Identity) (*entity.User, error) {
	if caller.Anonymous() {
		return nil, apperr.Unauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("User", caller.UserID)
	}
	return user, nil
}

func (s *authService) ValidateToken(tokenString string) (entity.Identity, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.Secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return entity.Identity{}, apperr.Unauthorized("token expired")
		}
		return entity.Identity{}, apperr.Unauthorized("invalid token")
	}
	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return entity.Identity{}, apperr.Unauthorized("invalid token")
	}
	return entity.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

// UpsertOfficial creates the account or, when the username exists, resets its
// role, area and password.
func (s *authService) UpsertOfficial(ctx context.Context, in OfficialInput) (*entity.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, apperr.InvalidArgument("username is required")
	}
	if !in.Role.IsOfficial() {
		return nil, apperr.InvalidArgument("role %q is not an official role", in.Role)
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.InvalidArgument("password must be at least %d characters", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user != nil {
		if err := s.users.UpdateRole(ctx, user.ID, in.Role, in.ManagementAreaCode); err != nil {
			return nil, translateRepoErr(err, "User", user.ID, "update role")
		}
		if err := s.users.UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
			return nil, translateRepoErr(err, "User", user.ID, "update password")
		}
		user.Role = in.Role
		user.ManagementAreaCode = null.NewString(in.ManagementAreaCode, in.ManagementAreaCode != "")
		return user, nil
	}

	user = &entity.User{
		ID:                 uuid.New().String(),
		Username:           in.Username,
		PasswordHash:       string(hashed),
		FullName:           in.FullName,
		Role:               in.Role,
		ManagementAreaCode: null.NewString(in.ManagementAreaCode, in.ManagementAreaCode != ""),
		CreatedAt:          s.clock.Now(),
	}
	if in.Phone != "" {
		normalized, err := phone.Normalize(in.Phone, s.cfg.PhoneRegion)
		if err != nil {
			return nil, apperr.InvalidArgument("%s", err.Error())
		}
		user.Phone = null.StringFrom(normalized)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, translateRepoErr(err, "User", user.ID, "create user")
	}
	return user, nil
}
