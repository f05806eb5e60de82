package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/repositories"
	"github.com/prudhvinik1/chatline/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrDeviceMismatch     = errors.New("device does not belong to account")
	ErrDeviceNotFound     = errors.New("device not found")
)

type AuthService struct {
	accountRepo repositories.AccountRepository
	deviceRepo  repositories.DeviceRepository
	sessionRepo repositories.SessionRepository
	profileRepo repositories.ProfileRepository
	jwtSecret   string
	jwtExpiry   time.Duration
	logger      *slog.Logger
}

type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginRequest struct {
	Email      string
	Password   string
	DeviceID   *uuid.UUID // Optional - nil means create new device
	DeviceName string
	DeviceType string
	UserAgent  string
}

type LoginResponse struct {
	Token     string
	ExpiresAt time.Time
	DeviceID  uuid.UUID
	AccountID uuid.UUID
}

type TokenClaims struct {
	AccountID uuid.UUID
	DeviceID  uuid.UUID
	SessionID string
}

func NewAuthService(
	accountRepo repositories.AccountRepository,
	deviceRepo repositories.DeviceRepository,
	sessionRepo repositories.SessionRepository,
	profileRepo repositories.ProfileRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		deviceRepo:  deviceRepo,
		sessionRepo: sessionRepo,
		profileRepo: profileRepo,
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
		logger:      logger,
	}
}

// Register creates the account and its profile. The profile starts public
// with presence visible; the display name defaults to the email's local part.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.accountRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrEmailExists
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Email:        email,
		PasswordHash: hashedPassword,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}
	profile := &models.Profile{
		AccountID:   account.ID,
		DisplayName: displayName,
		Privacy:     models.DefaultPrivacy(),
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("account registered", "account_id", account.ID)
	return account, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	account, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !utils.CheckPassword(account.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	device, err := s.resolveDevice(ctx, account.ID, req)
	if err != nil {
		return nil, err
	}
	if err := s.deviceRepo.Touch(ctx, device.ID); err != nil {
		s.logger.Warn("failed to touch device", "device_id", device.ID, "error", err)
	}

	now := time.Now()
	session := &models.Session{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		DeviceID:  device.ID,
		UserAgent: req.UserAgent,
		ExpiresAt: now.Add(s.jwtExpiry),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.generateToken(session)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		AccountID: account.ID,
		DeviceID:  device.ID,
	}, nil
}

func (s *AuthService) resolveDevice(ctx context.Context, accountID uuid.UUID, req LoginRequest) (*models.Device, error) {
	if req.DeviceID != nil {
		device, err := s.deviceRepo.GetByID(ctx, *req.DeviceID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("device not found: %w", err)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get device: %w", err)
		}
		if device.AccountID != accountID || device.RevokedAt != nil {
			return nil, ErrDeviceMismatch
		}
		return device, nil
	}

	device := &models.Device{
		AccountID:  accountID,
		Name:       req.DeviceName,
		DeviceType: req.DeviceType,
	}
	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return device, nil
}

func (s *AuthService) generateToken(session *models.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub":       session.AccountID.String(),
		"device_id": session.DeviceID.String(),
		"jti":       session.ID,
		"exp":       session.ExpiresAt.Unix(),
		"iat":       session.CreatedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// VerifyToken checks the signature and expiry only.
func (s *AuthService) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	accountID, err := uuidClaim(claims, "sub")
	if err != nil {
		return nil, err
	}
	deviceID, err := uuidClaim(claims, "device_id")
	if err != nil {
		return nil, err
	}
	sessionID, ok := claims["jti"].(string)
	if !ok || sessionID == "" {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		AccountID: accountID,
		DeviceID:  deviceID,
		SessionID: sessionID,
	}, nil
}

// Authenticate verifies the token and that its session has not been
// logged out.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*TokenClaims, error) {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, claims.SessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.AccountID != claims.AccountID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return err
	}

	if err := s.sessionRepo.Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *AuthService) LogoutAll(ctx context.Context, tokenString string) error {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return err
	}

	if err := s.sessionRepo.DeleteAllForAccount(ctx, claims.AccountID); err != nil {
		return fmt.Errorf("failed to logout all sessions: %w", err)
	}
	return nil
}

// Account returns the signed-in account.
func (s *AuthService) Account(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *AuthService) ListDevices(ctx context.Context, accountID uuid.UUID) ([]*models.Device, error) {
	devices, err := s.deviceRepo.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// RevokeDevice revokes one of the account's devices and deletes every
// session signed in from it. It returns the IDs of the deleted sessions.
func (s *AuthService) RevokeDevice(ctx context.Context, accountID, deviceID uuid.UUID) ([]string, error) {
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && device.AccountID != accountID) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	if err := s.deviceRepo.Revoke(ctx, deviceID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to revoke device: %w", err)
	}

	sessions, err := s.sessionRepo.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	var ended []string
	for _, session := range sessions {
		if session.DeviceID != deviceID {
			continue
		}
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return ended, fmt.Errorf("failed to delete session: %w", err)
		}
		ended = append(ended, session.ID)
	}

	s.logger.Info("device revoked", "account_id", accountID, "device_id", deviceID, "sessions", len(ended))
	return ended, nil
}

func uuidClaim(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
