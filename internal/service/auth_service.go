package service

import (
	"accounting-admin/internal/config"
	"accounting-admin/internal/models"
	"accounting-admin/internal/repository"
	"accounting-admin/internal/utils"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrNotLoggedIn        = errors.New("user not logged in")
)

type AuthService struct {
	users repository.UserStore
	cfg   *config.Config
}

func NewAuthService(users repository.UserStore, cfg *config.Config) *AuthService {
	return &AuthService{
		users: users,
		cfg:   cfg,
	}
}

func (s *AuthService) authenticate(req models.LoginRequest) (*models.User, error) {
	user, err := s.users.FindByUsername(req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates an API client and issues JWT tokens
func (s *AuthService) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.authenticate(req)
	if err != nil {
		return nil, err
	}

	accessToken, err := utils.GenerateAccessToken(*user, s.cfg.JWTSecret, s.cfg.JWTAccessExpire)
	if err != nil {
		return nil, errors.New("failed to generate access token")
	}

	refreshToken, err := utils.GenerateRefreshToken(*user, s.cfg.JWTSecret, s.cfg.JWTRefreshExpire)
	if err != nil {
		return nil, errors.New("failed to generate refresh token")
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	}, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*utils.JWTClaims, error) {
	return utils.ValidateToken(tokenString, s.cfg.JWTSecret)
}

func (s *AuthService) GetUserByID(id int) (*models.User, error) {
	return s.users.FindByID(id)
}

// WebLogin authenticates a browser user and stores the identity in the session
func (s *AuthService) WebLogin(req models.LoginRequest, c *fiber.Ctx, store *session.Store) (*models.User, error) {
	user, err := s.authenticate(req)
	if err != nil {
		return nil, err
	}

	sess, err := store.Get(c)
	if err != nil {
		return nil, errors.New("failed to create session")
	}

	// Prevent session fixation
	if err := sess.Regenerate(); err != nil {
		return nil, errors.New("failed to create session")
	}

	sess.Set("user_id", user.ID)
	sess.Set("username", user.Username)
	sess.Set("role", user.Role)
	sess.Set("expires_at", time.Now().Add(s.cfg.JWTAccessExpire).Unix())

	if err := sess.Save(); err != nil {
		return nil, errors.New("failed to save session")
	}

	return user, nil
}

func (s *AuthService) WebLogout(c *fiber.Ctx, store *session.Store) error {
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// GetCurrentUser returns the user of the browser session
func (s *AuthService) GetCurrentUser(c *fiber.Ctx, store *session.Store) (*models.User, error) {
	sess, err := store.Get(c)
	if err != nil {
		return nil, err
	}

	userID, ok := sess.Get("user_id").(int)
	if !ok {
		return nil, ErrNotLoggedIn
	}
	if expiresAt, ok := sess.Get("expires_at").(int64); ok && time.Now().Unix() > expiresAt {
		_ = sess.Destroy()
		return nil, ErrNotLoggedIn
	}

	return s.users.FindByID(userID)
}
