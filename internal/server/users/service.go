package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/linkvault/internal/common"
	"github.com/dmitrijs2005/linkvault/internal/server/auth"
	"github.com/dmitrijs2005/linkvault/internal/server/config"
)

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	Token   string
	UserID  string
	VaultID string
}

type Service struct {
	repo                  Repository
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                  repo,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register creates an account. The server stores only salt and verifier;
// the password never leaves the client. Every account gets a fresh vault.
func (s *Service) Register(ctx context.Context, username string, salt, verifier []byte) (*User, error) {

	user := &User{
		UserName: username,
		Salt:     salt,
		Verifier: verifier,
		VaultID:  uuid.NewString(),
	}

	user, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %v", err)
	}

	return user, nil
}

func (s *Service) getRandomSalt() []byte {
	return common.GenerateRandByteArray(32)
}

// GetSalt returns the registered salt for a username. Unknown usernames get
// a random salt so the endpoint does not leak which accounts exist.
func (s *Service) GetSalt(ctx context.Context, userName string) ([]byte, error) {

	user, err := s.repo.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.getRandomSalt(), nil
		}
		return nil, common.ErrorInternal
	}

	return user.Salt, nil
}

func (s *Service) checkVerifier(verifier []byte, verifierCandidate []byte) bool {
	return subtle.ConstantTimeCompare(verifier, verifierCandidate) == 1
}

// Login checks the verifier in constant time and issues an access token
// scoped to the user's vault.
func (s *Service) Login(ctx context.Context, userName string, verifierCandidate []byte) (*LoginResult, error) {

	user, err := s.repo.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !s.checkVerifier(user.Verifier, verifierCandidate) {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, user.VaultID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &LoginResult{Token: token, UserID: user.ID, VaultID: user.VaultID}, nil
}
