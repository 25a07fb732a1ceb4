package service

import (
	"context"
	"errors"
	"log/slog"

	"voice_motto/internal/common"
	"voice_motto/internal/domain/repository"
)

const MottoStatusUnavailable = "motto unavailable"

// MottoDecrypter is satisfied by *security.MottoCodec.
type MottoDecrypter interface {
	Decrypt(ciphertext []byte) (string, error)
}

type ProfileResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Motto       *string `json:"motto"`
	MottoStatus string  `json:"motto_status,omitempty"`
}

type ProfileService struct {
	userRepo repository.UserRepository
	codec    MottoDecrypter
	logger   *slog.Logger
}

func NewProfileService(userRepo repository.UserRepository, codec MottoDecrypter, logger *slog.Logger) *ProfileService {
	return &ProfileService{userRepo: userRepo, codec: codec, logger: logger}
}

// GetProfile returns the user with the motto decrypted. A motto that fails to
// decrypt is reported as unavailable instead of failing the request.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &ProfileResponse{ID: user.ID, Username: user.Username}
	if len(user.Motto) == 0 {
		return resp, nil
	}

	motto, err := s.codec.Decrypt(user.Motto)
	if err != nil {
		if !errors.Is(err, common.ErrDecryption) {
			return nil, err
		}
		s.logger.Warn("stored motto could not be decrypted", "user_id", user.ID, "error", err)
		resp.MottoStatus = MottoStatusUnavailable
		return resp, nil
	}
	resp.Motto = &motto
	return resp, nil
}
