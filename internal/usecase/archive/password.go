package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bnema/zerowrap"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

const maxPasswordAttempts = 3

// resolvePassword returns the password bytes for mode. A nil slice means the
// archive is not encrypted. The caller owns and must zero the result.
func (s *Service) resolvePassword(ctx context.Context, mode domain.PasswordMode) ([]byte, error) {
	log := zerowrap.FromCtx(ctx)

	switch mode {
	case "":
		chosen, err := s.choosePasswordMode()
		if err != nil {
			return nil, err
		}
		return s.resolvePassword(ctx, chosen)
	case domain.PasswordNone:
		return nil, nil
	case domain.PasswordStored:
		plain := s.cipher.Decrypt(s.storedPassword())
		if plain == "" {
			return nil, domain.ErrNoStoredPassword
		}
		return []byte(plain), nil
	case domain.PasswordSession:
		for attempt := 0; attempt < maxPasswordAttempts; attempt++ {
			first, err := s.promptNonEmpty()
			if err != nil {
				return nil, err
			}
			second, err := s.prompter.Password("Confirm password")
			if err != nil {
				clear(first)
				return nil, err
			}
			match := bytes.Equal(first, second)
			clear(second)
			if match {
				return first, nil
			}
			clear(first)
			log.Warn().Int("attempt", attempt+1).Msg("passwords do not match")
		}
		return nil, fmt.Errorf("%w: passwords did not match", domain.ErrUserCancelled)
	default:
		return nil, fmt.Errorf("%w: unknown password mode %q", domain.ErrConfigInvalid, mode)
	}
}

var passwordModeChoices = []struct {
	label string
	mode  domain.PasswordMode
}{
	{"Enter a password now", domain.PasswordSession},
	{"Use the stored default password", domain.PasswordStored},
	{"No password (archive is not encrypted)", domain.PasswordNone},
}

// choosePasswordMode asks which password mode to use.
func (s *Service) choosePasswordMode() (domain.PasswordMode, error) {
	labels := make([]string, len(passwordModeChoices))
	for i, c := range passwordModeChoices {
		labels[i] = c.label
	}
	idx, err := s.prompter.Select("Archive encryption", labels)
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(passwordModeChoices) {
		return "", fmt.Errorf("%w: invalid password mode choice %d", domain.ErrConfigInvalid, idx)
	}
	return passwordModeChoices[idx].mode, nil
}

// promptNonEmpty asks until a non-blank password is entered.
func (s *Service) promptNonEmpty() ([]byte, error) {
	for {
		pw, err := s.prompter.Password("Archive password")
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(pw)) > 0 {
			return pw, nil
		}
	}
}

// SetDefaultPassword encrypts password and persists it as the stored
// archive password. password is zeroed before returning.
func (s *Service) SetDefaultPassword(ctx context.Context, password []byte) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "SetDefaultPassword",
	})
	log := zerowrap.FromCtx(ctx)
	defer clear(password)

	if len(bytes.TrimSpace(password)) == 0 {
		return fmt.Errorf("%w: password must not be empty", domain.ErrConfigInvalid)
	}

	ciphertext, err := s.cipher.Encrypt(string(password))
	if err != nil {
		return log.WrapErr(err, "failed to encrypt archive password")
	}
	if err := s.settings.SetArchivePassword(ciphertext); err != nil {
		return log.WrapErr(err, "failed to save archive password")
	}
	s.setStoredPassword(ciphertext)

	log.Info().Msg("default archive password saved")
	return nil
}

// ClearDefaultPassword removes the stored archive password.
func (s *Service) ClearDefaultPassword(ctx context.Context) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "ClearDefaultPassword",
	})
	log := zerowrap.FromCtx(ctx)

	if err := s.settings.SetArchivePassword(""); err != nil {
		return log.WrapErr(err, "failed to clear archive password")
	}
	s.setStoredPassword("")

	log.Info().Msg("default archive password cleared")
	return nil
}

func (s *Service) storedPassword() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stored
}

func (s *Service) setStoredPassword(ciphertext string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = ciphertext
}
