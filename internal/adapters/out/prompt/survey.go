// Package prompt implements the prompter adapter on top of survey.
package prompt

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// Survey implements out.Prompter with interactive terminal prompts.
type Survey struct {
	opts []survey.AskOpt
}

// NewSurvey creates a prompter reading from the process terminal.
func NewSurvey(opts ...survey.AskOpt) *Survey {
	return &Survey{opts: opts}
}

// Confirm asks a yes/no question.
func (s *Survey) Confirm(message string, defaultYes bool) (bool, error) {
	answer := false
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultYes,
	}
	if err := survey.AskOne(prompt, &answer, s.opts...); err != nil {
		return false, mapError(err)
	}
	return answer, nil
}

// Password reads a secret without echoing it.
func (s *Survey) Password(message string) ([]byte, error) {
	var answer string
	prompt := &survey.Password{Message: message}
	if err := survey.AskOne(prompt, &answer, s.opts...); err != nil {
		return nil, mapError(err)
	}
	return []byte(answer), nil
}

// Select returns the index of the chosen option.
func (s *Survey) Select(message string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("nothing to select for %q", message)
	}
	var index int
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if err := survey.AskOne(prompt, &index, s.opts...); err != nil {
		return -1, mapError(err)
	}
	return index, nil
}

// Input reads a free-form line.
func (s *Survey) Input(message string) (string, error) {
	var answer string
	prompt := &survey.Input{Message: message}
	if err := survey.AskOne(prompt, &answer, s.opts...); err != nil {
		return "", mapError(err)
	}
	return answer, nil
}

// mapError turns an interrupted prompt into domain.ErrUserCancelled.
func mapError(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return domain.ErrUserCancelled
	}
	return fmt.Errorf("prompt failed: %w", err)
}
