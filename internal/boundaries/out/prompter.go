package out

// Prompter asks the invoking user for decisions.
// Implementations return domain.ErrUserCancelled when the user aborts.
type Prompter interface {
	Confirm(message string, defaultYes bool) (bool, error)
	Password(message string) ([]byte, error)
	Select(message string, options []string) (int, error)
	Input(message string) (string, error)
}
