package ux

import (
	stderrors "errors"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/oactl/internal/errors"
)

// Choice is one option of a select prompt.
type Choice struct {
	Label string
	Value int
}

// Prompter asks the user for input through huh forms. Without a terminal
// every prompt fails with a validation error naming the flag to pass instead.
type Prompter struct {
	Interactive bool
	// AssumeYes answers every confirmation with yes.
	AssumeYes  bool
	Accessible bool
}

// NewPrompter detects whether prompts can be shown.
func NewPrompter(assumeYes bool) *Prompter {
	return &Prompter{
		Interactive: ShouldPrompt(),
		AssumeYes:   assumeYes,
		Accessible:  os.Getenv("ACCESSIBLE") != "",
	}
}

// Confirm asks a yes/no question. It satisfies viewmodel.Confirmer.
func (p *Prompter) Confirm(title, message string) (bool, error) {
	if p.AssumeYes {
		return true, nil
	}
	if !p.Interactive {
		return false, errors.New(errors.ErrCodeValidation, "confirmation required; pass --yes to skip it")
	}

	var ok bool
	err := p.run(huh.NewConfirm().
		Title(title).
		Description(message).
		Affirmative("Yes").
		Negative("No").
		Value(&ok))
	return ok, err
}

// Input asks for one line of text, starting from value.
func (p *Prompter) Input(title, value string, validate func(string) error) (string, error) {
	if err := p.require(title); err != nil {
		return "", err
	}
	in := huh.NewInput().Title(title).Value(&value)
	if validate != nil {
		in = in.Validate(validate)
	}
	err := p.run(in)
	return value, err
}

// Password asks for a secret without echoing it.
func (p *Prompter) Password(title string, validate func(string) error) (string, error) {
	if err := p.require(title); err != nil {
		return "", err
	}
	var value string
	in := huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(&value)
	if validate != nil {
		in = in.Validate(validate)
	}
	err := p.run(in)
	return value, err
}

// Text asks for multi-line text.
func (p *Prompter) Text(title, value string) (string, error) {
	if err := p.require(title); err != nil {
		return "", err
	}
	err := p.run(huh.NewText().Title(title).Value(&value))
	return value, err
}

// Select asks for one of choices, starting at current.
func (p *Prompter) Select(title string, choices []Choice, current int) (int, error) {
	if err := p.require(title); err != nil {
		return 0, err
	}
	if len(choices) == 0 {
		return 0, errors.Newf(errors.ErrCodeValidation, "nothing to choose for %s", title)
	}
	value := current
	err := p.run(huh.NewSelect[int]().Title(title).Options(options(choices)...).Value(&value))
	return value, err
}

// MultiSelect asks for any number of choices.
func (p *Prompter) MultiSelect(title string, choices []Choice) ([]int, error) {
	if err := p.require(title); err != nil {
		return nil, err
	}
	if len(choices) == 0 {
		return nil, errors.Newf(errors.ErrCodeValidation, "nothing to choose for %s", title)
	}
	var values []int
	err := p.run(huh.NewMultiSelect[int]().Title(title).Options(options(choices)...).Value(&values))
	return values, err
}

func (p *Prompter) require(title string) error {
	if p.Interactive {
		return nil
	}
	return errors.Newf(errors.ErrCodeValidation, "%s is required; pass it as a flag", title)
}

func (p *Prompter) run(field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).WithAccessible(p.Accessible).Run()
	if stderrors.Is(err, huh.ErrUserAborted) {
		return errors.New(errors.ErrCodeCancelled, "cancelled")
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "prompt failed", err)
	}
	return nil
}

func options(choices []Choice) []huh.Option[int] {
	opts := make([]huh.Option[int], len(choices))
	for i, c := range choices {
		opts[i] = huh.NewOption(c.Label, c.Value)
	}
	return opts
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
