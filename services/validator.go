//go:generate go run go.uber.org/mock/mockgen -source=validator.go -destination=../mocks/mock_recipient_validator.go -package=mocks
package services

import (
	"flashchat/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// RegistrationOutcome is the result of checking a candidate recipient list
// against the registration directory. Offending is empty when every
// recipient is registered.
type RegistrationOutcome struct {
	Offending []string
}

func (o RegistrationOutcome) AllRegistered() bool {
	return len(o.Offending) == 0
}

type IRecipientValidator interface {
	Validate(recipients []string) (RegistrationOutcome, error)
}

// RecipientValidator gates thread and message creation: no write may happen
// for a participant set containing an unregistered identity.
type RecipientValidator struct {
	directory repositories.IDirectoryRepository
	validate  *validator.Validate
}

func NewRecipientValidator(directory repositories.IDirectoryRepository) IRecipientValidator {
	return &RecipientValidator{directory: directory, validate: validator.New()}
}

// Validate checks every distinct recipient and reports the complete
// offending set; it never stops at the first failure. An identity that is
// not a well-formed email address cannot be registered and is offending by
// definition. A directory query failure aborts the whole validation so the
// caller performs no partial side effects.
func (v *RecipientValidator) Validate(recipients []string) (RegistrationOutcome, error) {
	var offending []string
	for _, recipient := range lo.Uniq(recipients) {
		if err := v.validate.Var(recipient, "required,email"); err != nil {
			offending = append(offending, recipient)
			continue
		}
		registered, err := v.directory.IsRegistered(recipient)
		if err != nil {
			return RegistrationOutcome{}, err
		}
		if !registered {
			offending = append(offending, recipient)
		}
	}
	return RegistrationOutcome{Offending: offending}, nil
}
