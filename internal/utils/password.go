package utils

import (
	"errors"

	"github.com/sethvargo/go-password/password"
)

const (
	generatedPasswordLength  = 12
	generatedPasswordDigits  = 3
	generatedPasswordSymbols = 2
	maxGenerateAttempts      = 20
)

var passwordGenerator = mustPasswordGenerator()

// Look-alike characters are left out, the password is read from a mail.
func mustPasswordGenerator() *password.Generator {
	generator, err := password.NewGenerator(&password.GeneratorInput{
		LowerLetters: "abcdefghijkmnopqrstuvwxyz",
		UpperLetters: "ABCDEFGHJKLMNPQRSTUVWXYZ",
		Digits:       "23456789",
		Symbols:      "!@#$%&*?-_+=",
	})
	if err != nil {
		panic(err)
	}
	return generator
}

var errWeakPassword = errors.New("could not generate a password matching the password rules")

// GeneratePassword returns a random password that passes the password rules of the registration form.
func GeneratePassword() (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		generated, err := passwordGenerator.Generate(generatedPasswordLength, generatedPasswordDigits, generatedPasswordSymbols, false, true)
		if err != nil {
			return "", err
		}
		// Letters are drawn from both cases together, a draw may miss one of them
		if IsStrongPassword(generated) {
			return generated, nil
		}
	}
	return "", errWeakPassword
}
