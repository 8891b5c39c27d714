package crypto

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars  = "abcdefghijkmnopqrstuvwxyz"
	digitChars  = "23456789"
	symbolChars = "!@#%^&*-_=+?"

	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var ErrPasswordLength = errors.New("password length must be between 8 and 128")

// GeneratePassword returns a random password of the given length containing
// at least one upper-case letter, lower-case letter, digit and symbol.
// Visually ambiguous characters are left out since the result is printed
// for an operator to copy.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength || length > MaxPasswordLength {
		return "", ErrPasswordLength
	}

	classes := []string{upperChars, lowerChars, digitChars, symbolChars}
	pool := upperChars + lowerChars + digitChars + symbolChars

	out := make([]byte, length)
	for i := range out {
		charset := pool
		if i < len(classes) {
			charset = classes[i]
		}
		ch, err := randChar(charset)
		if err != nil {
			return "", err
		}
		out[i] = ch
	}

	if err := shuffle(out); err != nil {
		return "", err
	}

	return string(out), nil
}

func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}

// shuffle is a Fisher-Yates shuffle driven by crypto/rand.
func shuffle(data []byte) error {
	for i := len(data) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		data[i], data[j.Int64()] = data[j.Int64()], data[i]
	}
	return nil
}
