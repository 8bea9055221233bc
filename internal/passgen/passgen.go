// Package passgen generates random passwords for new credential records.
package passgen

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	symbols   = "!@#$%^&*()-_=+[]{};:,.<>?"
)

const (
	MinLength     = 8
	MaxLength     = 128
	DefaultLength = 20
)

// Options selects the character classes for Generate. Letters are always
// included.
type Options struct {
	Length  int
	Digits  bool
	Symbols bool
}

// DefaultOptions matches what the CLI offers before any prompts.
func DefaultOptions() Options {
	return Options{Length: DefaultLength, Digits: true, Symbols: true}
}

// Generate returns a random password drawn with crypto/rand. Every enabled
// character class is guaranteed at least one occurrence.
func Generate(opts Options) (string, error) {
	if opts.Length < MinLength || opts.Length > MaxLength {
		return "", errors.New("password length out of range")
	}

	classes := []string{lowercase, uppercase}
	if opts.Digits {
		classes = append(classes, digits)
	}
	if opts.Symbols {
		classes = append(classes, symbols)
	}

	alphabet := strings.Join(classes, "")
	out := make([]byte, opts.Length)

	// one char from each class first, rest from the full alphabet
	for i := range out {
		source := alphabet
		if i < len(classes) {
			source = classes[i]
		}
		c, err := randByte(source)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	// shuffle so the guaranteed class chars do not cluster at the front
	for i := len(out) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func randByte(alphabet string) (byte, error) {
	i, err := randInt(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
