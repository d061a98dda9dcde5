package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	pinMin   = 10000
	pinRange = 90000
)

// PINSpace is the number of distinct 5-digit PINs GeneratePIN can return.
const PINSpace = pinRange

var pinPattern = regexp.MustCompile(`^[0-9]{5}$`)

// GeneratePIN returns a random PIN between 10000 and 99999.
func GeneratePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(pinRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%05d", pinMin+n.Int64()), nil
}

func ValidPIN(pin string) bool {
	return pinPattern.MatchString(pin)
}
