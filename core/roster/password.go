package roster

import (
	"crypto/rand"
	"io"
	"math/big"
	"strings"
)

const (
	passwordLength  = 8
	passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@#$%"
)

var randReader io.Reader = rand.Reader // mockable

// GeneratePassword returns a one-time password drawn uniformly from passwordCharset.
func GeneratePassword() (string, error) {
	var b strings.Builder
	b.Grow(passwordLength)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := 0; i < passwordLength; i++ {
		n, err := rand.Int(randReader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordCharset[n.Int64()])
	}
	return b.String(), nil
}
