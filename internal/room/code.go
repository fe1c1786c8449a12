package room

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	codeLength  = 4
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// GenerateCode returns a random room code of four uppercase letters
func GenerateCode() string {
	result := make([]byte, codeLength)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		result[i] = codeCharset[n.Int64()]
	}
	return string(result)
}

// NormalizeCode upper-cases and trims user input; ok is false if it cannot be a code
func NormalizeCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLength {
		return "", false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", false
		}
	}
	return code, true
}
