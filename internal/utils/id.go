package utils

import "crypto/rand"

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// bytes at or above this value are rejected so every symbol is equally likely
const idRejectAbove = 256 - 256%len(idAlphabet)

// GenerateID returns a random string of the given length over [a-z0-9].
func GenerateID(length int) (string, error) {
	out := make([]byte, 0, length)
	buffer := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buffer); err != nil {
			return "", err
		}
		for _, b := range buffer {
			if int(b) >= idRejectAbove {
				continue
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
