/*
Package randx provides generators for unique identifiers and room codes.

User identifiers are standard UUID v4 strings; generated room codes are
fixed-length Base62 strings produced with crypto/rand.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// RoomCodeLength is the fixed length of a generated room code.
	RoomCodeLength = 6
)

// UserID generates a UUID v4 string used as the identifier for a relay user.
func UserID() string {
	return uuid.New().String()
}

// MessageID generates a UUID v4 string used as the identifier for a retained message.
func MessageID() string {
	return uuid.New().String()
}

// RoomCode generates a Base62 room code using crypto/rand.
// It is used when a room is created without an explicit identifier.
func RoomCode() (string, error) {
	result := make([]byte, RoomCodeLength)

	for i := 0; i < RoomCodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for room code: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// IsBase62 reports whether every character of s belongs to the Base62 set.
func IsBase62(s string) bool {
	for _, char := range s {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return len(s) > 0
}
