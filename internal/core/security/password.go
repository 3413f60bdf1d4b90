package security

import "golang.org/x/crypto/bcrypt"

// HashSecret hashes a password, PIN, or app secret for storage.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckSecret reports whether the presented secret matches the stored hash.
func CheckSecret(storedHash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret)) == nil
}
