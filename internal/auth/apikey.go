package auth

import "golang.org/x/crypto/bcrypt"

// HashAPIKey hashes a device API key with configured cost.
func HashAPIKey(apiKey string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(apiKey), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareAPIKey verifies an API key against its hashed value.
func CompareAPIKey(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
