// Package password concentra el hashing de contraseñas del portal.
package password

import "golang.org/x/crypto/bcrypt"

// Hash genera un hash bcrypt con el costo por defecto.
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compara un hash contra una contraseña en claro.
func Verify(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
