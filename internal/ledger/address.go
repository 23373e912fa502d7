package ledger

import (
	"errors"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

var ErrInvalidAddress = errors.New("invalid address")

// DecodeAddress valida y decodifica una direccion base58 de 32 bytes.
func DecodeAddress(address string) ([32]byte, error) {
	var key [32]byte
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != 32 {
		return key, ErrInvalidAddress
	}
	copy(key[:], raw)
	return key, nil
}

// ValidateRecipient exige ademas que la clave este sobre la curva ed25519:
// solo cuentas controlables por una firma pueden recibir una transferencia
// propuesta por el asistente.
func ValidateRecipient(address string) error {
	key, err := DecodeAddress(address)
	if err != nil {
		return err
	}
	if _, err := new(edwards25519.Point).SetBytes(key[:]); err != nil {
		return ErrInvalidAddress
	}
	return nil
}
