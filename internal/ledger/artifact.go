package ledger

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"errors"
)

var (
	ErrArtifactMalformed = errors.New("malformed transaction artifact")
	ErrArtifactMismatch  = errors.New("signed artifact does not match the stored intent")
	ErrSignatureInvalid  = errors.New("transaction signature invalid")
)

const (
	systemProgram = "11111111111111111111111111111111"
	memoProgram   = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"

	systemTransferIndex = 2
)

// buildTransferMessage serializa un mensaje legacy con una instruccion de
// transferencia del System Program y, opcionalmente, una instruccion memo.
// Orden de cuentas: firmantes escribibles, escribibles, solo-lectura.
func buildTransferMessage(from, to [32]byte, lamports int64, memo string, blockhash [32]byte) []byte {
	system, _ := DecodeAddress(systemProgram)

	keys := [][32]byte{from, to, system}
	readonly := byte(1)
	if memo != "" {
		memoKey, _ := DecodeAddress(memoProgram)
		keys = append(keys, memoKey)
		readonly = 2
	}

	var buf []byte

	// Header: firmas requeridas, firmantes readonly, no-firmantes readonly.
	buf = append(buf, 1, 0, readonly)

	buf = appendShortvecLen(buf, len(keys))
	for _, key := range keys {
		buf = append(buf, key[:]...)
	}

	buf = append(buf, blockhash[:]...)

	instructions := 1
	if memo != "" {
		instructions = 2
	}
	buf = appendShortvecLen(buf, instructions)

	// System transfer: u32 indice de instruccion + u64 lamports, little endian.
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], systemTransferIndex)
	binary.LittleEndian.PutUint64(data[4:12], uint64(lamports))

	buf = append(buf, 2) // indice del System Program en keys
	buf = appendShortvecLen(buf, 2)
	buf = append(buf, 0, 1) // from, to
	buf = appendShortvecLen(buf, len(data))
	buf = append(buf, data...)

	if memo != "" {
		buf = append(buf, 3) // indice del Memo Program
		buf = appendShortvecLen(buf, 0)
		buf = appendShortvecLen(buf, len(memo))
		buf = append(buf, []byte(memo)...)
	}

	return buf
}

// wrapUnsigned antepone la seccion de firmas con un placeholder en cero; el
// wallet del usuario la completa al firmar.
func wrapUnsigned(message []byte) string {
	buf := make([]byte, 0, 1+64+len(message))
	buf = appendShortvecLen(buf, 1)
	buf = append(buf, make([]byte, 64)...)
	buf = append(buf, message...)
	return base64.StdEncoding.EncodeToString(buf)
}

// VerifySigned comprueba que el artefacto firmado corresponde al intent
// almacenado: mismos bytes de mensaje que el artefacto sin firmar, y primera
// firma valida del emisor. Un artefacto de otra transferencia, o firmado por
// otra clave, nunca debe llegar al ledger.
func VerifySigned(signedBase64, unsignedBase64 string, from [32]byte) error {
	signed, err := base64.StdEncoding.DecodeString(signedBase64)
	if err != nil {
		return ErrArtifactMalformed
	}
	unsigned, err := base64.StdEncoding.DecodeString(unsignedBase64)
	if err != nil {
		return ErrArtifactMalformed
	}

	sigs, message, err := splitArtifact(signed)
	if err != nil {
		return err
	}
	_, want, err := splitArtifact(unsigned)
	if err != nil {
		return err
	}

	if !bytes.Equal(message, want) {
		return ErrArtifactMismatch
	}
	if !ed25519.Verify(from[:], message, sigs[0]) {
		return ErrSignatureInvalid
	}
	return nil
}

// splitArtifact separa la seccion de firmas (shortvec + n*64 bytes) del
// mensaje serializado que le sigue.
func splitArtifact(raw []byte) ([][]byte, []byte, error) {
	count, consumed, err := readShortvecLen(raw)
	if err != nil || count == 0 {
		return nil, nil, ErrArtifactMalformed
	}
	raw = raw[consumed:]
	if len(raw) <= count*64 {
		return nil, nil, ErrArtifactMalformed
	}
	sigs := make([][]byte, count)
	for i := range sigs {
		sigs[i] = raw[i*64 : (i+1)*64]
	}
	return sigs, raw[count*64:], nil
}

// readShortvecLen decodifica un largo compact-u16 y devuelve cuantos bytes
// consumio.
func readShortvecLen(buf []byte) (int, int, error) {
	value, shift := 0, 0
	for i, b := range buf {
		value |= int(b&0x7f) << shift
		if b < 0x80 {
			return value, i + 1, nil
		}
		shift += 7
		if shift > 14 {
			break
		}
	}
	return 0, 0, ErrArtifactMalformed
}

// appendShortvecLen codifica un largo en compact-u16 (shortvec).
func appendShortvecLen(buf []byte, n int) []byte {
	for {
		if n < 0x80 {
			return append(buf, byte(n))
		}
		buf = append(buf, byte(n&0x7f)|0x80)
		n >>= 7
	}
}
