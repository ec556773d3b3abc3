package backup

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// Version of the encrypted snapshot envelope written to disk.
const envelopeVersion = 1

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// snapshot has been modified.
var ErrWrongPassphrase = errors.New("backup: wrong passphrase or corrupted snapshot")

// envelope is the on-disk JSON structure of an encrypted snapshot.
type envelope struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// scrypt cost parameters; variables so tests can lower them.
var scryptN, scryptR, scryptP = 1 << 15, 8, 1

// seal derives a key from passphrase and encrypts raw into an envelope.
func seal(passphrase string, raw []byte) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return json.Marshal(envelope{
		V:      envelopeVersion,
		Salt:   salt,
		N:      scryptN,
		R:      scryptR,
		P:      scryptP,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, raw, salt),
	})
}

// open decrypts an envelope produced by seal.
func open(passphrase string, b []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, ErrWrongPassphrase
	}
	if env.V > envelopeVersion {
		return nil, fmt.Errorf("backup: unsupported envelope version %d", env.V)
	}

	key, err := scrypt.Key([]byte(passphrase), env.Salt, env.N, env.R, env.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, ErrWrongPassphrase
	}
	pt, err := aead.Open(nil, env.Nonce, env.Cipher, env.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
