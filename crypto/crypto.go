package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"golang.org/x/crypto/scrypt"
)

const (
	MaxCost     = 30
	MinCost     = 6
	MinSaltSize = 8

	saltSize = 32
)

var (
	ErrNotSealed = errors.New("Input is not sealed")
	ErrAuth      = errors.New("Message authentication failed")
)

type KeySlice []byte

// Sealer encrypts gallery payloads at rest. The key is derived once with a
// random salt, each sealed message carries that salt and its own nonce.
type Sealer struct {
	passphrase []byte
	salt       []byte
	cost       uint8
	aead       cipher.AEAD

	sem  sync.Mutex
	keys map[string]cipher.AEAD
}

func NewSealer(passphrase []byte, cost uint8) (*Sealer, error) {
	salt, err := salt(saltSize)
	if err != nil {
		return nil, err
	}

	key, err := Key(passphrase, salt, cost)
	if err != nil {
		return nil, err
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	s := &Sealer{
		passphrase: passphrase,
		salt:       salt,
		cost:       cost,
		aead:       aead,
		keys:       make(map[string]cipher.AEAD),
	}
	s.keys[string(header(cost, salt))] = aead

	return s, nil
}

// Seal output: cost | salt length | salt | nonce | ciphertext
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	hdr := header(s.cost, s.salt)
	out := make([]byte, 0, len(hdr)+len(nonce)+len(plain)+s.aead.Overhead())
	out = append(out, hdr...)
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plain, hdr), nil
}

// Open decrypts data sealed with the same passphrase, regardless of the
// salt and cost it was sealed with.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	r := bytes.NewReader(sealed)
	var cost uint8
	var size uint16
	if binary.Read(r, binary.LittleEndian, &cost) != nil {
		return nil, ErrNotSealed
	}
	if binary.Read(r, binary.LittleEndian, &size) != nil {
		return nil, ErrNotSealed
	}

	hdrLen := 3 + int(size)
	if len(sealed) < hdrLen {
		return nil, ErrNotSealed
	}

	hdr := sealed[:hdrLen]
	aead, err := s.aeadFor(hdr, cost)
	if err != nil {
		return nil, err
	}

	rest := sealed[hdrLen:]
	if len(rest) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrNotSealed
	}

	nonce := rest[:aead.NonceSize()]
	plain, err := aead.Open(nil, nonce, rest[aead.NonceSize():], hdr)
	if err != nil {
		return nil, ErrAuth
	}

	return plain, nil
}

func (s *Sealer) aeadFor(hdr []byte, cost uint8) (cipher.AEAD, error) {
	s.sem.Lock()
	defer s.sem.Unlock()
	if aead, ok := s.keys[string(hdr)]; ok {
		return aead, nil
	}

	key, err := Key(s.passphrase, hdr[3:], cost)
	if err != nil {
		return nil, ErrNotSealed
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	s.keys[string(hdr)] = aead
	return aead, nil
}

func Key(passphrase, salt []byte, cost uint8) (KeySlice, error) {
	if cost > MaxCost {
		return nil, errors.New("scrypt cost too high")
	} else if cost < MinCost {
		return nil, errors.New("scrypt cost too low")
	}

	if len(salt) < MinSaltSize {
		return nil, errors.New("Salt too short")
	}

	return scrypt.Key(passphrase, salt, 1<<cost, 8, 1, 32)
}

func header(cost uint8, salt []byte) []byte {
	hdr := make([]byte, 3, 3+len(salt))
	hdr[0] = cost
	binary.LittleEndian.PutUint16(hdr[1:], uint16(len(salt)))
	return append(hdr, salt...)
}

func newAEAD(key KeySlice) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func salt(size int) ([]byte, error) {
	salt := make([]byte, size)
	_, err := io.ReadFull(rand.Reader, salt)
	return salt, err
}
