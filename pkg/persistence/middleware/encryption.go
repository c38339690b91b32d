package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/relay/pkg/ports"
)

// envelopePrefix marks a Report field that carries sealed content.
const envelopePrefix = "sealed:v1:"

// ErrKeySize is returned when a key is not 32 bytes long.
var ErrKeySize = errors.New("encryption key must be 32 bytes (AES-256)")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey seals new records. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot open a record.
	// This enables key rotation without rewriting the history.
	FallbackKeys [][]byte
}

// sealed is the content hidden inside the envelope.
type sealed struct {
	Task       string `json:"task"`
	Summary    string `json:"summary"`
	Report     string `json:"report"`
	Diagnostic string `json:"diagnostic"`
}

type encryptionMiddleware struct {
	next ports.HistoryStore
	keys keyring
}

// NewEncryptionMiddleware seals the free-text fields of every record with AES-GCM.
// Identifiers, status, path and timings stay readable so history listings still work.
// The record ID is bound to its envelope, so sealed content cannot be moved between runs.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	keys, err := newKeyring(append([][]byte{config.ActiveKey}, config.FallbackKeys...))
	if err != nil {
		return nil, err
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &encryptionMiddleware{next: next, keys: keys}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, rec ports.RunRecord) error {
	content, err := json.Marshal(sealed{
		Task:       rec.Task,
		Summary:    rec.Summary,
		Report:     rec.Report,
		Diagnostic: rec.Diagnostic,
	})
	if err != nil {
		return fmt.Errorf("encoding run %s: %w", rec.ID, err)
	}
	box, err := m.keys.seal(content, []byte(rec.ID))
	if err != nil {
		return fmt.Errorf("sealing run %s: %w", rec.ID, err)
	}

	envelope := rec
	envelope.Task, envelope.Summary, envelope.Diagnostic = "", "", ""
	envelope.Report = envelopePrefix + base64.StdEncoding.EncodeToString(box)
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (ports.RunRecord, error) {
	rec, err := m.next.Load(ctx, id)
	if err != nil {
		return ports.RunRecord{}, err
	}
	return m.open(rec)
}

func (m *encryptionMiddleware) List(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	recs, err := m.next.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i], err = m.open(recs[i]); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

// open fails on records without an envelope: a store configured for
// encryption never returns plain content.
func (m *encryptionMiddleware) open(rec ports.RunRecord) (ports.RunRecord, error) {
	encoded, ok := strings.CutPrefix(rec.Report, envelopePrefix)
	if !ok {
		return ports.RunRecord{}, fmt.Errorf("run %s is missing its encrypted envelope", rec.ID)
	}
	box, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ports.RunRecord{}, fmt.Errorf("run %s: malformed envelope: %w", rec.ID, err)
	}
	content, err := m.keys.open(box, []byte(rec.ID))
	if err != nil {
		return ports.RunRecord{}, fmt.Errorf("run %s: %w", rec.ID, err)
	}
	var s sealed
	if err := json.Unmarshal(content, &s); err != nil {
		return ports.RunRecord{}, fmt.Errorf("run %s: decoding sealed content: %w", rec.ID, err)
	}
	rec.Task, rec.Summary, rec.Report, rec.Diagnostic = s.Task, s.Summary, s.Report, s.Diagnostic
	return rec, nil
}

// keyring holds one AEAD per key. The first seals; all of them are tried on open.
type keyring []cipher.AEAD

func newKeyring(keys [][]byte) (keyring, error) {
	ring := make(keyring, 0, len(keys))
	for _, k := range keys {
		if len(k) != 32 {
			return nil, ErrKeySize
		}
		block, err := aes.NewCipher(k)
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		ring = append(ring, aead)
	}
	return ring, nil
}

// seal returns nonce||ciphertext.
func (r keyring) seal(content, bound []byte) ([]byte, error) {
	active := r[0]
	nonce := make([]byte, active.NonceSize(), active.NonceSize()+len(content)+active.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return active.Seal(nonce, nonce, content, bound), nil
}

func (r keyring) open(box, bound []byte) ([]byte, error) {
	for _, aead := range r {
		n := aead.NonceSize()
		if len(box) < n {
			return nil, errors.New("envelope too short")
		}
		if content, err := aead.Open(nil, box[:n], box[n:], bound); err == nil {
			return content, nil
		}
	}
	return nil, errors.New("no configured key opens the envelope")
}
