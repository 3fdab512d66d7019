package dispatch

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// encryptPayload wraps payload in AES-CTR using key (16 or 32 bytes), the
// same construction the LoRaWAN join/session key path uses to wrap frame
// payloads: a random IV prefixed to the ciphertext. A nil or empty key
// leaves the payload in the clear, for channels that don't carry a PSK.
func encryptPayload(key, payload []byte) ([]byte, error) {
	if len(key) == 0 {
		return payload, nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("dispatch: psk encrypt: %w", err)
	}
	out := make([]byte, aes.BlockSize+len(payload))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("dispatch: psk encrypt: iv: %w", err)
	}
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out[aes.BlockSize:], payload)
	return out, nil
}

// decryptPayload is the inverse of encryptPayload, used by tests and by any
// loopback interface that round-trips a channel locally.
func decryptPayload(key, ciphertext []byte) ([]byte, error) {
	if len(key) == 0 {
		return ciphertext, nil
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, fmt.Errorf("dispatch: psk decrypt: ciphertext too short")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("dispatch: psk decrypt: %w", err)
	}
	iv := ciphertext[:aes.BlockSize]
	out := make([]byte, len(ciphertext)-aes.BlockSize)
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out, ciphertext[aes.BlockSize:])
	return out, nil
}
