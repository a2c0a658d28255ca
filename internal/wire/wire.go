// Package wire implements length-prefixed JSON framing and an
// HMAC-SHA256 pre-shared-key handshake, shared by the ingress listener
// and the egress delivery client.
package wire

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize bounds a single message to guard against a corrupt or
// hostile length prefix forcing an unbounded allocation.
const maxFrameSize = 16 * 1024 * 1024

// WriteFrame writes a length-prefixed JSON encoding of v to w.
func WriteFrame(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: marshal frame: %w", err)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("wire: write body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed JSON message from r into v.
func ReadFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("wire: read length: %w", err)
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > maxFrameSize {
		return fmt.Errorf("wire: frame of %d bytes exceeds limit", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("wire: read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("wire: unmarshal frame: %w", err)
	}
	return nil
}

// challenge is the server's opening frame: a random nonce the client
// must HMAC with the shared key to prove possession without sending the
// key itself.
type challenge struct {
	Nonce []byte `json:"nonce"`
}

type challengeResponse struct {
	MAC []byte `json:"mac"`
}

type challengeResult struct {
	OK bool `json:"ok"`
}

const nonceSize = 32

// ServerHandshake issues a random nonce, verifies the peer's HMAC over
// it using sharedKey, and reports whether authentication succeeded. The
// connection should be closed by the caller on failure.
func ServerHandshake(rw io.ReadWriter, sharedKey string) error {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("wire: generate nonce: %w", err)
	}
	if err := WriteFrame(rw, challenge{Nonce: nonce}); err != nil {
		return err
	}

	var resp challengeResponse
	if err := ReadFrame(rw, &resp); err != nil {
		return err
	}

	expected := mac(sharedKey, nonce)
	ok := subtle.ConstantTimeCompare(expected, resp.MAC) == 1

	if err := WriteFrame(rw, challengeResult{OK: ok}); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("wire: authentication failed")
	}
	return nil
}

// ClientHandshake answers the server's nonce challenge with sharedKey's
// HMAC and reports whether the server accepted it.
func ClientHandshake(rw io.ReadWriter, sharedKey string) error {
	var ch challenge
	if err := ReadFrame(rw, &ch); err != nil {
		return err
	}

	if err := WriteFrame(rw, challengeResponse{MAC: mac(sharedKey, ch.Nonce)}); err != nil {
		return err
	}

	var result challengeResult
	if err := ReadFrame(rw, &result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("wire: server rejected credentials")
	}
	return nil
}

func mac(key string, nonce []byte) []byte {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(nonce)
	return h.Sum(nil)
}
