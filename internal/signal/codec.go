// Package signal implements the out-of-band token codec for manual
// signaling. A session description is serialized, compressed and mapped
// into a URL- and paste-safe alphabet so it can travel as a query
// parameter or through a clipboard.
package signal

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/pion/webrtc/v4"
)

// QueryKey is the URL query parameter the offer token is carried in.
const QueryKey = "code"

// DecodeError reports a malformed or truncated token. It is
// user-recoverable: the caller surfaces it as an "invalid code" condition
// and leaves connection state untouched.
type DecodeError struct {
	Stage string // which decoding stage rejected the token
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode token: %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode turns a session description into a compact token. The token uses
// the unpadded base64 URL alphabet, so it contains no '+', '/' or '='
// and survives both query parameters and plain-text paste.
func Encode(desc webrtc.SessionDescription) (string, error) {
	raw, err := json.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("marshal description: %w", err)
	}

	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("deflate init: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("deflate flush: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode inverts Encode. It fails with a *DecodeError on tokens containing
// characters outside the alphabet, on truncated or corrupted compressed
// payloads, and on payloads that do not describe an offer or answer.
func Decode(token string) (webrtc.SessionDescription, error) {
	var desc webrtc.SessionDescription

	token = strings.TrimSpace(token)
	if token == "" {
		return desc, &DecodeError{Stage: "alphabet", Err: errors.New("empty token")}
	}

	compressed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return desc, &DecodeError{Stage: "alphabet", Err: err}
	}

	zr := flate.NewReader(bytes.NewReader(compressed))
	raw, err := io.ReadAll(zr)
	if err != nil {
		return desc, &DecodeError{Stage: "inflate", Err: err}
	}
	if err := zr.Close(); err != nil {
		return desc, &DecodeError{Stage: "inflate", Err: err}
	}

	if err := json.Unmarshal(raw, &desc); err != nil {
		return desc, &DecodeError{Stage: "description", Err: err}
	}
	if desc.SDP == "" {
		return desc, &DecodeError{Stage: "description", Err: errors.New("empty session description")}
	}
	if desc.Type != webrtc.SDPTypeOffer && desc.Type != webrtc.SDPTypeAnswer {
		return desc, &DecodeError{Stage: "description", Err: fmt.Errorf("unexpected kind %q", desc.Type)}
	}

	return desc, nil
}

// TokenFromURL extracts the raw token from s, which may be the token
// itself or a full URL carrying it under QueryKey. The codec only ever
// sees raw tokens; this is the caller-side strip step.
func TokenFromURL(s string) string {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	if v := u.Query().Get(QueryKey); v != "" {
		return v
	}
	return s
}
