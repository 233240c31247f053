package signal

import (
	"errors"
	"strings"
	"testing"

	"github.com/pion/webrtc/v4"
)

const sampleSDP = "v=0\r\no=- 4815162342 2 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\n" +
	"a=group:BUNDLE 0\r\nm=application 9 UDP/DTLS/SCTP webrtc-datachannel\r\n" +
	"c=IN IP4 0.0.0.0\r\na=ice-ufrag:aBcD\r\na=ice-pwd:eFgHiJkLmNoPqRsTuVwX\r\n" +
	"a=fingerprint:sha-256 00:11:22:33:44:55:66:77:88:99:AA:BB:CC:DD:EE:FF:" +
	"00:11:22:33:44:55:66:77:88:99:AA:BB:CC:DD:EE:FF\r\na=setup:actpass\r\n" +
	"a=mid:0\r\na=sctp-port:5000\r\n"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	descs := []webrtc.SessionDescription{
		{Type: webrtc.SDPTypeOffer, SDP: sampleSDP},
		{Type: webrtc.SDPTypeAnswer, SDP: sampleSDP},
		{Type: webrtc.SDPTypeOffer, SDP: "v=0\r\ns=-\r\n"},
	}

	for _, original := range descs {
		token, err := Encode(original)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		if strings.ContainsAny(token, "+/=") {
			t.Errorf("token contains unsafe characters: %q", token)
		}

		decoded, err := Decode(token)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if decoded != original {
			t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, original)
		}
	}
}

func TestDecodeRejectsBadTokens(t *testing.T) {
	valid, err := Encode(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sampleSDP})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"non-alphabet", "not!a*valid+token/at=all"},
		{"truncated", valid[:len(valid)/2]},
		{"corrupted payload", "AAAAAAAAAAAAAAAAAAAAAAAA"},
		{"plain text", "hello there"},
	}

	for _, tt := range tests {
		_, err := Decode(tt.token)
		if err == nil {
			t.Errorf("%s: expected error, got none", tt.name)
			continue
		}
		var decErr *DecodeError
		if !errors.As(err, &decErr) {
			t.Errorf("%s: expected *DecodeError, got %T (%v)", tt.name, err, err)
		}
	}
}

func TestDecodeRejectsNonDescriptionPayload(t *testing.T) {
	// Valid compression wrapping something that is not an offer/answer.
	token, err := Encode(webrtc.SessionDescription{})
	if err == nil {
		if _, err := Decode(token); err == nil {
			t.Error("expected error decoding empty description")
		}
	}
}

func TestTokenFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123", "abc123"},
		{"https://example.com/play?code=abc123", "abc123"},
		{"https://example.com/play?game=pong&code=abc123", "abc123"},
		{"  abc123\n", "abc123"},
		{"https://example.com/play", "https://example.com/play"},
	}

	for _, tt := range tests {
		if got := TokenFromURL(tt.in); got != tt.want {
			t.Errorf("TokenFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeDoesNotPanic(t *testing.T) {
	// Fuzz-ish sweep over junk inputs; decode must fail cleanly.
	for _, junk := range []string{"=", "====", "\x00\x01\x02", strings.Repeat("A", 3), "ðŸŽ®"} {
		if _, err := Decode(junk); err == nil {
			t.Errorf("expected error for %q", junk)
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	desc := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sampleSDP}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Encode(desc)
	}
}

func BenchmarkDecode(b *testing.B) {
	desc := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sampleSDP}
	token, _ := Encode(desc)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decode(token)
	}
}
