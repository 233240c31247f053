package negotiate

import (
	"context"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/matejkoncal/p2p-arcade/internal/signal"
)

func testConfig() Config {
	cfg := DefaultConfig()
	// Tests never reach a network; bound the candidate wait tightly.
	cfg.ICEServers = nil
	cfg.GatherTimeout = 500 * time.Millisecond
	return cfg
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateNone, "none"},
		{StateCreatingOffer, "creating-offer"},
		{StateAwaitingCandidates, "awaiting-candidates"},
		{StateAwaitingAnswer, "awaiting-answer"},
		{StateConnected, "connected"},
		{StateClosed, "closed"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestHostOfferProducesDecodableToken(t *testing.T) {
	p, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.Close()

	token, err := p.CreateOffer(context.Background())
	if err != nil {
		t.Fatalf("CreateOffer failed: %v", err)
	}

	desc, err := signal.Decode(token)
	if err != nil {
		t.Fatalf("offer token not decodable: %v", err)
	}
	if desc.Type != webrtc.SDPTypeOffer {
		t.Errorf("expected offer, got %s", desc.Type)
	}
	if p.State() != StateAwaitingAnswer {
		t.Errorf("expected awaiting-answer, got %s", p.State())
	}
}

func TestOfferAnswerExchange(t *testing.T) {
	host, err := New(testConfig())
	if err != nil {
		t.Fatalf("New host failed: %v", err)
	}
	defer host.Close()

	guest, err := New(testConfig())
	if err != nil {
		t.Fatalf("New guest failed: %v", err)
	}
	defer guest.Close()

	offerToken, err := host.CreateOffer(context.Background())
	if err != nil {
		t.Fatalf("CreateOffer failed: %v", err)
	}

	answerToken, err := guest.AcceptOffer(context.Background(), offerToken)
	if err != nil {
		t.Fatalf("AcceptOffer failed: %v", err)
	}

	desc, err := signal.Decode(answerToken)
	if err != nil {
		t.Fatalf("answer token not decodable: %v", err)
	}
	if desc.Type != webrtc.SDPTypeAnswer {
		t.Errorf("expected answer, got %s", desc.Type)
	}

	if err := host.AcceptAnswer(answerToken); err != nil {
		t.Fatalf("AcceptAnswer failed: %v", err)
	}
}

func TestAcceptOfferRejectsBadToken(t *testing.T) {
	p, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.Close()

	if _, err := p.AcceptOffer(context.Background(), "not!a@token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
	// A failed decode leaves the attempt reusable.
	if p.State() != StateNone {
		t.Errorf("decode failure changed state to %s", p.State())
	}
}

func TestAcceptOfferRejectsAnswerToken(t *testing.T) {
	token, err := signal.Encode(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  "v=0\r\ns=-\r\n",
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	p, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.Close()

	if _, err := p.AcceptOffer(context.Background(), token); err == nil {
		t.Fatal("expected error when given an answer instead of an offer")
	}
}

func TestAcceptAnswerWithoutOffer(t *testing.T) {
	token, err := signal.Encode(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  "v=0\r\ns=-\r\n",
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	p, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.Close()

	if err := p.AcceptAnswer(token); err == nil {
		t.Fatal("expected error accepting an answer with no outstanding offer")
	}
}

func TestCreateOfferTwiceFails(t *testing.T) {
	p, err := New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.Close()

	if _, err := p.CreateOffer(context.Background()); err != nil {
		t.Fatalf("CreateOffer failed: %v", err)
	}
	if _, err := p.CreateOffer(context.Background()); err == nil {
		t.Fatal("expected error for a second offer on the same peer")
	}
}
