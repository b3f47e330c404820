package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleWhatsAppVerify(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do("GET", "/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=1158201444", "", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "1158201444" {
		t.Errorf("got %d %q, want the challenge echoed", rr.Code, rr.Body.String())
	}

	rr = ts.do("GET", "/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=1", "", nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("wrong token: expected 403, got %d", rr.Code)
	}
}

func TestHandleWhatsAppWebhook(t *testing.T) {
	ts := newTestServer(t)
	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"changes": [{
				"value": {
					"messages": [
						{"from": "919800000001", "type": "text", "text": {"body": "What are office hours?"}},
						{"from": "919800000002", "type": "image"}
					]
				}
			}]
		}]
	}`

	rr := ts.do("POST", "/whatsapp/webhook", "", strings.NewReader(payload))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(ts.channels.whatsapp) != 1 || ts.channels.whatsapp[0] != "919800000001:What are office hours?" {
		t.Errorf("handled = %v, want only the text message", ts.channels.whatsapp)
	}

	rr = ts.do("POST", "/whatsapp/webhook", "", strings.NewReader(""))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty body: expected 400, got %d", rr.Code)
	}
}

func TestHandleTelegramWebhook(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do("POST", "/telegram/webhook", "", strings.NewReader(`{"update_id":1,"message":{"chat":{"id":-100123},"text":"/start"}}`))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Fatalf("got %d %s", rr.Code, rr.Body.String())
	}
	if len(ts.channels.telegram) != 1 || ts.channels.telegram[0] != "-100123:/start" {
		t.Errorf("handled = %v", ts.channels.telegram)
	}

	// Updates without a message (edits, callbacks) are acknowledged and ignored
	rr = ts.do("POST", "/telegram/webhook", "", strings.NewReader(`{"update_id":2}`))
	if rr.Code != http.StatusOK || len(ts.channels.telegram) != 1 {
		t.Errorf("got %d, handled = %v", rr.Code, ts.channels.telegram)
	}
}

func TestChannelWebhooks_NotConfigured(t *testing.T) {
	s := NewServer(DefaultConfig(), Services{Auth: tokenAuth()}, nil)

	for _, tc := range []struct{ method, path string }{
		{"POST", "/telegram/webhook"},
		{"POST", "/whatsapp/webhook"},
	} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}")))
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: expected 503, got %d", tc.method, tc.path, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/whatsapp/webhook?hub.mode=subscribe", nil))
	if rr.Code != http.StatusForbidden {
		t.Errorf("verify without channel: expected 403, got %d", rr.Code)
	}
}
