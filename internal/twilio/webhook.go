package twilio

import (
	"net/http"
	"strings"

	"github.com/edgard/recallbot/internal/relay"
)

// handleWebhook processes one inbound SMS. Handling failures are reported in
// the TwiML reply text with HTTP 200 so Twilio does not retry the message;
// only malformed requests get a non-200 status.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.logger.Error("Failed to parse webhook form", "error", err)
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	if s.validateSignature {
		signature := r.Header.Get("X-Twilio-Signature")
		if !ValidateSignature(s.authToken, s.publicURL, r.PostForm, signature) {
			s.logger.Warn("Rejected webhook with invalid signature", "remote_addr", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}
	}

	msg := relay.InboundMessage{
		Body:      strings.TrimSpace(r.PostFormValue("Body")),
		Sender:    r.PostFormValue("From"),
		MessageID: r.PostFormValue("MessageSid"),
	}

	if msg.Sender == "" {
		s.logger.Warn("Webhook without sender address", "message_id", msg.MessageID)
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}

	reply, err := s.handler.HandleMessage(r.Context(), msg)
	if err != nil {
		s.logger.Error("Message handling failed", "error", err, "sender", msg.Sender, "message_id", msg.MessageID)
		reply = s.messages.GeneralError
	}

	if err := WriteTwiML(w, reply); err != nil {
		s.logger.Error("Failed to write TwiML response", "error", err)
	}
}
