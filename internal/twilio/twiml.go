package twilio

import (
	"encoding/xml"
	"fmt"
	"net/http"
)

// messagingResponse is the TwiML envelope for replying to an inbound SMS.
type messagingResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// WriteTwiML renders message as a TwiML messaging response with HTTP 200.
func WriteTwiML(w http.ResponseWriter, message string) error {
	body, err := xml.Marshal(messagingResponse{Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal twiml: %w", err)
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, xmlDeclaration, string(body)); err != nil {
		return fmt.Errorf("failed to write twiml: %w", err)
	}
	return nil
}
