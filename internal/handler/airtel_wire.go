// internal/handler/airtel_wire.go
package handler

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"airtel-ipn-service/internal/domain"
)

// isXMLBody reports whether the switch delivered the Airtel XML wire format
// instead of JSON.
func isXMLBody(body []byte) bool {
	return strings.HasPrefix(strings.TrimSpace(string(body)), "<")
}

// parseFlatXML decodes a flat one-level XML document (the Airtel COMMAND
// format) into an element->text map.
func parseFlatXML(body []byte) (map[string]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	data := make(map[string]string)

	var current string
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.CharData:
			if current == "" {
				continue
			}
			if value := strings.TrimSpace(string(t)); value != "" {
				data[current] = value
			}
		case xml.EndElement:
			current = ""
		}
	}

	if len(data) == 0 {
		return nil, errors.New("empty XML document")
	}
	return data, nil
}

// Airtel C2B element names, mapped onto the JSON contract fields.
func validationRequestFromAirtel(data map[string]string) *domain.ValidationRequest {
	amount, _ := strconv.ParseFloat(data["AMOUNT"], 64)
	return &domain.ValidationRequest{
		TransactionID:  data["REFERENCE1"],
		BillRefNumber:  data["REFERENCE"],
		Amount:         amount,
		MSISDN:         data["CUSTOMERMSISDN"],
		MerchantMSISDN: data["MERCHANTMSISDN"],
	}
}

func processingRequestFromAirtel(data map[string]string) *domain.ProcessingRequest {
	settled, _ := strconv.ParseFloat(data["AMOUNT"], 64)
	req := &domain.ProcessingRequest{
		ValidationRequest:  *validationRequestFromAirtel(data),
		SettledAmount:      settled,
		MobiquityReference: data["REFERENCE2"],
	}
	if req.Amount == 0 {
		req.Amount = settled
	}
	return req
}
