// internal/handler/response.go
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func sendJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func sendError(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"success": false,
		"message": message,
	}
	if err != nil {
		response["error"] = err.Error()
	}
	sendJSON(w, statusCode, response)
}

// sendAirtelXML answers in the wire format the Airtel switch expects when it
// delivered an XML body.
func sendAirtelXML(w http.ResponseWriter, status, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "<COMMAND><STATUS>%s</STATUS><MESSAGE>%s</MESSAGE></COMMAND>", status, message)
}
