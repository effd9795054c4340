package common

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// GetStringValue retrieves a string value from a map using multiple possible keys
// It tries each key in order and returns the first non-empty value found
func GetStringValue(data map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if val, ok := data[key]; ok {
			if strVal, ok := val.(string); ok && strVal != "" {
				return strVal, true
			}
		}
	}
	return "", false
}

// WriteJSON writes body as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// ReturnJSONError writes a JSON error response with the given status code and message
func ReturnJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    statusCode,
			"message": message,
		},
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		// If JSON encoding fails, fall back to plain text
		_, _ = w.Write([]byte(fmt.Sprintf("Error: %s", message)))
	}
}
