package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Ingredient is one layer of a drink recipe. Name is only present in the
// long representation.
type Ingredient struct {
	Name  string `json:"name,omitempty"`
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// Drink as returned by the backend.
type Drink struct {
	ID     int          `json:"id,omitempty"`
	Title  string       `json:"title"`
	Recipe []Ingredient `json:"recipe"`
}

type drinkPayload struct {
	Title  string       `json:"title,omitempty"`
	Recipe []Ingredient `json:"recipe,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Drinks  json.RawMessage `json:"drinks,omitempty"`
	Error   int             `json:"error,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

// APIError is a non-successful backend response.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrUnexpectedStatus
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Code: status}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}
	if env.Error != 0 {
		apiErr.Code = env.Error
	}
	apiErr.Message = decodeMessage(env.Message)
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// decodeMessage accepts both plain messages and the auth error object
// {"code": ..., "description": ...}.
func decodeMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var obj struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj.Code != "" && obj.Description != "":
			return obj.Code + ": " + obj.Description
		case obj.Description != "":
			return obj.Description
		default:
			return obj.Code
		}
	}
	return string(raw)
}

// decodeDrinks handles the backend answering with a list or a single drink
// object. Delete responses carry a bare id and are not decoded here.
func decodeDrinks(raw json.RawMessage) ([]Drink, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []Drink{}, nil
	}
	switch raw[0] {
	case '[':
		var drinks []Drink
		if err := json.Unmarshal(raw, &drinks); err != nil {
			return nil, fmt.Errorf("decode drinks: %w", err)
		}
		return drinks, nil
	case '{':
		var drink Drink
		if err := json.Unmarshal(raw, &drink); err != nil {
			return nil, fmt.Errorf("decode drink: %w", err)
		}
		return []Drink{drink}, nil
	default:
		return nil, fmt.Errorf("decode drinks: unexpected payload %s", raw)
	}
}
