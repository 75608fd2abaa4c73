package firmasegura

import (
	"strings"

	"github.com/blnkfinance/certify/model"
	"github.com/mitchellh/mapstructure"
)

const statusCompleted = "COMPLETED"

type submissionBody struct {
	ValidationStatus string `mapstructure:"validationStatus"`
}

type statusBody struct {
	Status           string   `mapstructure:"status"`
	ValidationStatus string   `mapstructure:"validationStatus"`
	Message          string   `mapstructure:"message"`
	Messages         []string `mapstructure:"messages"`
}

type errorBody struct {
	Messages []string `mapstructure:"messages"`
	Error    string   `mapstructure:"error"`
	Message  string   `mapstructure:"message"`
}

func decode(data map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}

// acceptedValidationStatus reads the validation status of an accepted submission,
// falling back to REGISTERED when it is absent or not a progress value.
func acceptedValidationStatus(data map[string]interface{}) model.ValidationStatus {
	var body submissionBody
	if err := decode(data, &body); err != nil {
		return model.ValidationRegistered
	}
	switch v := model.ValidationStatus(strings.TrimSpace(body.ValidationStatus)); v {
	case model.ValidationRegistered, model.ValidationValidating, model.ValidationApproved:
		return v
	}
	return model.ValidationRegistered
}

// errorMessage extracts a human readable reason from an error body. The order is
// messages list, error field, message field, then the fallback text.
func errorMessage(data map[string]interface{}, fallback string) string {
	if data == nil {
		return fallback
	}
	var body errorBody
	if err := decode(data, &body); err != nil {
		return fallback
	}
	messages := nonEmpty(body.Messages)
	if len(messages) > 0 {
		return strings.Join(messages, ", ")
	}
	if s := strings.TrimSpace(body.Error); s != "" {
		return s
	}
	if s := strings.TrimSpace(body.Message); s != "" {
		return s
	}
	return fallback
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// mapStatus turns a status response into an internal validation status. The
// boolean is false when the response carries no primary status field, and the
// returned status is empty when nothing should change.
func mapStatus(data map[string]interface{}) (model.ValidationStatus, bool) {
	var body statusBody
	if err := decode(data, &body); err != nil {
		return "", false
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if status == "" {
		return "", false
	}
	secondary := strings.ToUpper(strings.TrimSpace(body.ValidationStatus))

	if status == string(model.ValidationApproved) {
		if secondary == statusCompleted {
			return model.ValidationGenerated, true
		}
		return model.ValidationApproved, true
	}
	if model.IsKnownValidationStatus(secondary) {
		return model.ValidationStatus(secondary), true
	}
	return "", true
}

func statusMessage(data map[string]interface{}) string {
	var body statusBody
	if err := decode(data, &body); err != nil {
		return ""
	}
	if messages := nonEmpty(body.Messages); len(messages) > 0 {
		return strings.Join(messages, ", ")
	}
	return strings.TrimSpace(body.Message)
}
