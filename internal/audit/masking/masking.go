package masking

import "strings"

const maskToken = "****"

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	at := strings.LastIndex(trimmed, "@")
	if at <= 0 {
		return MaskSecret(trimmed)
	}
	return trimmed[:1] + maskToken + trimmed[at:]
}

// MaskSecret redacts a value while keeping its last four characters.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// contactKeys are metadata keys that hold vendor contact details.
var contactKeys = map[string]func(string) string{
	"vendor_email": MaskEmail,
	"vendor_phone": MaskSecret,
}

// MaskContacts returns a copy of the metadata with vendor contact values masked.
func MaskContacts(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		if mask, ok := contactKeys[trimmedKey]; ok {
			if s, isString := value.(string); isString {
				out[trimmedKey] = mask(s)
				continue
			}
		}
		out[trimmedKey] = value
	}
	return out
}
