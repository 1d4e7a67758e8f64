package types

// redactedPlaceholder is the string used to replace secret values in logs and
// serialization.
const redactedPlaceholder = "***REDACTED***"

// redactedJSON is the pre-computed JSON encoding of the redacted placeholder.
var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString is a string type that prevents accidental logging or
// serialization of sensitive values (provider API keys, database URLs).
// Use Unmask() to retrieve the raw plaintext value when it is genuinely
// needed, e.g. when building an Authorization header.
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw plaintext value of the secret.
func (s SecretString) Unmask() string {
	return string(s)
}
