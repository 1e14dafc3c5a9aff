package core

import (
	"encoding/json"
	"fmt"
)

// DocumentStatus is the ingestion lifecycle state of a document.
//
// Transitions: StatusUploaded -> StatusProcessing -> StatusProcessed or
// StatusError. Re-processing is allowed from any state except StatusProcessing,
// which acts as an advisory lock against concurrent ingestion runs for the
// same document.
type DocumentStatus int

const (
	// StatusUploaded is the initial state, set when the raw file is durably stored.
	StatusUploaded DocumentStatus = iota + 1
	// StatusProcessing is set when an ingestion run begins.
	StatusProcessing
	// StatusProcessed is the terminal success state.
	StatusProcessed
	// StatusError is the terminal failure state; Document.ProcessingError
	// carries the reason. Error documents are only re-processed by an
	// explicit operator trigger, never automatically.
	StatusError
)

var statusNames = map[DocumentStatus]string{
	StatusUploaded:   "uploaded",
	StatusProcessing: "processing",
	StatusProcessed:  "processed",
	StatusError:      "error",
}

func (s DocumentStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// MarshalJSON renders the status as its lowercase name, matching the wire
// format the admin UI expects.
func (s DocumentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a lowercase status name.
func (s *DocumentStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseDocumentStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseDocumentStatus converts a status name to its DocumentStatus value.
func ParseDocumentStatus(name string) (DocumentStatus, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// transition.
//
//   - uploaded, processed, error -> processing (start or re-trigger ingestion)
//   - processing -> processed, error (ingestion outcome)
//
// processing -> processing is rejected; a second trigger while a run is in
// flight must not execute concurrently.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	switch next {
	case StatusProcessing:
		return s == StatusUploaded || s == StatusProcessed || s == StatusError
	case StatusProcessed, StatusError:
		return s == StatusProcessing
	default:
		return false
	}
}

// ValidateTransition returns ErrInvalidTransition if moving from s to next is
// not allowed.
func ValidateTransition(from, to DocumentStatus) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
