package speaker

import (
	"fmt"
	"strings"
)

// CatalogLookupError reports a speaker key with no embedding artifact in the
// checkpoint catalog.
type CatalogLookupError struct {
	// Key is the requested speaker key as given, before normalization.
	Key string
	// Path is the artifact location that was checked.
	Path string
	// Cause is the underlying filesystem error, if any.
	Cause error
}

func (e *CatalogLookupError) Error() string {
	return fmt.Sprintf("speaker %q: no embedding at %s", e.Key, e.Path)
}

func (e *CatalogLookupError) Unwrap() error {
	return e.Cause
}

// UnknownSpeakerError reports a speaker key the speech model does not carry
// a voice for. The exact key is looked up; no normalization applies here.
type UnknownSpeakerError struct {
	Key string
	// Known lists the keys the model reported, for the error message.
	Known []string
}

func (e *UnknownSpeakerError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("speaker %q: not known to the speech model", e.Key)
	}
	return fmt.Sprintf("speaker %q: not known to the speech model (known: %s)",
		e.Key, strings.Join(e.Known, ", "))
}
