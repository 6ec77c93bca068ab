package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// EntryID is a content-addressed identifier for a catalog entry.
type EntryID uuid.UUID

// ZeroID is the zero EntryID.
var ZeroID EntryID

// entryNamespace seeds the SHA-1 entry identifiers.
var entryNamespace = uuid.MustParse("5b0e2a8c-6a57-4b0f-9f37-0c1d2b7e9a41")

// NewEntryID derives an EntryID from the insertion sequence number and the
// solid's type and name, so the same script always yields the same IDs.
func NewEntryID(seq int, typeName, name string) EntryID {
	return EntryID(uuid.NewSHA1(entryNamespace, []byte(fmt.Sprintf("%d/%s/%s", seq, typeName, name))))
}

func (id EntryID) String() string { return uuid.UUID(id).String() }

// Short returns the first eight hex digits, for messages.
func (id EntryID) Short() string { return id.String()[:8] }

func (id EntryID) IsZero() bool { return id == ZeroID }

func (id EntryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EntryID) UnmarshalText(text []byte) error {
	u, err := uuid.ParseBytes(text)
	if err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	*id = EntryID(u)
	return nil
}
