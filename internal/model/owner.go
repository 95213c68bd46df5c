package model

import (
	"errors"
	"fmt"
)

// OwnerKind tags the care record an attachment belongs to. In Go a type
// declared via "type X string" creates a new named type, so a bare string
// cannot be passed where an OwnerKind is expected.
type OwnerKind string

const (
	KindServiceUser        OwnerKind = "service_user"
	KindStaff              OwnerKind = "staff"
	KindShift              OwnerKind = "shift"
	KindDailyNote          OwnerKind = "daily_note"
	KindMARRecord          OwnerKind = "mar_record"
	KindResidentMedication OwnerKind = "resident_medication"
)

var (
	ErrUnknownOwnerKind = errors.New("unknown owner kind")
	ErrEmptyOwnerID     = errors.New("owner id must not be empty")
)

var ownerKinds = []OwnerKind{
	KindServiceUser,
	KindStaff,
	KindShift,
	KindDailyNote,
	KindMARRecord,
	KindResidentMedication,
}

// OwnerKinds lists every supported owner kind.
func OwnerKinds() []OwnerKind {
	out := make([]OwnerKind, len(ownerKinds))
	copy(out, ownerKinds)
	return out
}

// Valid reports whether k is one of the supported kinds.
func (k OwnerKind) Valid() bool {
	for _, known := range ownerKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Owner identifies the care record an attachment hangs off. The fields are
// unexported so the only way to build one is through the constructors below,
// which keeps the kind and id paired.
type Owner struct {
	kind OwnerKind
	id   string
}

func ServiceUser(id string) Owner        { return Owner{kind: KindServiceUser, id: id} }
func Staff(id string) Owner              { return Owner{kind: KindStaff, id: id} }
func Shift(id string) Owner              { return Owner{kind: KindShift, id: id} }
func DailyNote(id string) Owner          { return Owner{kind: KindDailyNote, id: id} }
func MARRecord(id string) Owner          { return Owner{kind: KindMARRecord, id: id} }
func ResidentMedication(id string) Owner { return Owner{kind: KindResidentMedication, id: id} }

// ParseOwner validates a (kind, id) pair coming from the outside world.
func ParseOwner(kind, id string) (Owner, error) {
	k := OwnerKind(kind)
	if !k.Valid() {
		return Owner{}, fmt.Errorf("%w: %q", ErrUnknownOwnerKind, kind)
	}
	if id == "" {
		return Owner{}, ErrEmptyOwnerID
	}
	return Owner{kind: k, id: id}, nil
}

func (o Owner) Kind() OwnerKind { return o.kind }
func (o Owner) ID() string      { return o.id }

// IsZero reports whether o was never set.
func (o Owner) IsZero() bool { return o.kind == "" && o.id == "" }

// Validate catches Owners built from constructors with an empty id.
func (o Owner) Validate() error {
	if !o.kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOwnerKind, o.kind)
	}
	if o.id == "" {
		return ErrEmptyOwnerID
	}
	return nil
}

func (o Owner) String() string {
	return string(o.kind) + "/" + o.id
}
