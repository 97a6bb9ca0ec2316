package instanceid

import (
	"bytes"

	"github.com/google/uuid"
)

// nolint:gochecknoglobals
var instanceID uuid.UUID

// nolint:gochecknoinits
func init() {
	instanceID = uuid.New()
}

// String instanceid representation as string
func String() string {
	return instanceID.String()
}

// Bytes instanceid representation as slice of bytes
func Bytes() []byte {
	b, _ := instanceID.MarshalBinary()
	return b
}

// Equal compares a slice of bytes to the InstanceId
func Equal(comp []byte) bool {
	return bytes.Equal(comp, Bytes())
}

// InstanceID tags one object (e.g. an rpz staging index) for log
// correlation, distinct from the single process-wide id above.
type InstanceID uuid.UUID

// NewInstanceID mints a fresh, randomly generated InstanceID.
func NewInstanceID() InstanceID {
	return InstanceID(uuid.New())
}

// String renders the id in standard UUID form.
func (id InstanceID) String() string {
	return uuid.UUID(id).String()
}
