package dicomio

import (
	"fmt"
	"strings"
)

// Transfer syntax UIDs that a file header may name.
const (
	ImplicitVRLittleEndian         = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian         = "1.2.840.10008.1.2.1"
	DeflatedExplicitVRLittleEndian = "1.2.840.10008.1.2.1.99"
	ExplicitVRBigEndian            = "1.2.840.10008.1.2.2"
)

// StandardTransferSyntaxes is the list of standard transfer syntaxes
var StandardTransferSyntaxes = []string{
	ImplicitVRLittleEndian,
	ExplicitVRLittleEndian,
	ExplicitVRBigEndian,
	DeflatedExplicitVRLittleEndian,
}

// CheckTransferSyntaxUID returns an error when uid names anything other than
// explicit VR little endian, the only syntax the element parser reads. The
// uid may carry the usual NUL/space padding.
func CheckTransferSyntaxUID(uid string) error {
	uid = strings.TrimRight(uid, " \x00")
	if uid == ExplicitVRLittleEndian {
		return nil
	}
	for _, standard := range StandardTransferSyntaxes {
		if uid == standard {
			return fmt.Errorf("dicomio: transfer syntax %s is not supported, only explicit VR little endian", uid)
		}
	}
	return fmt.Errorf("dicomio: transfer syntax %s is not supported (possibly compressed pixel data)", uid)
}
