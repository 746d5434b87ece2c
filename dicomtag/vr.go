package dicomtag

// VRKind 定义了golang 编码的VR. Every VR code maps to exactly one kind and
// each kind carries one decode rule in dicomio.DecodeValue.
type VRKind int

const (
	// VRBytes means the value is kept as the raw []byte
	VRBytes VRKind = iota
	// VRText means ASCII text, stored as a string
	VRText
	// VRTagHex means AT: the raw bytes rendered as lowercase hex
	VRTagHex
	// VRFloat32 means FL, big endian
	VRFloat32
	// VRFloat64 means FD, big endian
	VRFloat64
	// VRIntString means IS: ASCII decimal parsed into an int64
	VRIntString
	// VRInt16 means SS, big endian
	VRInt16
	// VRInt32 means SL, big endian
	VRInt32
	// VRInt64 means SV, big endian
	VRInt64
	// VRUnsigned means UL and US, little endian of any width up to 8 bytes
	VRUnsigned
)

func (k VRKind) String() string {
	switch k {
	case VRBytes:
		return "bytes"
	case VRText:
		return "text"
	case VRTagHex:
		return "taghex"
	case VRFloat32:
		return "float32"
	case VRFloat64:
		return "float64"
	case VRIntString:
		return "intstring"
	case VRInt16:
		return "int16"
	case VRInt32:
		return "int32"
	case VRInt64:
		return "int64"
	case VRUnsigned:
		return "unsigned"
	}
	return "invalid"
}

// GetVRKind returns the go representation of a value with the given VR.
// Unrecognized VRs are VRBytes.
func GetVRKind(vr string) VRKind {
	switch vr {
	case "AE", "AS", "CS", "DA", "DS", "DT", "LO", "LT", "PN", "SH", "ST", "TM",
		"UC", "UI", "UR", "UT", "UV":
		return VRText
	case "AT":
		return VRTagHex
	case "FL":
		return VRFloat32
	case "FD":
		return VRFloat64
	case "IS":
		return VRIntString
	case "SS":
		return VRInt16
	case "SL":
		return VRInt32
	case "SV":
		return VRInt64
	case "UL", "US":
		return VRUnsigned
	default:
		return VRBytes
	}
}

// HasShortLength reports whether the VR is followed by a 2 byte length in
// explicit VR little endian. The other VRs skip 2 reserved bytes and use a 4
// byte length. PS3.5 7.1.2
func HasShortLength(vr string) bool {
	switch vr {
	case "AE", "AS", "AT", "CS", "DA", "DS", "DT", "FL", "FD", "IS", "LO", "LT",
		"PN", "SH", "SL", "ST", "SS", "TM", "UI", "UL", "US":
		return true
	}
	return false
}
