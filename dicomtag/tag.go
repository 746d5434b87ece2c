package dicomtag

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Tag 是一个定义了dicom文件中element 的类型的 <group, element> 元组
type Tag struct {
	// Group 和 Element 是读取16进制对的结果 如 (0028,0010)
	Group   uint16
	Element uint16
}

// Tags consumed by the volume reconstructor.
var (
	TransferSyntaxUID = Tag{0x0002, 0x0010}
	NumberOfFrames    = Tag{0x0028, 0x0008}
	Rows              = Tag{0x0028, 0x0010}
	Columns           = Tag{0x0028, 0x0011}
	BitsAllocated     = Tag{0x0028, 0x0100}
	PixelData         = Tag{0x7fe0, 0x0010}
)

// Compare 返回 -1/0/1 如果t<other | t==other | t>other，
// tag先由group排序，再由element排序
func (t Tag) Compare(other Tag) int {
	if t.Group < other.Group {
		return -1
	}

	if t.Group > other.Group {
		return 1
	}

	if t.Element < other.Element {
		return -1
	}

	if t.Element > other.Element {
		return 1
	}

	return 0
}

func IsPrivate(group uint16) bool {
	return group%2 == 1
}

// String 返回一个如"(0008,1234)"格式的string
// 0x0008 是 t.Group 0x1234是t.Element
func (t Tag) String() string {
	return fmt.Sprintf("(%04x,%04x)", t.Group, t.Element)
}

// Hex returns the canonical 8 hex digit form, e.g. "7fe00010".
func (t Tag) Hex() string {
	return fmt.Sprintf("%04x%04x", t.Group, t.Element)
}

// TagFromBytes builds a tag from the 4 bytes found in an explicit VR little
// endian stream: group low, group high, element low, element high.
func TagFromBytes(b []byte) Tag {
	return Tag{
		Group:   binary.LittleEndian.Uint16(b[0:2]),
		Element: binary.LittleEndian.Uint16(b[2:4]),
	}
}

// ReorderTagHex takes the hex dump of the 4 raw tag bytes ("e07f1000") and
// returns the canonical tag notation ("7fe00010").
func ReorderTagHex(raw string) (string, error) {
	if len(raw) != 8 {
		return "", fmt.Errorf("dicomtag.ReorderTagHex: expect 8 hex digits, found %q", raw)
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", fmt.Errorf("dicomtag.ReorderTagHex: %v", err)
	}
	return raw[2:4] + raw[0:2] + raw[6:8] + raw[4:6], nil
}

// ParseTag accepts either "00280010" or "(0028,0010)".
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	var groupStr, elemStr string
	if strings.HasPrefix(s, "(") {
		parts := strings.Split(strings.Trim(s, "()"), ",")
		if len(parts) != 2 {
			return Tag{}, fmt.Errorf("dicomtag.ParseTag: malformed tag %q", s)
		}
		groupStr, elemStr = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	} else {
		if len(s) != 8 {
			return Tag{}, fmt.Errorf("dicomtag.ParseTag: malformed tag %q", s)
		}
		groupStr, elemStr = s[:4], s[4:]
	}
	group, err := strconv.ParseUint(groupStr, 16, 16)
	if err != nil {
		return Tag{}, err
	}
	elem, err := strconv.ParseUint(elemStr, 16, 16)
	if err != nil {
		return Tag{}, err
	}
	return Tag{Group: uint16(group), Element: uint16(elem)}, nil
}

// DebugString 返回一个人类可读的tag的诊断字符串，格式如 "(group,element)[name]".
// The name comes from dict, or Standard when dict is nil.
func DebugString(dict Dictionary, tag Tag) string {
	if dict == nil {
		dict = Standard
	}
	name := dict.Lookup(tag)
	if name == UnknownName {
		if IsPrivate(tag.Group) {
			return fmt.Sprintf("(%04x,%04x)[private]", tag.Group, tag.Element)
		}
		return fmt.Sprintf("(%04x,%04x)[??]", tag.Group, tag.Element)
	}
	return fmt.Sprintf("(%04x,%04x)[%s]", tag.Group, tag.Element, name)
}
