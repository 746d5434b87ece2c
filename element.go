package dicom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odincare/spectqc/dicomio"
	"github.com/odincare/spectqc/dicomlog"
	"github.com/odincare/spectqc/dicomtag"
)

// Element represents a single DICOM element read from an explicit VR little
// endian stream.
type Element struct {
	// Tag is a pair of <group, element>.
	Tag dicomtag.Tag

	// VR defines the encoding of Value in two-letter alphabets, e.g.,
	// "AE", "UL". It is the VR found in the file.
	VR string

	// Length is the value length declared in the element header.
	Length uint32

	// Value is the decoded value. Its type depends on the VR kind:
	// string for text VRs and AT, float32 for FL, float64 for FD, int64 for
	// IS/SS/SL/SV, uint64 for US/UL and []byte for everything else.
	// Cf. dicomio.DecodeValue.
	Value interface{}

	// Name is the human readable label from the tag dictionary, or
	// dicomtag.UnknownName.
	Name string

	// Stripped is the number of trailing bytes that had to be dropped before
	// Value could be decoded. Non-zero means the value was recovered from a
	// damaged field.
	Stripped int
}

// DataSet 是解析后的文件：元素按tag索引，PixelData为原始字节
type DataSet struct {
	Elements map[dicomtag.Tag]*Element

	// PixelData holds the raw bytes of (7fe0,0010). It is nil when the file
	// has no pixel data or ReadOptions.DropPixelData is set.
	PixelData []byte
}

// ReadOptions定义DataSets和Element的读取格式
type ReadOptions struct {
	// Dictionary names the elements. nil means dicomtag.Standard.
	Dictionary dicomtag.Dictionary

	// DropPixelData会让Parse跳过PixelData(bulk image)的拷贝
	DropPixelData bool

	// ReturnTags 会返回一系列tag白名单. nil keeps every element.
	ReturnTags []dicomtag.Tag

	// MaxStripRetries bounds the trailing garbage retries of the value
	// decoder. Zero means dicomio.DefaultMaxStripRetries.
	MaxStripRetries int
}

// ErrNotDicomFile is returned by ReadDataSetFromFile for paths that do not
// end in ".dcm".
var ErrNotDicomFile = errors.New("not a .dcm file")

const (
	preambleLength = 128
	prefixLength   = 4
)

// Parse decodes an explicit VR little endian file held in memory.
//
// The 128 byte preamble and the 4 byte prefix are skipped without checking
// for "DICM", so a long enough non-DICOM input parses as garbage. Parsing
// stops at the pixel data element, which is always last in the files we read.
// Any truncated element or undecodable value aborts the parse; no partial
// DataSet is returned.
func Parse(data []byte, options ReadOptions) (*DataSet, error) {
	d := dicomio.NewDecoder(data)

	// 跳过前言 and the "DICM" prefix
	d.Skip(preambleLength + prefixLength)
	if d.Error() != nil {
		return nil, fmt.Errorf("dicom.Parse: reading preamble: %w", d.Error())
	}

	maxRetries := options.MaxStripRetries
	if maxRetries == 0 {
		maxRetries = dicomio.DefaultMaxStripRetries
	}

	dict := options.Dictionary
	if dict == nil {
		dict = dicomtag.Standard
	}

	ds := &DataSet{Elements: make(map[dicomtag.Tag]*Element)}
	for !d.EOF() {
		rawTag := d.ReadBytes(4)
		if d.Error() != nil {
			break
		}
		tag := dicomtag.TagFromBytes(rawTag)
		vr := d.ReadString(2)
		vl := readLength(d, vr)
		raw := d.ReadBytes(int(vl))
		if d.Error() != nil {
			break
		}

		if tag == dicomtag.PixelData {
			if !options.DropPixelData {
				ds.PixelData = raw
			}
			break
		}

		value, stripped, err := dicomio.DecodeValueWithRetries(vr, raw, maxRetries)
		if err != nil {
			d.SetErrorf("dicom.Parse: tag %s: %w", dicomtag.DebugString(dict, tag), err)
			break
		}
		if stripped > 0 {
			dicomlog.Warnf("dicom.Parse: tag %v VR %s: dropped %d trailing bytes to decode value", tag, vr, stripped)
		}

		if options.ReturnTags != nil && !tagInList(tag, options.ReturnTags) {
			continue
		}
		ds.Elements[tag] = &Element{
			Tag:      tag,
			VR:       vr,
			Length:   vl,
			Value:    value,
			Stripped: stripped,
		}
		dicomlog.Vprintf(2, "dicom.Parse: element %v %s len %d, pos %d", tag, vr, vl, d.BytesRead())
	}
	if d.Error() != nil {
		return nil, d.Error()
	}

	for tag, elem := range ds.Elements {
		elem.Name = dict.Lookup(tag)
	}

	if elem, err := ds.FindElementByTag(dicomtag.TransferSyntaxUID); err == nil {
		if uid, err := elem.GetString(); err == nil {
			if err := dicomio.CheckTransferSyntaxUID(uid); err != nil {
				dicomlog.Warnf("dicom.Parse: %v", err)
			}
		}
	}
	return ds, nil
}

// VR由下两个连续的bytes代表
// VL的宽度根据VR的值. PS3.5 7.1.2
func readLength(d *dicomio.Decoder, vr string) uint32 {
	if dicomtag.HasShortLength(vr) {
		return uint32(d.ReadUInt16())
	}
	d.Skip(2) // 忽略两个bytes，给未来用(0000H)
	return d.ReadUInt32()
}

// ReadDataSet reads a whole file from in and parses it.
func ReadDataSet(in io.Reader, options ReadOptions) (*DataSet, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(in); err != nil {
		return nil, err
	}
	return Parse(buf.Bytes(), options)
}

// ReadDataSetFromFile 读取文件内容到 DataSet. 是一层Parse的包装
// Paths without a ".dcm" extension are rejected before any byte is read.
func ReadDataSetFromFile(path string, options ReadOptions) (*DataSet, error) {
	if !strings.EqualFold(filepath.Ext(path), ".dcm") {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDicomFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ds, err := Parse(data, options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

func tagInList(tag dicomtag.Tag, tags []dicomtag.Tag) bool {
	for _, t := range tags {
		if tag == t {
			return true
		}
	}
	return false
}

// FindElementByTag finds an element from the dataset given its tag, such as
// Tag{0x0010, 0x0010}. If not found, returns an error.
func (ds *DataSet) FindElementByTag(tag dicomtag.Tag) (*Element, error) {
	if elem, ok := ds.Elements[tag]; ok {
		return elem, nil
	}
	return nil, fmt.Errorf("%s: element not found", tag)
}

// FindElementByName 寻找指定name的element, 如“Rows”
func (ds *DataSet) FindElementByName(name string) (*Element, error) {
	for _, elem := range ds.SortedElements() {
		if elem.Name == name {
			return elem, nil
		}
	}
	return nil, fmt.Errorf("could not find element named '%s' in dicom file", name)
}

// SortedElements returns the elements ordered by tag.
func (ds *DataSet) SortedElements() []*Element {
	elems := make([]*Element, 0, len(ds.Elements))
	for _, elem := range ds.Elements {
		elems = append(elems, elem)
	}
	sort.Slice(elems, func(i, j int) bool {
		return elems[i].Tag.Compare(elems[j].Tag) < 0
	})
	return elems
}

// GetInt returns an integer value from IS, US, UL, SS, SL or SV elements.
func (e *Element) GetInt() (int, error) {
	switch v := e.Value.(type) {
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	}
	return 0, fmt.Errorf("integer value not found in %v", e)
}

// GetString gets a string value from an element with trailing space and NUL
// padding removed. It returns an error if the value is not a string.
func (e *Element) GetString() (string, error) {
	v, ok := e.Value.(string)
	if !ok {
		return "", fmt.Errorf("string value not found in %v", e)
	}
	return strings.TrimRight(v, " \x00"), nil
}

// Stringer
func (e *Element) String() string {
	sv := fmt.Sprintf("%v", e.Value)
	if b, ok := e.Value.([]byte); ok {
		sv = fmt.Sprintf("<%d bytes>", len(b))
	}
	if len(sv) > 1024 {
		sv = sv[:1024] + "(...)"
	}
	s := fmt.Sprintf("%s %s %s #%d [%s]", e.Tag.Hex(), e.VR, e.Name, e.Length, sv)
	if e.Stripped > 0 {
		s += fmt.Sprintf(" (stripped %d)", e.Stripped)
	}
	return s
}
