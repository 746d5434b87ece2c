package dicom

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Query 返回name或tag符合glob pattern的elements, ordered by tag.
// The pattern is matched case-insensitively against the element name
// ("Patient*") and its 8 hex digit tag ("0028*"). An empty pattern or a
// string of "*" is a universal match.
func (ds *DataSet) Query(pattern string) ([]*Element, error) {
	if isUniversalGlob(pattern) {
		return ds.SortedElements(), nil
	}

	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("dicom.Query: bad pattern %q: %v", pattern, err)
	}

	var matched []*Element
	for _, elem := range ds.SortedElements() {
		if g.Match(strings.ToLower(elem.Name)) || g.Match(elem.Tag.Hex()) {
			matched = append(matched, elem)
		}
	}
	return matched, nil
}

// 检查匹配格式是否是一串 “*”
// "*" 与 空查询一样是通用匹配符 P3.4 C2.2.2.4
func isUniversalGlob(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '*' {
			return false
		}
	}

	return true
}
