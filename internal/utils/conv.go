package utils

import (
	"strconv"
)

// ParseID 解析路径中的自增 ID，非正整数返回 false
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
