package entity

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
)

// Category 通知类别，与事故类型 / 摄像头共享类别对应
type Category string

const (
	CategoryRoubo      Category = "roubo"
	CategoryFurto      Category = "furto"
	CategoryVandalismo Category = "vandalismo"
	CategoryOutros     Category = "outros"
	CategoryCamera     Category = "camera"
)

var knownCategories = map[Category]struct{}{
	CategoryRoubo:      {},
	CategoryFurto:      {},
	CategoryVandalismo: {},
	CategoryOutros:     {},
	CategoryCamera:     {},
}

// ParseCategory 归一化（去空格、小写）并校验类别
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownCategories[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (c Category) String() string { return string(c) }

// CategorySet 用户订阅的类别集合，库中以逗号分隔字符串存储
type CategorySet []Category

func (s CategorySet) Contains(c Category) bool {
	for _, v := range s {
		if strings.EqualFold(string(v), string(c)) {
			return true
		}
	}
	return false
}

func (s CategorySet) Value() (driver.Value, error) {
	parts := make([]string, 0, len(s))
	for _, c := range s {
		parts = append(parts, string(c))
	}
	sort.Strings(parts)
	return strings.Join(parts, ","), nil
}

func (s *CategorySet) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("unsupported category set source %T", src)
	}

	out := CategorySet{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		out = append(out, Category(part))
	}
	*s = out
	return nil
}
