package langs

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// aliases 常见语言名到BCP47标签的映射
// 提示词里使用人类可读的英文名，配置里两种写法都接受
var aliases = map[string]string{
	"japanese":            "ja",
	"english":             "en",
	"chinese":             "zh",
	"simplified chinese":  "zh-Hans",
	"traditional chinese": "zh-Hant",
	"korean":              "ko",
	"french":              "fr",
	"german":              "de",
	"spanish":             "es",
	"russian":             "ru",
	"portuguese":          "pt",
	"italian":             "it",
	"vietnamese":          "vi",
	"thai":                "th",
	"indonesian":          "id",
	"arabic":              "ar",
}

// Language 规范化后的语言
type Language struct {
	// Tag BCP47标签
	Tag language.Tag
	// Name 英文显示名，用于填充提示词
	Name string
}

// Parse 解析语言名或BCP47标签
func Parse(input string) (Language, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return Language{}, fmt.Errorf("语言不能为空")
	}

	if code, ok := aliases[strings.ToLower(s)]; ok {
		s = code
	}

	tag, err := language.Parse(s)
	if err != nil {
		return Language{}, fmt.Errorf("无法识别的语言 %q: %w", input, err)
	}

	return Language{
		Tag:  tag,
		Name: display.English.Languages().Name(tag),
	}, nil
}

// MustParse 解析失败时panic，用于内置默认值
func MustParse(input string) Language {
	lang, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return lang
}

// Equal 判断两个语言是否指同一种语言
func (l Language) Equal(other Language) bool {
	base, _ := l.Tag.Base()
	otherBase, _ := other.Tag.Base()
	return base == otherBase
}

// String 返回显示名
func (l Language) String() string {
	return l.Name
}

// Supported 返回内置别名覆盖的语言名列表
func Supported() []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	return names
}
