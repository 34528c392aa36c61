package translation

import (
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Checker 译后质量检查器
// 通过源文本与译文的编辑距离相似度发现漏翻的条目
type Checker struct {
	// 相似度阈值，达到即视为未翻译
	threshold float64
}

// DefaultSimilarityThreshold 默认相似度阈值
const DefaultSimilarityThreshold = 0.85

// NewChecker 创建检查器
func NewChecker(threshold float64) *Checker {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Checker{threshold: threshold}
}

// UntranslatedIndices 返回疑似未翻译条目的下标
// 纯符号、纯数字或空白条目本来就不需要翻译，不参与检查
func (c *Checker) UntranslatedIndices(sources, translations []string) []int {
	var suspicious []int

	for i := range sources {
		if i >= len(translations) {
			break
		}
		if !needsTranslation(sources[i]) {
			continue
		}
		if Similarity(sources[i], translations[i]) >= c.threshold {
			suspicious = append(suspicious, i)
		}
	}

	return suspicious
}

// Similarity 计算两段文本的归一化编辑距离相似度，1 为完全相同
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	runesA := []rune(a)
	runesB := []rune(b)
	longest := len(runesA)
	if len(runesB) > longest {
		longest = len(runesB)
	}
	if longest == 0 {
		return 1
	}

	distance := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// needsTranslation 判断条目是否包含可翻译内容
func needsTranslation(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// CheckBatch 对批次结果做检查，返回疑似未翻译条目的下标
func (c *Checker) CheckBatch(sources []string, result *BatchResult) []int {
	if result == nil {
		return nil
	}
	return c.UntranslatedIndices(sources, result.Entries)
}
