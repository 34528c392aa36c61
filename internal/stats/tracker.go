package stats

import (
	"sync"
	"time"

	"github.com/translens/go-llm-translator/pkg/translation"
)

// Sample 留作报告展示的翻译片段
type Sample struct {
	Source      string
	Translation string
}

// maxSamples 报告中最多展示的片段数
const maxSamples = 10

// Tracker 聚合一次运行的翻译统计
type Tracker struct {
	mu sync.Mutex

	startTime time.Time

	files        int
	entries      int
	translated   int
	failed       int
	batches      int
	tokensIn     int
	tokensOut    int
	cacheHits    int
	stepDuration map[string]time.Duration
	samples      []Sample
}

// NewTracker 创建统计器
func NewTracker() *Tracker {
	return &Tracker{
		startTime:    time.Now(),
		stepDuration: make(map[string]time.Duration),
	}
}

// AddFile 记录一个处理过的文件
func (t *Tracker) AddFile() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files++
}

// AddBatch 记录一个批次的结果
func (t *Tracker) AddBatch(entryCount int, result *translation.BatchResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.batches++
	t.entries += entryCount

	if result == nil {
		t.failed += entryCount
		return
	}

	t.translated += len(result.Entries)
	if entryCount > len(result.Entries) {
		t.failed += entryCount - len(result.Entries)
	}

	for _, step := range result.Steps {
		t.stepDuration[step.Name] += step.Duration
		t.tokensIn += step.TokensIn
		t.tokensOut += step.TokensOut
		if step.CacheHit {
			t.cacheHits++
		}
	}
}

// AddFailure 记录翻译失败的条目数
func (t *Tracker) AddFailure(entryCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.batches++
	t.entries += entryCount
	t.failed += entryCount
}

// AddSample 记录一个翻译片段用于报告展示
func (t *Tracker) AddSample(source, translated string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) >= maxSamples {
		return
	}
	t.samples = append(t.samples, Sample{Source: source, Translation: translated})
}

// Report 运行统计快照
type Report struct {
	Duration     time.Duration
	Files        int
	Entries      int
	Translated   int
	Failed       int
	Batches      int
	TokensIn     int
	TokensOut    int
	CacheHits    int
	StepDuration map[string]time.Duration
	Samples      []Sample
}

// Snapshot 生成当前统计快照
func (t *Tracker) Snapshot() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	steps := make(map[string]time.Duration, len(t.stepDuration))
	for name, d := range t.stepDuration {
		steps[name] = d
	}

	return Report{
		Duration:     time.Since(t.startTime),
		Files:        t.files,
		Entries:      t.entries,
		Translated:   t.translated,
		Failed:       t.failed,
		Batches:      t.batches,
		TokensIn:     t.tokensIn,
		TokensOut:    t.tokensOut,
		CacheHits:    t.cacheHits,
		StepDuration: steps,
		Samples:      append([]Sample(nil), t.samples...),
	}
}
