package progress

import (
	"sync"

	"github.com/pterm/pterm"
)

// Bar 翻译进度条
// silent 模式下只记录计数，不输出任何内容
type Bar struct {
	mu      sync.Mutex
	printer *pterm.ProgressbarPrinter
	total   int
	current int
	silent  bool
}

// NewBar 创建并启动进度条
func NewBar(total int, title string, silent bool) (*Bar, error) {
	bar := &Bar{
		total:  total,
		silent: silent,
	}
	if silent {
		return bar, nil
	}

	printer, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithShowElapsedTime(true).
		Start()
	if err != nil {
		return nil, err
	}

	bar.printer = printer
	return bar, nil
}

// Add 推进n个条目
func (b *Bar) Add(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current += n
	if b.printer != nil {
		b.printer.Add(n)
	}
}

// UpdateTitle 更新标题
func (b *Bar) UpdateTitle(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.printer != nil {
		b.printer.UpdateTitle(title)
	}
}

// Current 当前进度
func (b *Bar) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Stop 结束进度条
func (b *Bar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.printer != nil {
		b.printer.Stop()
		b.printer = nil
	}
}
