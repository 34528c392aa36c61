package document

// Batch 一次请求打包的条目
type Batch struct {
	// Indices 条目在文件中的序号
	Indices []int
	// Sources 与序号对应的原文
	Sources []string
}

// MakeBatches 把未翻译的条目切成固定大小的批次
func MakeBatches(file *File, size int) []Batch {
	if size <= 0 {
		size = 1
	}

	pending := file.PendingIndices()
	if len(pending) == 0 {
		return nil
	}

	var batches []Batch
	for start := 0; start < len(pending); start += size {
		end := start + size
		if end > len(pending) {
			end = len(pending)
		}

		indices := pending[start:end]
		sources := make([]string, len(indices))
		for i, index := range indices {
			entry, err := file.Entry(index)
			if err != nil {
				continue
			}
			sources[i] = entry.Source
		}

		batches = append(batches, Batch{
			Indices: append([]int(nil), indices...),
			Sources: sources,
		})
	}
	return batches
}
