package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/translens/go-llm-translator/internal/cache"
	"github.com/translens/go-llm-translator/internal/config"
)

// NewCacheCommand 缓存管理子命令
func NewCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "管理翻译缓存",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "显示缓存统计",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openCache()
			if err != nil {
				return err
			}
			defer closeCache(store)

			stats := store.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "缓存后端: %s\n", cfg.CacheBackend)
			fmt.Fprintf(out, "缓存目录: %s\n", cfg.CacheDir)
			fmt.Fprintf(out, "条目数:   %d\n", stats.Size)
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "清空缓存",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openCache()
			if err != nil {
				return err
			}
			defer closeCache(store)

			if err := store.Clear(); err != nil {
				return fmt.Errorf("清空缓存失败: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "缓存已清空")
			return nil
		},
	})

	return cacheCmd
}

// openCache 按当前配置打开缓存
func openCache() (cache.Cache, *config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	if cacheBackend != "" {
		cfg.CacheBackend = cacheBackend
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}

	store, err := cache.New(cfg.CacheBackend, cfg.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

// closeCache 关闭需要关闭的缓存后端
func closeCache(store cache.Cache) {
	if closer, ok := store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
