package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

// schema 缓存表结构
const schema = `CREATE TABLE IF NOT EXISTS translation_cache (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// SQLite 基于SQLite的持久化缓存
type SQLite struct {
	db    *sql.DB
	sq    sq.StatementBuilderType
	mutex sync.RWMutex
	stats Stats
}

// NewSQLite 打开（必要时创建）dir下的缓存数据库
func NewSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建缓存目录失败: %w", err)
	}

	dbPath := filepath.Join(dir, "translations.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开缓存数据库失败: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("创建缓存表失败: %w", err)
	}

	return &SQLite{
		db: db,
		sq: sq.StatementBuilder,
	}, nil
}

// Get 获取缓存
func (c *SQLite) Get(key string) (string, bool) {
	sqlStr, args, _ := c.sq.
		Select("value").
		From("translation_cache").
		Where(sq.Eq{"key": key}).
		Limit(1).
		ToSql()

	var value string
	err := c.db.QueryRow(sqlStr, args...).Scan(&value)
	if err != nil {
		c.mutex.Lock()
		c.stats.Misses++
		c.mutex.Unlock()
		return "", false
	}

	c.mutex.Lock()
	c.stats.Hits++
	c.mutex.Unlock()
	return value, true
}

// Set 设置缓存（已存在时覆盖）
func (c *SQLite) Set(key string, value string) error {
	sqlStr, args, _ := c.sq.
		Insert("translation_cache").
		Columns("key", "value", "created_at").
		Values(key, value, time.Now().UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT(key) DO UPDATE SET value=excluded.value, created_at=excluded.created_at").
		ToSql()

	if _, err := c.db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("写入缓存失败: %w", err)
	}
	return nil
}

// Delete 删除缓存
func (c *SQLite) Delete(key string) error {
	sqlStr, args, _ := c.sq.
		Delete("translation_cache").
		Where(sq.Eq{"key": key}).
		ToSql()

	_, err := c.db.Exec(sqlStr, args...)
	return err
}

// Clear 清除所有缓存
func (c *SQLite) Clear() error {
	if _, err := c.db.Exec("DELETE FROM translation_cache"); err != nil {
		return err
	}

	c.mutex.Lock()
	c.stats = Stats{}
	c.mutex.Unlock()
	return nil
}

// Stats 获取统计信息
func (c *SQLite) Stats() Stats {
	c.mutex.RLock()
	stats := c.stats
	c.mutex.RUnlock()

	var count int64
	if err := c.db.QueryRow("SELECT COUNT(*) FROM translation_cache").Scan(&count); err == nil {
		stats.Size = count
	}
	return stats
}

// Close 关闭数据库连接
func (c *SQLite) Close() error {
	return c.db.Close()
}
