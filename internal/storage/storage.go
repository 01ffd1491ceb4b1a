package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LJTian/trend-keywords-bot/internal/collector"
	"github.com/LJTian/trend-keywords-bot/internal/digest"
	"github.com/LJTian/trend-keywords-bot/internal/logger"
)

var ErrRunNotFound = errors.New("run not found")

// KeywordStat 一个关键词的排名与关联条目
type KeywordStat struct {
	Term     string           `json:"term"`
	Count    int              `json:"count"`
	Rank     int              `json:"rank"`
	Evidence []collector.Item `json:"evidence"`
}

// RunRecord 每次运行一行，以日期标签为幂等键
type RunRecord struct {
	ID        uint                              `gorm:"primaryKey" json:"id"`
	Date      string                            `gorm:"size:10;uniqueIndex" json:"date"` // YYYY-MM-DD
	ItemCount int                               `json:"itemCount"`
	PageURL   string                            `gorm:"size:512" json:"pageUrl"`
	Keywords  datatypes.JSONType[[]KeywordStat] `gorm:"type:jsonb" json:"keywords"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const runCacheTTL = 5 * time.Minute

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
	log   logger.Logger
}

// NewStore 连接 PostgreSQL 并迁移表结构；redisAddr 为空时不启用缓存
func NewStore(dsn, redisAddr string, log logger.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed", logger.Error(err))
		}
	}
	return NewStoreWith(db, rdb, log), nil
}

// NewStoreWith 使用已有连接创建 Store
func NewStoreWith(db *gorm.DB, rdb *redis.Client, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{DB: db, Redis: rdb, log: log}
}

// toValidUTF8 外部页面标题可能含非法字节，入库前统一替换
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

func keywordStats(d *digest.Digest) []KeywordStat {
	stats := make([]KeywordStat, 0, len(d.Ranked))
	for _, k := range d.Ranked {
		ev := make([]collector.Item, 0, len(d.Evidence[k.Term]))
		for _, it := range d.Evidence[k.Term] {
			it.Title = toValidUTF8(it.Title)
			ev = append(ev, it)
		}
		stats = append(stats, KeywordStat{Term: toValidUTF8(k.Term), Count: k.Count, Rank: k.Rank, Evidence: ev})
	}
	return stats
}

// SaveRun 以日期为键写入运行结果；同一天重复运行时覆盖
func (s *Store) SaveRun(ctx context.Context, d *digest.Digest, itemCount int, pageURL string) error {
	rec := &RunRecord{
		Date:      d.Date,
		ItemCount: itemCount,
		PageURL:   pageURL,
		Keywords:  datatypes.NewJSONType(keywordStats(d)),
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"item_count", "page_url", "keywords", "updated_at"}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("save run %s: %w", d.Date, err)
	}

	s.invalidate(ctx, d.Date)
	return nil
}

// listKeysSet 记录已写入的列表缓存 key，写入新记录时精确删除，不做通配扫描
const listKeysSet = "runs:list:keys"

func (s *Store) invalidate(ctx context.Context, date string) {
	if s.Redis == nil {
		return
	}
	keys := []string{runCacheKey(date), listKeysSet}
	if listKeys, err := s.Redis.SMembers(ctx, listKeysSet).Result(); err == nil {
		keys = append(keys, listKeys...)
	}
	if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn("redis invalidate failed", logger.String("date", date), logger.Error(err))
	}
}

func runCacheKey(date string) string {
	return "runs:date:" + date
}

// ListRuns 按日期倒序返回最近的运行记录，结果缓存 5 分钟
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 || limit > 365 {
		limit = 20
	}
	cacheKey := fmt.Sprintf("runs:list:%d", limit)

	var list []RunRecord
	if s.getCached(ctx, cacheKey, &list) {
		return list, nil
	}

	if err := s.DB.WithContext(ctx).Order("date DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	if len(list) > 0 && s.setCached(ctx, cacheKey, list) {
		_ = s.Redis.SAdd(ctx, listKeysSet, cacheKey).Err()
	}
	return list, nil
}

// GetRun 按日期读取一次运行
func (s *Store) GetRun(ctx context.Context, date string) (*RunRecord, error) {
	cacheKey := runCacheKey(date)

	rec := &RunRecord{}
	if s.getCached(ctx, cacheKey, rec) {
		return rec, nil
	}

	err := s.DB.WithContext(ctx).Where("date = ?", date).First(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, cacheKey, rec)
	return rec, nil
}

func (s *Store) getCached(ctx context.Context, key string, dst any) bool {
	if s.Redis == nil {
		return false
	}
	bs, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(bs, dst) == nil
}

func (s *Store) setCached(ctx context.Context, key string, v any) bool {
	if s.Redis == nil {
		return false
	}
	bs, err := json.Marshal(v)
	if err != nil {
		return false
	}
	if err := s.Redis.Set(ctx, key, bs, runCacheTTL).Err(); err != nil {
		s.log.Debug("redis set failed", logger.String("key", key), logger.Error(err))
		return false
	}
	return true
}
