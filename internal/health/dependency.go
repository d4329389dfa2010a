package health

import (
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "db", Healthy: true}
	sqlDB, err := c.db.DB()
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "redis", Healthy: true}
	if err := c.client.Ping(ctx).Err(); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

type MinIOChecker struct {
	client *minio.Client
	bucket string
}

func NewMinIOChecker(client *minio.Client, bucket string) Checker {
	if client == nil {
		return nil
	}
	return &MinIOChecker{client: client, bucket: bucket}
}

// Check asks for the bucket rather than pinging the endpoint: the probe
// should fail when the store is up but the bucket is gone.
func (c *MinIOChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "minio", Healthy: true}
	if _, err := c.client.BucketExists(ctx, c.bucket); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}
