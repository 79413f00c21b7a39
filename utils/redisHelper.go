package utils

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/craftlane/agency_backend/config"
)

func GetTypeName[T any]() string {
	var model T
	if t := reflect.TypeOf(model); t.Kind() == reflect.Ptr {
		return t.Elem().Name()
	} else {
		return t.Name()
	}
}

// GetCacheLifeTime reads CACHE_LIFETIME (minutes); zero disables expiry.
func GetCacheLifeTime() time.Duration {
	lifetimeMinutes, err := strconv.Atoi(os.Getenv("CACHE_LIFETIME"))
	if err != nil || lifetimeMinutes < 0 {
		lifetimeMinutes = 60
	}
	return time.Duration(lifetimeMinutes) * time.Minute
}

func StoreRedis[T any](key interface{}, object *T) error {
	typeName := GetTypeName[T]()
	redisKey := fmt.Sprintf("%s:%v", typeName, key)
	return config.SetRedisObject(redisKey, object, GetCacheLifeTime())
}

func RetrieveRedis[T any](key interface{}) (*T, error) {
	typeName := GetTypeName[T]()
	redisKey := fmt.Sprintf("%s:%v", typeName, key)
	var object T
	found, err := config.GetRedisObject(redisKey, &object)
	if err != nil || !found {
		return nil, err
	}
	return &object, nil
}

func RemoveRedis[T any](key interface{}) error {
	typeName := GetTypeName[T]()
	redisKey := fmt.Sprintf("%s:%v", typeName, key)
	return config.RemoveRedisKey(redisKey)
}

var sequenceLock sync.Mutex

// GetSequence hands out the next per-type sequence number via a redis
// counter, reseeding from the table's max(sequence_no) when the counter
// is missing or behind.
func GetSequence[T any](ctx context.Context) (int, error) {
	sequenceLock.Lock()
	defer sequenceLock.Unlock()

	typeName := GetTypeName[T]()
	counterKey := fmt.Sprintf("%s_seq", strings.ToLower(typeName))

	counterValue, err := config.GetRedisCounter(ctx, counterKey)
	if err != nil {
		return 0, err
	}
	sequenceNo := int(counterValue)

	var maxSequenceNo int
	db := config.GetDB()
	var model T
	err = db.WithContext(ctx).Model(&model).
		Select("coalesce(max(sequence_no), 0)").Row().Scan(&maxSequenceNo)
	if err != nil {
		return 0, err
	}

	if sequenceNo <= maxSequenceNo {
		sequenceNo = maxSequenceNo + 1
		err = config.SetRedisValue(counterKey, strconv.Itoa(sequenceNo), 0)
		if err != nil {
			return 0, err
		}
	}

	return sequenceNo, nil
}
