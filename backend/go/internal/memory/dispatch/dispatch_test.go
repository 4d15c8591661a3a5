package dispatch

import (
	"HealthMate/backend/go/internal/models"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingProcessor struct {
	release chan struct{}
	mu      sync.Mutex
	seen    []models.MemoryTask
	ctxErrs []error
}

func (p *blockingProcessor) ProcessTask(ctx context.Context, task models.MemoryTask) {
	<-p.release
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, task)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
}

func TestGoroutineDispatcher_DoesNotBlockAndSurvivesCancel(t *testing.T) {
	p := &blockingProcessor{release: make(chan struct{})}
	d := NewGoroutineDispatcher(p)

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	require.NoError(t, d.Dispatch(ctx, models.MemoryTask{UserID: "u1", Message: "I am vegan"}))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	// 请求结束后任务仍应完成，且看不到取消。
	cancel()
	close(p.release)
	require.NoError(t, d.Close(context.Background()))

	require.Len(t, p.seen, 1)
	assert.Equal(t, "u1", p.seen[0].UserID)
	assert.NoError(t, p.ctxErrs[0])
}

func TestGoroutineDispatcher_CloseHonoursDeadline(t *testing.T) {
	p := &blockingProcessor{release: make(chan struct{})}
	d := NewGoroutineDispatcher(p)
	require.NoError(t, d.Dispatch(context.Background(), models.MemoryTask{UserID: "u1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(p.release)
	require.NoError(t, d.Close(context.Background()))
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaDispatcher_PublishesJSONKeyedByUser(t *testing.T) {
	w := &fakeWriter{}
	d := NewKafkaDispatcher(w)

	task := models.MemoryTask{UserID: "u42", Message: "I live in Delhi", TraceID: "t1"}
	require.NoError(t, d.Dispatch(context.Background(), task))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "u42", string(w.msgs[0].Key))

	var decoded models.MemoryTask
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, task.UserID, decoded.UserID)
	assert.Equal(t, task.Message, decoded.Message)

	require.NoError(t, d.Close(context.Background()))
	assert.True(t, w.closed)
}

func TestKafkaDispatcher_WriteErrorIsReturned(t *testing.T) {
	d := NewKafkaDispatcher(&fakeWriter{err: errors.New("broker down")})
	assert.Error(t, d.Dispatch(context.Background(), models.MemoryTask{UserID: "u"}))
}

type fakePusher struct {
	mu     sync.Mutex
	key    string
	values []interface{}
	err    error
}

func (p *fakePusher) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.key = key
	p.values = append(p.values, values...)
	return redis.NewIntResult(int64(len(p.values)), p.err)
}

func TestRedisDispatcher_PushesToList(t *testing.T) {
	p := &fakePusher{}
	d := NewRedisDispatcher(p, "memory_tasks", nil)

	require.NoError(t, d.Dispatch(context.Background(), models.MemoryTask{UserID: "u7", Message: "I have a rash"}))
	require.NoError(t, d.Close(context.Background()))

	assert.Equal(t, "memory_tasks", p.key)
	require.Len(t, p.values, 1)
	var decoded models.MemoryTask
	require.NoError(t, json.Unmarshal(p.values[0].([]byte), &decoded))
	assert.Equal(t, "u7", decoded.UserID)
}

func TestRedisDispatcher_ReportsPushFailure(t *testing.T) {
	p := &fakePusher{err: errors.New("connection refused")}
	var mu sync.Mutex
	var failed []string
	d := NewRedisDispatcher(p, "memory_tasks", func(task models.MemoryTask, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, task.UserID)
	})

	require.NoError(t, d.Dispatch(context.Background(), models.MemoryTask{UserID: "u8"}))
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, []string{"u8"}, failed)
}
