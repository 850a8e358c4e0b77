package mail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// MockSender simulates a mail sender with configurable behavior
type MockSender struct {
	mu            sync.Mutex
	successAfter  int
	attempts      int
	sendTimes     []time.Time
	lastReceivers []string
	lastSubject   string
	lastBody      string
	host          string
}

func (m *MockSender) Send(receivers []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	m.sendTimes = append(m.sendTimes, time.Now())
	m.lastReceivers = receivers
	m.lastSubject = subject
	m.lastBody = body

	if m.attempts > m.successAfter {
		return nil
	}
	return errors.New("simulated send failure")
}

func (m *MockSender) GetHost() string {
	return m.host
}

func (m *MockSender) GetPort() int {
	return 25
}

func (m *MockSender) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *MockSender) LastSubject() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSubject
}

func (m *MockSender) FirstSendTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sendTimes) == 0 {
		return time.Time{}
	}
	return m.sendTimes[0]
}

func newTestLogger(t *testing.T) *zap.SugaredLogger {
	logger, _ := zap.NewProduction()
	t.Cleanup(func() {
		_ = logger.Sync()
	})
	return logger.Sugar()
}

func TestQueue_Enqueue(t *testing.T) {
	sugar := newTestLogger(t)

	sender := &MockSender{successAfter: 0, host: "test.example.com"}
	queue := NewQueue(sender, sugar, 3, 100, 10)
	queue.Start()
	defer func() {
		if err := queue.Stop(context.Background()); err != nil {
			t.Errorf("failed to stop queue: %v", err)
		}
	}()

	err := queue.Enqueue("test-1", []string{"user@example.com"}, "Test", "Body")
	assert.NoError(t, err)

	// Give worker time to process
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, sender.Attempts())
	assert.Equal(t, "Test", sender.LastSubject())
}

func TestQueue_EnqueueMultiple(t *testing.T) {
	sugar := newTestLogger(t)

	sender := &MockSender{successAfter: 0, host: "test.example.com"}
	queue := NewQueue(sender, sugar, 3, 100, 100)
	queue.Start()
	defer func() {
		if err := queue.Stop(context.Background()); err != nil {
			t.Errorf("failed to stop queue: %v", err)
		}
	}()

	for i := 0; i < 5; i++ {
		err := queue.Enqueue(fmt.Sprintf("test-%d", i), []string{"user@example.com"}, "Subject", "Body")
		assert.NoError(t, err)
	}

	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, 5, sender.Attempts())
}

func TestQueue_EnqueueDelayed(t *testing.T) {
	sugar := newTestLogger(t)

	sender := &MockSender{successAfter: 0, host: "test.example.com"}
	queue := NewQueue(sender, sugar, 3, 100, 10)
	queue.Start()
	defer func() {
		if err := queue.Stop(context.Background()); err != nil {
			t.Errorf("failed to stop queue: %v", err)
		}
	}()

	start := time.Now()
	err := queue.EnqueueDelayed("test-1", []string{"user@example.com"}, "Delayed", "Body", 250*time.Millisecond)
	assert.NoError(t, err)

	// The item must not be sent before its delay elapses
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, sender.Attempts(), "message sent before its delay elapsed")

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, sender.Attempts())
	assert.GreaterOrEqual(t, sender.FirstSendTime().Sub(start), 250*time.Millisecond)
}

func TestQueue_EnqueueFull(t *testing.T) {
	sugar := newTestLogger(t)

	// Don't start the worker so the channel fills immediately
	sender := &MockSender{successAfter: 1000, host: "test.example.com"}
	queue := NewQueue(sender, sugar, 3, 100, 1)

	defer func() {
		if err := queue.Stop(context.Background()); err != nil {
			t.Errorf("failed to stop queue: %v", err)
		}
	}()

	err1 := queue.Enqueue("test-1", []string{"user@example.com"}, "Subject", "Body")
	assert.NoError(t, err1, "first enqueue should succeed")

	err2 := queue.Enqueue("test-2", []string{"user@example.com"}, "Subject", "Body")
	assert.Error(t, err2, "second enqueue should fail - queue is full")
	if err2 != nil {
		assert.Contains(t, err2.Error(), "queue is full")
	}
}

func TestQueue_EnqueueNoReceivers(t *testing.T) {
	sugar := newTestLogger(t)

	sender := &MockSender{successAfter: 0, host: "test.example.com"}
	queue := NewQueue(sender, sugar, 3, 100, 10)
	queue.Start()
	defer func() {
		if err := queue.Stop(context.Background()); err != nil {
			t.Errorf("failed to stop queue: %v", err)
		}
	}()

	err := queue.Enqueue("test-1", []string{}, "Subject", "Body")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no receivers")
}

func TestQueue_RetryWithBackoff(t *testing.T) {
	sugar := newTestLogger(t)

	// Sender fails for first 2 attempts, succeeds on third
	sender := &MockSender{successAfter: 2, host: "test.example.com"}
	queue := NewQueue(sender, sugar, 5, 100, 10)
	queue.Start()
	defer func() {
		if err := queue.Stop(context.Background()); err != nil {
			t.Errorf("failed to stop queue: %v", err)
		}
	}()

	err := queue.Enqueue("test-1", []string{"user@example.com"}, "Subject", "Body")
	assert.NoError(t, err)

	// Wait for initial attempt + retries
	time.Sleep(600 * time.Millisecond)

	assert.Greater(t, sender.Attempts(), 1, "should have retried")
}

func TestQueue_Shutdown(t *testing.T) {
	sugar := newTestLogger(t)

	sender := &MockSender{successAfter: 0, host: "test.example.com"}
	queue := NewQueue(sender, sugar, 3, 100, 10)
	queue.Start()

	err := queue.Enqueue("test-1", []string{"user@example.com"}, "Subject", "Body")
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = queue.Stop(ctx)
	assert.NoError(t, err)
}

func TestCalculateBackoff(t *testing.T) {
	sugar := newTestLogger(t)

	sender := &MockSender{host: "test.example.com"}
	queue := NewQueue(sender, sugar, 3, 100, 10)

	assert.Equal(t, 100, queue.calculateBackoff(1))
	assert.Equal(t, 200, queue.calculateBackoff(2))
	assert.Equal(t, 400, queue.calculateBackoff(3))

	// Capped at 30 minutes
	assert.Equal(t, 1800000, queue.calculateBackoff(30))
}
