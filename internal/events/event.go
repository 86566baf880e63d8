// Package events 负责把会话变更与批量交易结果通知给展示层等订阅方。
// 发布失败只记录日志，不影响会话或交易操作本身。
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind 表示事件类型。
type Kind string

const (
	KindSessionConnected    Kind = "session.connected"
	KindSessionDisconnected Kind = "session.disconnected"
	KindSessionRestored     Kind = "session.restored"
	KindBatchExecuted       Kind = "batch.executed"
	KindBatchFailed         Kind = "batch.failed"
)

// Event 描述一次对外通知。事件中不携带原始钱包地址。
type Event struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	OccurredAt  time.Time `json:"occurred_at"`
	ChainID     uint64    `json:"chain_id,omitempty"`
	RunID       string    `json:"run_id,omitempty"`
	Mode        string    `json:"mode,omitempty"`
	Calls       int       `json:"calls,omitempty"`
	Submitted   int       `json:"submitted,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Warning     string    `json:"warning,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// New 创建带唯一 ID 与时间戳的事件。
func New(kind Kind) Event {
	return Event{ID: uuid.NewString(), Kind: kind, OccurredAt: time.Now().UTC()}
}

// Encode 将事件序列化为 JSON。
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher 负责投递事件。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop 丢弃所有事件。
type Nop struct{}

// Publish 实现 Publisher。
func (Nop) Publish(context.Context, Event) error { return nil }

// Close 实现 Publisher。
func (Nop) Close() error { return nil }
