package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Context 工作流执行状态容器
// 在单次运行期间由执行器独占持有，并透传给其调用的步骤/节点能力。
// 运行期间不允许外部并发修改；同一调度轮内的并行任务不得写入同一键。
type Context struct {
	// SessionID correlates every log line, span, and history entry of one run.
	SessionID string `json:"session_id"`
	// Data is an open key-value bag for arbitrary run data.
	Data map[string]any `json:"data"`
	// ComplianceTag is an opaque validation tag checked by callers, never by
	// the engines themselves.
	ComplianceTag string    `json:"compliance_tag,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewContext creates an execution context with a fresh session ID.
func NewContext() *Context {
	now := time.Now()
	return &Context{
		SessionID: uuid.NewString(),
		Data:      make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Set stores a value in the data bag.
func (c *Context) Set(key string, value any) {
	c.Data[key] = value
	c.UpdatedAt = time.Now()
}

// Get retrieves a value from the data bag.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.Data[key]
	return v, ok
}

// GetString retrieves a string value from the data bag.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Delete removes a key from the data bag.
func (c *Context) Delete(key string) {
	delete(c.Data, key)
	c.UpdatedAt = time.Now()
}

// Keys returns all keys currently present in the data bag.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.Data))
	for k := range c.Data {
		keys = append(keys, k)
	}
	return keys
}
