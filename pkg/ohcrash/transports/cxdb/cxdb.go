// Package cxdb provides a transport that persists reports to cxdb as
// SystemMessage items.
package cxdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"
	cxdtypes "github.com/strongdm/ai-cxdb/clients/go/types"

	"github.com/strongdm/ohcrash-go/pkg/ohcrash"
)

// Client is the minimal interface for cxdb client operations.
// The real *cxdb.Client satisfies this interface.
type Client interface {
	CreateContext(ctx context.Context, baseTurnID uint64) (*cxdbclient.ContextHead, error)
	AppendTurn(ctx context.Context, req *cxdbclient.AppendRequest) (*cxdbclient.AppendResult, error)
}

// Option configures the cxdb transport.
type Option func(*config)

type config struct {
	orphanLabels []string
	clientTag    string
	closeClient  bool
}

// WithOrphanLabels sets labels for contexts created for unlinked reports.
func WithOrphanLabels(labels []string) Option {
	return func(c *config) {
		c.orphanLabels = labels
	}
}

// WithClientTag sets the client tag for orphan contexts.
func WithClientTag(tag string) Option {
	return func(c *config) {
		c.clientTag = tag
	}
}

// WithCloseClient makes Close also close the cxdb client when it implements
// io.Closer.
func WithCloseClient() Option {
	return func(c *config) {
		c.closeClient = true
	}
}

type transport struct {
	client       Client
	orphanLabels []string
	clientTag    string
	closeClient  bool

	mu     sync.RWMutex
	closed bool
}

// New creates a transport that writes to cxdb.
func New(client Client, opts ...Option) ohcrash.Transport {
	cfg := &config{
		orphanLabels: []string{"error", "unlinked"},
		clientTag:    "ohcrash",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &transport{
		client:       client,
		orphanLabels: cfg.orphanLabels,
		clientTag:    cfg.clientTag,
		closeClient:  cfg.closeClient,
	}
}

// Dial connects to cxdb at addr and returns a transport that owns the
// connection.
func Dial(addr string, opts ...Option) (ohcrash.Transport, error) {
	cfg := &config{clientTag: "ohcrash"}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := cxdbclient.Dial(addr, cxdbclient.WithClientTag(cfg.clientTag))
	if err != nil {
		return nil, fmt.Errorf("dial cxdb: %w", err)
	}
	return New(client, append(opts, WithCloseClient())...), nil
}

// Send appends the report to its linked context, or to a new orphan context
// when the report carries no context ID.
func (t *transport) Send(ctx context.Context, report ohcrash.Report) error {
	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ohcrash.ErrTransportClosed
	}

	var contextID uint64
	isOrphan := false

	if report.ContextID != nil {
		contextID = *report.ContextID
	} else {
		head, err := t.client.CreateContext(ctx, 0)
		if err != nil {
			return fmt.Errorf("create orphan context: %w", err)
		}
		contextID = head.ContextID
		isOrphan = true
	}

	item := t.buildConversationItem(report, isOrphan)

	payload, err := cxdbclient.EncodeMsgpack(item)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req := &cxdbclient.AppendRequest{
		ContextID:      contextID,
		ParentTurnID:   0,
		TypeID:         cxdtypes.TypeIDConversationItem,
		TypeVersion:    cxdtypes.TypeVersionConversationItem,
		Payload:        payload,
		IdempotencyKey: report.ID,
	}

	if _, err := t.client.AppendTurn(ctx, req); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// buildConversationItem creates a canonical ConversationItem from a Report.
func (t *transport) buildConversationItem(report ohcrash.Report, isOrphan bool) *cxdtypes.ConversationItem {
	// Title: "name: truncated message"
	name := report.Name
	if name == "" {
		name = "error"
	}
	title := name
	if report.Message != "" {
		const maxMsgLen = 80
		msg := report.Message
		if len(msg) > maxMsgLen {
			msg = truncate(msg, maxMsgLen) + "..."
		}
		title = name + ": " + msg
	}
	if len(title) > 100 {
		title = truncate(title, 97) + "..."
	}

	item := &cxdtypes.ConversationItem{
		ItemType:  cxdtypes.ItemTypeSystem,
		Status:    cxdtypes.ItemStatusComplete,
		Timestamp: report.Timestamp.UnixMilli(),
		ID:        report.ID,
		System: &cxdtypes.SystemMessage{
			Kind:    cxdtypes.SystemKindError,
			Title:   title,
			Content: buildDetails(report),
		},
	}

	// cxdb expects context metadata on the first turn of a new context.
	if isOrphan {
		item.ContextMetadata = &cxdtypes.ContextMetadata{
			Labels:    t.labelsFor(report),
			ClientTag: t.clientTag,
		}
	}

	return item
}

// labelsFor appends the report's own labels to the orphan labels.
func (t *transport) labelsFor(report ohcrash.Report) []string {
	labels := append([]string(nil), t.orphanLabels...)
	switch v := report.Props["labels"].(type) {
	case []string:
		labels = append(labels, v...)
	case []any:
		for _, l := range v {
			if s, ok := l.(string); ok {
				labels = append(labels, s)
			}
		}
	}
	return labels
}

// buildDetails encodes the report as JSON for SystemMessage.Content.
func buildDetails(report ohcrash.Report) string {
	details := map[string]any{
		"report_id":   report.ID,
		"name":        report.Name,
		"message":     report.Message,
		"fingerprint": report.Fingerprint,
		"channel":     string(report.Channel),
	}

	if report.Stack != "" {
		details["stack"] = report.Stack
	}
	if len(report.Props) > 0 {
		details["props"] = report.Props
	}
	if report.ContextID != nil {
		details["context_id"] = *report.ContextID
	}
	if report.System != nil {
		details["system_state"] = map[string]any{
			"memory_bytes":    report.System.MemoryBytes,
			"goroutine_count": report.System.GoroutineCount,
			"uptime_ms":       report.System.UptimeMs,
			"host_name":       report.System.HostName,
		}
	}

	jsonBytes, err := json.Marshal(details)
	if err != nil {
		// Props may hold values JSON cannot encode; keep the rest.
		delete(details, "props")
		if jsonBytes, err = json.Marshal(details); err != nil {
			return fmt.Sprintf(`{"error":"failed to encode details: %s"}`, err)
		}
	}
	return string(jsonBytes)
}

// Flush is a no-op; appends are synchronous.
func (t *transport) Flush(ctx context.Context) error {
	return nil
}

// Close marks the transport closed and, if owned, closes the cxdb client.
func (t *transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	if t.closeClient {
		if c, ok := t.client.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}
