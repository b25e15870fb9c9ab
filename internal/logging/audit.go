package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType names a data mutation recorded in the audit trail.
type AuditEventType string

const (
	AuditRecipeCreate AuditEventType = "recipe_create"
	AuditRecipeUpdate AuditEventType = "recipe_update"
	AuditRecipeDelete AuditEventType = "recipe_delete"
	AuditPhotoSave    AuditEventType = "photo_save"
	AuditPhotoDelete  AuditEventType = "photo_delete"
	AuditPhotoMove    AuditEventType = "photo_move"
	AuditAuthReject   AuditEventType = "auth_reject"
)

// AuditEvent is one line of audit.jsonl.
type AuditEvent struct {
	Timestamp int64          `json:"ts"`
	Type      AuditEventType `json:"type"`
	UserID    string         `json:"user,omitempty"`
	Target    string         `json:"target,omitempty"`
	Success   bool           `json:"ok"`
	Detail    string         `json:"detail,omitempty"`
}

var (
	auditMu   sync.Mutex
	auditFile *os.File
)

// Audit appends an event to <logs>/audit.jsonl. No-op outside debug mode.
func Audit(eventType AuditEventType, userID, target string, success bool, detail string) {
	if !IsDebugMode() || logsDir == "" {
		return
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile == nil {
		f, err := os.OpenFile(filepath.Join(logsDir, "audit.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[logging] Warning: could not open audit log: %v\n", err)
			return
		}
		auditFile = f
	}

	data, err := json.Marshal(AuditEvent{
		Timestamp: time.Now().UnixMilli(),
		Type:      eventType,
		UserID:    userID,
		Target:    target,
		Success:   success,
		Detail:    detail,
	})
	if err != nil {
		return
	}
	auditFile.Write(append(data, '\n'))
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}
