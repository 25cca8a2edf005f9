package models

import "time"

// RequestLog records one inbound HTTP request.
type RequestLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Method        string    `gorm:"size:16;not null" json:"method"`
	URI           string    `gorm:"size:2048;not null" json:"uri"`
	UserAgent     string    `gorm:"size:512" json:"user_agent"`
	IPAddress     string    `gorm:"size:64" json:"ip_address"`
	IsSuccess     bool      `json:"is_success"`
	HTTPStatus    int       `json:"http_status"`
	LatencyMs     int64     `json:"latency_ms"`
	CorrelationID string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}
