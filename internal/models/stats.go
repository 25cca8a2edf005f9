package models

import (
	"time"

	"gorm.io/datatypes"
)

// StatsNameSubmissions is the snapshot name used for submission outcome counts.
const StatsNameSubmissions = "submissions"

// StatsDaily is an immutable daily snapshot of submission outcomes.
type StatsDaily struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"size:64;not null" json:"name"`
	Date       datatypes.Date `gorm:"not null;index" json:"date"`
	TotalCnt   int64          `gorm:"not null" json:"total_cnt"`
	SuccessCnt int64          `gorm:"not null" json:"success_cnt"`
	FailureCnt int64          `gorm:"not null" json:"failure_cnt"`
	CreatedAt  time.Time      `json:"created_at"`
}

// StatsWeekly is an immutable weekly snapshot bounded by StartDate and EndDate.
type StatsWeekly struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:64;not null" json:"name"`
	StartDate  time.Time `gorm:"not null;index" json:"start_date"`
	EndDate    time.Time `gorm:"not null" json:"end_date"`
	TotalCnt   int64     `gorm:"not null" json:"total_cnt"`
	SuccessCnt int64     `gorm:"not null" json:"success_cnt"`
	FailureCnt int64     `gorm:"not null" json:"failure_cnt"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatsMonthly is an immutable snapshot anchored to the first day of a month.
type StatsMonthly struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"size:64;not null" json:"name"`
	Date       datatypes.Date `gorm:"not null;index" json:"date"`
	TotalCnt   int64          `gorm:"not null" json:"total_cnt"`
	SuccessCnt int64          `gorm:"not null" json:"success_cnt"`
	FailureCnt int64          `gorm:"not null" json:"failure_cnt"`
	CreatedAt  time.Time      `json:"created_at"`
}
