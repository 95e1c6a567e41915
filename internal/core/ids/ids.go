// Package ids はエンティティごとに区別された識別子型を定義します。
package ids

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalid は識別子の形式が不正な場合に返却されます。
var ErrInvalid = errors.New("ids: invalid identifier")

// WorkerID は従業員の識別子です。
type WorkerID string

// PeriodID は雇用期間の識別子です。
type PeriodID string

// LeaveID は休職期間の識別子です。
type LeaveID string

// LeaveTypeID は休職種別の識別子です。形式は外部マスタに従います。
type LeaveTypeID string

// WorkplaceID は勤務先の識別子です。形式は外部マスタに従います。
type WorkplaceID string

// NewPeriodID は新しい PeriodID を採番します。
func NewPeriodID() PeriodID {
	return PeriodID(uuid.NewString())
}

// NewLeaveID は新しい LeaveID を採番します。
func NewLeaveID() LeaveID {
	return LeaveID(uuid.NewString())
}

// ParseWorkerID は文字列を WorkerID として検証します。
func ParseWorkerID(raw string) (WorkerID, error) {
	v, err := parseUUID(raw)
	return WorkerID(v), err
}

// ParsePeriodID は文字列を PeriodID として検証します。
func ParsePeriodID(raw string) (PeriodID, error) {
	v, err := parseUUID(raw)
	return PeriodID(v), err
}

// ParseLeaveID は文字列を LeaveID として検証します。
func ParseLeaveID(raw string) (LeaveID, error) {
	v, err := parseUUID(raw)
	return LeaveID(v), err
}

// ParseLeaveTypeID は空白のみの値を拒否します。
func ParseLeaveTypeID(raw string) (LeaveTypeID, error) {
	v, err := parseOpaque(raw)
	return LeaveTypeID(v), err
}

// ParseWorkplaceID は空白のみの値を拒否します。
func ParseWorkplaceID(raw string) (WorkplaceID, error) {
	v, err := parseOpaque(raw)
	return WorkplaceID(v), err
}

func parseUUID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalid
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", ErrInvalid
	}
	return parsed.String(), nil
}

func parseOpaque(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalid
	}
	return trimmed, nil
}
