package worker

import (
	"context"

	"github.com/ogurasousui/worker-chronology/internal/core/ids"
)

// Employment は雇用状態による絞り込み条件です。
type Employment string

const (
	EmploymentActive   Employment = "active"
	EmploymentInactive Employment = "inactive"
	EmploymentAll      Employment = "all"
)

// Statuses は絞り込み条件に該当する Status を返します。nil は全件を意味します。
func (e Employment) Statuses() []Status {
	switch e {
	case EmploymentActive:
		return []Status{StatusActive, StatusOnboarding}
	case EmploymentInactive:
		return []Status{StatusTerminated}
	default:
		return nil
	}
}

// Filter は従業員検索の条件です。nil のフラグは条件なしを意味します。
type Filter struct {
	Employment       Employment
	ExternallyFunded *bool
	Tracked          *bool
}

// Repository は従業員集約の参照を抽象化します。従業員の作成・更新はこのモジュールの責務外です。
type Repository interface {
	Find(ctx context.Context, filter Filter) ([]*Worker, error)
	FindByID(ctx context.Context, id ids.WorkerID) (*Worker, error)
}
