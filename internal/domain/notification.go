package domain

import "context"

// NotificationService reports the outcome of a committed sync
type NotificationService interface {
	SendSuccess(ctx context.Context, report SyncReport) error
	SendError(ctx context.Context, err error) error
}

// SyncReport summarises one planned sync
type SyncReport struct {
	Full      bool            `json:"full" yaml:"full"`
	Committed bool            `json:"committed" yaml:"committed"`
	Series    ClassSyncReport `json:"series" yaml:"series"`
	Movies    ClassSyncReport `json:"movies" yaml:"movies"`
}

// ClassSyncReport counts catalog items of one class
type ClassSyncReport struct {
	Total      int `json:"total" yaml:"total"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
	Planned    int `json:"planned" yaml:"planned"`
	Resolved   int `json:"resolved" yaml:"resolved"`
}

// ResolvedPercent is the share of planned items that got a provider id
func (r ClassSyncReport) ResolvedPercent() float64 {
	if r.Planned == 0 {
		return 0
	}
	return float64(r.Resolved) / float64(r.Planned) * 100
}
