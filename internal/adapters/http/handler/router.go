// Package handler は HTTP/JSON の入出力をユースケースに変換します。
package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ogurasousui/worker-chronology/internal/core/audit"
	"github.com/ogurasousui/worker-chronology/internal/core/leave"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
)

// ReportWriter は監査結果をファイル形式で書き出します。
type ReportWriter interface {
	ContentType() string
	FileName() string
	Write(w io.Writer, findings []audit.WorkerFindings) error
}

// Handler は HTTP エンドポイントの実装です。
type Handler struct {
	periods  period.UseCase
	leaves   leave.UseCase
	audits   audit.UseCase
	exporter ReportWriter
	logger   *slog.Logger
}

// NewHandler は Handler を生成します。logger が nil の場合はログを出力しません。
func NewHandler(periods period.UseCase, leaves leave.UseCase, audits audit.UseCase, exporter ReportWriter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{periods: periods, leaves: leaves, audits: audits, exporter: exporter, logger: logger}
}

// RouterOptions はルーター構築時の設定です。
type RouterOptions struct {
	AllowedOrigins []string
	// AccessLog が false の場合はアクセスログを出力しません。
	AccessLog bool
}

// NewRouter はすべてのルートを登録したルーターを生成します。
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/", h.CreatePeriod)
			r.Get("/{id}", h.GetPeriod)
			r.Patch("/{id}", h.UpdatePeriod)
			r.Delete("/{id}", h.DeletePeriod)
			r.Post("/{id}/close", h.ClosePeriod)
		})

		r.Route("/leaves", func(r chi.Router) {
			r.Get("/", h.ListLeaves)
			r.Post("/", h.CreateLeave)
			r.Get("/{id}", h.GetLeave)
			r.Patch("/{id}", h.UpdateLeave)
			r.Delete("/{id}", h.DeleteLeave)
			r.Post("/{id}/close", h.CloseLeave)
		})

		r.Route("/audits", func(r chi.Router) {
			r.Post("/payroll", h.AuditPayroll)
			r.Post("/payroll/export", h.ExportPayrollAudit)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
