package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

// AdminInvoiceUsecase は管理者用の請求書操作。
type AdminInvoiceUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	logger    zerolog.Logger
}

func NewAdminInvoiceUsecase(
	tx repo.TransactionManager,
	auditRepo repo.AuditLogRepository,
	logger zerolog.Logger,
) *AdminInvoiceUsecase {
	return &AdminInvoiceUsecase{
		tx:        tx,
		auditRepo: auditRepo,
		logger:    logger,
	}
}

type AdminInvoiceListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type AdminInvoiceListOutput struct {
	Invoices []InvoiceOutput `json:"invoices"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

func (u *AdminInvoiceUsecase) List(ctx context.Context, in AdminInvoiceListInput) (AdminInvoiceListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.Status != "" && !model.InvoiceStatus(in.Status).Valid() {
		return AdminInvoiceListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out AdminInvoiceListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		invoices, total, err := r.Invoices().ListAdmin(ctx, repo.AdminInvoiceListFilter{
			Page:   in.Page,
			Limit:  in.Limit,
			Status: in.Status,
			UserID: in.UserID,
			From:   in.From,
			To:     in.To,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs := make([]InvoiceOutput, 0, len(invoices))
		for _, inv := range invoices {
			items, err := r.InvoiceItems().ListByInvoiceID(ctx, inv.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toInvoiceOutput(inv, items))
		}

		out = AdminInvoiceListOutput{
			Invoices: outs,
			Total:    total,
			Page:     in.Page,
			Limit:    in.Limit,
		}
		return nil
	})

	if err != nil {
		return AdminInvoiceListOutput{}, err
	}
	return out, nil
}

// UpdateStatus は請求書のステータス変更。
// cancelledへの変更は在庫を戻す。cancelledからの復帰は不可。
func (u *AdminInvoiceUsecase) UpdateStatus(ctx context.Context, adminUserID int64, invoiceID int64, newStatus string) (InvoiceOutput, error) {
	if invoiceID <= 0 {
		return InvoiceOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	status := model.InvoiceStatus(newStatus)
	if !status.Valid() {
		return InvoiceOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out InvoiceOutput
	var before model.InvoiceStatus

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		inv, err := r.Invoices().FindByID(ctx, invoiceID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		before = inv.Status

		if inv.Status == status {
			return NewHTTPError(http.StatusBadRequest, "status unchanged")
		}
		if inv.Status == model.InvoiceStatusCancelled {
			// キャンセル済みは終端
			return NewHTTPError(http.StatusBadRequest, "invoice already cancelled")
		}

		if err := r.Invoices().UpdateStatus(ctx, invoiceID, status); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.InvoiceItems().ListByInvoiceID(ctx, invoiceID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// キャンセルは在庫を戻す（チェックアウトで減らした分）
		if status == model.InvoiceStatusCancelled {
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}

		inv.Status = status
		out = toInvoiceOutput(inv, items)
		return nil
	})

	if err != nil {
		return InvoiceOutput{}, err
	}

	u.writeAudit(ctx, adminUserID, invoiceID, before, status)

	return out, nil
}

// 監査ログ書き込み。失敗しても本処理は成功扱い。
func (u *AdminInvoiceUsecase) writeAudit(ctx context.Context, adminUserID int64, invoiceID int64, before model.InvoiceStatus, after model.InvoiceStatus) {
	beforeJSON, _ := json.Marshal(map[string]string{"status": string(before)})
	afterJSON, _ := json.Marshal(map[string]string{"status": string(after)})

	err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateInvoiceStatus,
		ResourceType: model.AuditResourceInvoice,
		ResourceID:   invoiceID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		u.logger.Warn().Err(err).Int64("invoice_id", invoiceID).Msg("failed to write audit log")
	}
}
