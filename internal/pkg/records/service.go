// Package records implements the mutation and query surface over stored
// receipt records: single and bulk edits, deletes with blob release and
// quota refunds.
package records

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/smartscan-app/smartscan/app/models"
	"github.com/smartscan-app/smartscan/app/repository"
	"github.com/smartscan-app/smartscan/internal/pkg/apperrors"
	"github.com/smartscan-app/smartscan/internal/pkg/blobstore"
	"github.com/smartscan-app/smartscan/internal/pkg/quota"
)

// UpdateFields carries the caller-editable record fields. Nil pointers
// leave the stored value untouched.
type UpdateFields struct {
	Date        *string
	VendorName  *string
	TotalAmount *string
	Category    *string
}

// Service owns record lifecycle operations for a user.
type Service struct {
	repo  repository.RecordRepository
	blobs blobstore.Store
	quota quota.Ledger
}

func NewService(repo repository.RecordRepository, blobs blobstore.Store, quota quota.Ledger) *Service {
	return &Service{repo: repo, blobs: blobs, quota: quota}
}

// List returns all records of a user, newest first by date.
func (s *Service) List(userID uint) ([]models.ReceiptRecord, error) {
	recs, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "記録の取得に失敗しました", err)
	}
	return recs, nil
}

// ListByIDs returns the user's records among the given IDs. Unknown IDs
// are silently skipped.
func (s *Service) ListByIDs(userID uint, ids []string) ([]models.ReceiptRecord, error) {
	recs, err := s.repo.ListByUserAndIDs(userID, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "記録の取得に失敗しました", err)
	}
	return recs, nil
}

// Get returns one record scoped to its owner.
func (s *Service) Get(userID uint, id string) (*models.ReceiptRecord, error) {
	rec, err := s.repo.GetByID(userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "記録が見つかりません")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "記録の取得に失敗しました", err)
	}
	return rec, nil
}

// Update edits a record's date, vendor, amount or category. Amounts are
// normalized the same way as extraction output ("¥1,234" becomes 1234).
func (s *Service) Update(userID uint, id string, fields UpdateFields) (*models.ReceiptRecord, error) {
	updates := map[string]interface{}{}
	if fields.Date != nil {
		updates["date"] = *fields.Date
	}
	if fields.VendorName != nil {
		updates["vendor_name"] = *fields.VendorName
	}
	if fields.TotalAmount != nil {
		amount, err := models.NormalizeAmount(*fields.TotalAmount)
		if err != nil {
			return nil, apperrors.New(apperrors.KindValidation, "金額の形式が不正です")
		}
		updates["total_amount"] = amount
	}
	if fields.Category != nil {
		updates["category"] = *fields.Category
	}
	if len(updates) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "更新する項目がありません")
	}

	if err := s.repo.Update(userID, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "記録が見つかりません")
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, "記録の更新に失敗しました", err)
	}
	return s.Get(userID, id)
}

// Delete removes a record, releases its stored artifacts best effort and
// refunds one quota unit.
func (s *Service) Delete(ctx context.Context, userID uint, id string) error {
	rec, err := s.repo.GetByID(userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.KindNotFound, "記録が見つかりません")
		}
		return apperrors.Wrap(apperrors.KindInternal, "記録の取得に失敗しました", err)
	}

	s.releaseBlobs(ctx, rec)

	if err := s.repo.Delete(userID, id); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "記録の削除に失敗しました", err)
	}
	if err := s.quota.Decrement(userID, 1); err != nil {
		log.Warnf("[Records] Quota refund failed for user %d: %v", userID, err)
	}
	return nil
}

// BulkDelete removes the given records and refunds quota once for the
// records actually deleted. Missing IDs are reported, not fatal.
func (s *Service) BulkDelete(ctx context.Context, userID uint, ids []string) (deleted, failed []string, err error) {
	if len(ids) == 0 {
		return nil, nil, apperrors.New(apperrors.KindValidation, "削除する記録が指定されていません")
	}

	for _, id := range ids {
		rec, gerr := s.repo.GetByID(userID, id)
		if gerr != nil {
			failed = append(failed, id)
			continue
		}
		s.releaseBlobs(ctx, rec)
		if derr := s.repo.Delete(userID, id); derr != nil {
			failed = append(failed, id)
			continue
		}
		deleted = append(deleted, id)
	}

	if len(deleted) > 0 {
		if qerr := s.quota.Decrement(userID, len(deleted)); qerr != nil {
			log.Warnf("[Records] Quota refund failed for user %d: %v", userID, qerr)
		}
	}
	return deleted, failed, nil
}

// BulkUpdate applies a category and/or date to the given records.
func (s *Service) BulkUpdate(userID uint, ids []string, category, date *string) (updated, failed []string, err error) {
	if len(ids) == 0 {
		return nil, nil, apperrors.New(apperrors.KindValidation, "更新する記録が指定されていません")
	}
	updates := map[string]interface{}{}
	if category != nil {
		updates["category"] = *category
	}
	if date != nil {
		updates["date"] = *date
	}
	if len(updates) == 0 {
		return nil, nil, apperrors.New(apperrors.KindValidation, "更新する項目がありません")
	}

	for _, id := range ids {
		if uerr := s.repo.Update(userID, id, updates); uerr != nil {
			failed = append(failed, id)
			continue
		}
		updated = append(updated, id)
	}
	return updated, failed, nil
}

// DeleteAllForUser removes every record and artifact of a user. Used by
// the admin cascade on account deletion; quota is not refunded because
// the account is going away.
func (s *Service) DeleteAllForUser(ctx context.Context, userID uint) error {
	recs, err := s.repo.ListByUser(userID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "記録の取得に失敗しました", err)
	}
	for i := range recs {
		s.releaseBlobs(ctx, &recs[i])
	}
	if err := s.repo.DeleteByUser(userID); err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "記録の削除に失敗しました", err)
	}
	return nil
}

// releaseBlobs deletes the record's stored artifacts. The storage key is
// preferred; URL-derived keys only cover records written before keys
// were stored. Failures are logged and never block the record delete.
func (s *Service) releaseBlobs(ctx context.Context, rec *models.ReceiptRecord) {
	deleteOne := func(key, url string) {
		switch {
		case key != "":
			if err := s.blobs.DeleteKey(ctx, key); err != nil {
				log.Warnf("[Records] Blob delete failed for key %s: %v", key, err)
			}
		case url != "":
			if _, err := s.blobs.Delete(ctx, url); err != nil {
				log.Warnf("[Records] Blob delete failed for %s: %v", url, err)
			}
		}
	}

	deleteOne(rec.StorageKey, rec.ImageURL)
	for i, url := range rec.PDFImages {
		key := ""
		if i < len(rec.PDFImageKeys) {
			key = rec.PDFImageKeys[i]
		}
		deleteOne(key, url)
	}
}
