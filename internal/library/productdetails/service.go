// Package productdetails は分類コード範囲表の保守（旧 genres 管理の置き換え）
package productdetails

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"LIBRA-backend/internal/platform/apierr"
)

type Service struct {
	store *Store
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

func parseBoolish(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "1" || s == "true" || s == "yes" || s == "all"
}

func normalize(from, to, category string) (ProductDetail, error) {
	p := ProductDetail{
		CodeFrom: strings.ToUpper(strings.TrimSpace(from)),
		CodeTo:   strings.ToUpper(strings.TrimSpace(to)),
		Category: strings.TrimSpace(category),
	}
	if p.CodeFrom == "" || p.CodeTo == "" || p.Category == "" {
		return p, apierr.Invalid("code_from, code_to and category are required")
	}
	// 同じ桁数なら文字列比較で範囲の向きを判定できる
	if len(p.CodeFrom) == len(p.CodeTo) && p.CodeFrom > p.CodeTo {
		return p, apierr.Invalid("code_from must not exceed code_to")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, all string) ([]ProductDetail, error) {
	res, err := s.store.List(ctx, parseBoolish(all))
	if err != nil {
		logrus.WithError(err).Error("list product details failed")
		return nil, apierr.Storage(err)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*ProductDetail, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("product detail not found")
		}
		return nil, apierr.Storage(err)
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in CreateRequest) (*ProductDetail, error) {
	p, err := normalize(in.CodeFrom, in.CodeTo, in.Category)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, &p); err != nil {
		logrus.WithError(err).WithField("category", p.Category).Error("create product detail failed")
		return nil, apierr.Storage(err)
	}
	logrus.WithFields(logrus.Fields{"id": p.ID, "category": p.Category}).Info("product detail added")
	return &p, nil
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateRequest) (*ProductDetail, error) {
	p, err := normalize(in.CodeFrom, in.CodeTo, in.Category)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.IsDisabled = in.IsDisabled

	if err := s.store.Update(ctx, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("product detail not found")
		}
		return nil, apierr.Storage(err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.store.Disable(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.NotFound("product detail not found")
		}
		return apierr.Storage(err)
	}
	logrus.WithField("id", id).Info("product detail disabled")
	return nil
}
