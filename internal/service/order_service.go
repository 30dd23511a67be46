package service

import (
	"strings"
	"time"

	"github.com/tavan-shop/storefront/internal/constants"
	"github.com/tavan-shop/storefront/internal/logger"
	"github.com/tavan-shop/storefront/internal/models"
	"github.com/tavan-shop/storefront/internal/repository"
)

// OrderService 订单查询与后台状态流转
type OrderService struct {
	orderRepo repository.OrderRepository
	now       func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo, now: time.Now}
}

// ListMine 我的订单
func (s *OrderService) ListMine(session *Session, status string, page, pageSize int) ([]models.Order, int64, error) {
	if !session.IsUser() {
		return nil, 0, ErrInvalidToken
	}
	return s.orderRepo.ListByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   session.UserID(),
		Status:   strings.TrimSpace(status),
	})
}

// GetMine 我的订单详情
func (s *OrderService) GetMine(session *Session, id uint) (*models.Order, error) {
	if !session.IsUser() {
		return nil, ErrInvalidToken
	}
	order, err := s.orderRepo.GetByIDAndUser(id, session.UserID())
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListAdmin 后台订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetAdmin 后台订单详情
func (s *OrderService) GetAdmin(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus 后台推进订单状态
func (s *OrderService) UpdateStatus(session *Session, id uint, target string) (*models.Order, error) {
	order, err := s.GetAdmin(id)
	if err != nil {
		return nil, err
	}
	target = strings.ToLower(strings.TrimSpace(target))
	if !canTransitOrder(order.Status, target) {
		return nil, ErrOrderStatusInvalid
	}

	now := s.now()
	updates := map[string]interface{}{"updated_at": now}
	switch target {
	case constants.OrderStatusPaid:
		if order.PaidAt == nil {
			updates["paid_at"] = now
			order.PaidAt = &now
		}
	case constants.OrderStatusCanceled:
		updates["canceled_at"] = now
		order.CanceledAt = &now
	}
	if err := s.orderRepo.UpdateStatus(order.ID, target, updates); err != nil {
		return nil, err
	}
	adminID := uint(0)
	if session != nil {
		adminID = session.SubjectID
	}
	logger.Infow("order_status_updated",
		"order_no", order.OrderNo,
		"from", order.Status,
		"to", target,
		"admin_id", adminID,
	)
	order.Status = target
	return order, nil
}

var orderTransitions = map[string]map[string]bool{
	constants.OrderStatusAwaitingTransfer: {
		constants.OrderStatusPaid:     true,
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusProcessing: true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusCompleted: true,
	},
}

// canTransitOrder 只允许向前推进；仅未收款订单可取消
func canTransitOrder(from, to string) bool {
	return orderTransitions[from][to]
}
