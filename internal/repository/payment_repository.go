package repository

import (
	"errors"
	"time"

	"github.com/tavan-shop/storefront/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 支付单数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	Update(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByPaymentNo(paymentNo string) (*models.Payment, error)
	GetByInvoiceID(invoiceID string) (*models.Payment, error)
	TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error)
	ListPendingExpired(now time.Time, limit int) ([]models.Payment, error)
	ListStalePaid(before time.Time, limit int) ([]models.Payment, error)
	GetLatestFinalizedByUser(userID uint) (*models.Payment, error)
	List(filter PaymentListFilter) ([]models.Payment, int64, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付单仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建支付单
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// Update 更新支付单
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// GetByID 根据 ID 获取
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByPaymentNo 根据支付单号获取
func (r *GormPaymentRepository) GetByPaymentNo(paymentNo string) (*models.Payment, error) {
	return r.first(r.db.Where("payment_no = ?", paymentNo))
}

// GetByInvoiceID 根据网关发票号获取
func (r *GormPaymentRepository) GetByInvoiceID(invoiceID string) (*models.Payment, error) {
	return r.first(r.db.Where("invoice_id = ?", invoiceID))
}

func (r *GormPaymentRepository) first(query *gorm.DB) (*models.Payment, error) {
	var payment models.Payment
	if err := query.First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// TransitionStatus 条件更新状态，仅当当前状态在 from 中时生效；返回是否抢到本次状态迁移
func (r *GormPaymentRepository) TransitionStatus(id uint, from []string, to string, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListPendingExpired 获取已过期仍待支付的支付单
func (r *GormPaymentRepository) ListPendingExpired(now time.Time, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	query := r.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", "pending", now).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// ListStalePaid 获取已确认收款但迟迟未落单的支付单
func (r *GormPaymentRepository) ListStalePaid(before time.Time, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	query := r.db.Where("status = ? AND order_id IS NULL AND paid_at IS NOT NULL AND paid_at <= ?", "paid", before).Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// GetLatestFinalizedByUser 获取用户最近一次已落单的支付单
func (r *GormPaymentRepository) GetLatestFinalizedByUser(userID uint) (*models.Payment, error) {
	return r.first(r.db.Where("user_id = ? AND status = ?", userID, "finalized").Order("id desc"))
}

// List 支付单列表
func (r *GormPaymentRepository) List(filter PaymentListFilter) ([]models.Payment, int64, error) {
	query := r.db.Model(&models.Payment{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var payments []models.Payment
	if err := query.Order("id desc").Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
