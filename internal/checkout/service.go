package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/chiecouture/storefront-backend/internal/cart"
	"github.com/chiecouture/storefront-backend/internal/orders"
	"github.com/chiecouture/storefront-backend/pkg/db/models"
	pkgerrors "github.com/chiecouture/storefront-backend/pkg/errors"
	"github.com/chiecouture/storefront-backend/pkg/logger"
	"github.com/chiecouture/storefront-backend/pkg/mailer"
	"github.com/chiecouture/storefront-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type buyerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, buyerID uuid.UUID) (*orders.OrderDTO, error)
}

type service struct {
	tx         txRunner
	cartRepo   cart.CartRepository
	ordersRepo orders.Repository
	buyers     buyerLoader
	mail       mailer.Sender
	metrics    *metrics.HTTPMetrics
	logg       *logger.Logger
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	cartRepo cart.CartRepository,
	ordersRepo orders.Repository,
	buyers buyerLoader,
	mail mailer.Sender,
	httpMetrics *metrics.HTTPMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if buyers == nil {
		return nil, fmt.Errorf("buyer loader required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:         tx,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		buyers:     buyers,
		mail:       mail,
		metrics:    httpMetrics,
		logg:       logg,
	}, nil
}

// Execute commits the buyer's cart into an order. The cart row is locked FOR
// UPDATE for the whole transaction, so a concurrent checkout of the same cart
// waits and then sees an emptied cart. On success the invoice email is sent;
// a delivery failure comes back as a notification error alongside the
// committed order.
func (s *service) Execute(ctx context.Context, buyerID uuid.UUID) (*orders.OrderDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}

	var committed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		record, err := cartRepo.FindByBuyerForUpdate(ctx, buyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		order := &models.Order{BuyerID: buyerID, Total: decimal.Zero}
		if err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(record.Items))
		for _, line := range record.Items {
			if line.Product == nil {
				return pkgerrors.New(pkgerrors.CodeDependency, "cart line lost its product")
			}
			productID := line.ProductID
			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				ProductID:   &productID,
				ProductName: line.Product.Name,
				Quantity:    line.Quantity,
				Price:       line.Product.Price,
			})
			total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		order.Total = total
		if err := ordersRepo.UpdateTotal(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order total")
		}

		if err := cartRepo.DeleteItemsByCart(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		order.Items = items
		committed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := orders.FromModel(committed)

	buyer, err := s.buyers.FindByID(ctx, buyerID)
	if err != nil {
		s.metrics.IncNotification("email", false)
		return result, pkgerrors.Wrap(pkgerrors.CodeNotification, err, "order placed, invoice delivery failed").
			WithDetails(map[string]string{"order_id": committed.ID.String()})
	}

	msg := mailer.Message{
		ToName:  buyer.Username,
		ToEmail: buyer.Email,
		Subject: invoiceSubject(committed),
		Body:    renderInvoice(committed),
	}
	if sendErr := s.mail.Send(ctx, msg); sendErr != nil {
		s.metrics.IncNotification("email", false)
		s.logg.Error(s.logg.WithField(ctx, "order_id", committed.ID.String()), "invoice delivery failed", sendErr)
		return result, pkgerrors.Wrap(pkgerrors.CodeNotification, sendErr, "order placed, invoice delivery failed").
			WithDetails(map[string]string{"order_id": committed.ID.String()})
	}
	s.metrics.IncNotification("email", true)

	return result, nil
}
