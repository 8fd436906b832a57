// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

import "time"

// PriceInput Цена продажи в одной валюте. Пустая валюта означает нативную.
type PriceInput struct {
	Currency *string `json:"currency,omitempty"`
	Price    *string `json:"price,omitempty" validate:"omitempty,numeric"`
}

// CreateSaleRequest Выставление актива на продажу
type CreateSaleRequest struct {
	CollectionID string       `json:"collectionId" validate:"required"`
	AssetID      string       `json:"assetId" validate:"required"`
	OwnerID      string       `json:"ownerId" validate:"required"`
	ApprovalID   uint64       `json:"approvalId"`
	Prices       []PriceInput `json:"prices" validate:"dive"`
}

// SetPriceRequest Изменение цены в одной валюте
type SetPriceRequest struct {
	Currency string `json:"currency" validate:"required"`
	Price    string `json:"price" validate:"required,numeric"`
}

// PurchaseRequest Покупка за нативную валюту
type PurchaseRequest struct {
	AttachedDeposit string `json:"attachedDeposit" validate:"required,numeric"`
}

// TokenPurchaseRequest Покупка за фунгибельный токен, вызывается контрактом токена
type TokenPurchaseRequest struct {
	BuyerID string `json:"buyerId" validate:"required"`
	Amount  string `json:"amount" validate:"required,numeric"`
}

type Bid struct {
	OwnerID string `json:"ownerId"`
	Price   string `json:"price"`
}

type Sale struct {
	CollectionID string            `json:"collectionId"`
	AssetID      string            `json:"assetId"`
	OwnerID      string            `json:"ownerId"`
	ApprovalID   uint64            `json:"approvalId"`
	Conditions   map[string]string `json:"conditions"`
	Bids         map[string]Bid    `json:"bids"`
	CreatedAt    time.Time         `json:"createdAt"`
}

type Settlement struct {
	ID            string            `json:"id"`
	ListingKey    string            `json:"listingKey"`
	Currency      string            `json:"currency"`
	BuyerID       string            `json:"buyerId"`
	Price         string            `json:"price"`
	Status        string            `json:"status"`
	Payout        map[string]string `json:"payout,omitempty"`
	Leftover      string            `json:"leftover"`
	FailureReason string            `json:"failureReason,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	ResolvedAt    *time.Time        `json:"resolvedAt,omitempty"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`

	// SupportID Идентификатор запроса для поддержки
	SupportID string `json:"supportId"`
}

// ErrorCode Код ошибки
type ErrorCode string
