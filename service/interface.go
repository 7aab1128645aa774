package service

import (
	"context"

	"cafe-cart/cart"
	"cafe-cart/compose"
	models "cafe-cart/model"
	"cafe-cart/order"
)

type ServiceInterface interface {
	Menu() []CategoryDTO
	Item(id string) (ItemDTO, error)

	Add(itemID, size string, addons []string) (compose.Line, error)
	AddLine(name, rawPrice string) cart.Snapshot
	Remove(index int) cart.Snapshot
	UpdateQuantity(index, delta int) cart.Snapshot
	Clear() cart.Snapshot
	Cart() cart.Snapshot

	OpenSize(itemID string, addons []string) (SizePromptDTO, error)
	ChooseSize(label string) (compose.Line, error)
	DismissSize() SizePromptDTO
	SizePrompt() SizePromptDTO

	Summary() order.Summary
	Checkout(ctx context.Context, d models.DeliveryDetails) (ReceiptDTO, error)
	Locate(ctx context.Context, lat, lng float64) LocateDTO
}
