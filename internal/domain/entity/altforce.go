package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de pedido normalizados.
const (
	OrderStatusRequest    = "request"
	OrderStatusInProgress = "inProgress"
	OrderStatusConcluded  = "concluded"
	OrderStatusCanceled   = "canceled"
)

// AFOrder pedido espelhado da AltForce (fApiPedidos).
type AFOrder struct {
	AltforceID        string
	Status            string
	Date              *time.Time
	UserExternalID    *string
	BuyerName         string
	FreightName       string
	PaymentMethodName string
	PaymentTermName   string
	PriceListName     string
	Total             decimal.NullDecimal
	SubTotal          decimal.NullDecimal
	TecniconNumber    *string // conteúdo do step "Número do pedido TECNICON"
	Raw               []byte

	BudgetIDs    []string
	HasBudgetIDs bool // campo de orçamentos presente no payload
	Products     []AFOrderProduct
	HasProducts  bool // campo de produtos presente no payload
}

// AFOrderProduct item de pedido (dApiPedidosProdutos).
type AFOrderProduct struct {
	ProductID          string
	Name               string
	Quantity           decimal.NullDecimal
	TotalPrice         decimal.NullDecimal
	TotalPriceForOrder decimal.NullDecimal
	PriceLiquid        decimal.NullDecimal
	PriceWithOptionals decimal.NullDecimal
	Mask               string
}

// AFBudget orçamento (fApiOrcamentos).
type AFBudget struct {
	AltforceID     string
	Status         string
	Date           *time.Time
	UserName       string
	UserExternalID *string
	BuyerID        string
	BuyerName      string
	BuyerEmail     string
	BuyerPhone     string
	FreightName    string
	Total          decimal.NullDecimal
	SubTotal       decimal.NullDecimal
	Raw            []byte

	Products    []AFBudgetProduct
	HasProducts bool
}

// AFBudgetProduct item de orçamento; ItemID distingue linhas repetidas do mesmo produto.
type AFBudgetProduct struct {
	ItemID     string
	ProductID  string
	Name       string
	Quantity   decimal.NullDecimal
	TotalPrice decimal.NullDecimal
}

// AFLead lead comercial (fApiLeads).
type AFLead struct {
	AltforceID     string
	Status         string
	Date           *time.Time
	UserName       string
	UserExternalID *string
	ClientID       *string
	InterestLevel  string
	Raw            []byte

	Interests    []AFLeadInterest
	HasInterests bool
}

// AFLeadInterest categoria de interesse de um lead; categorias sem id recebem "name:<normalizado>".
type AFLeadInterest struct {
	ProductID    string
	CategoryName string
}

// AFCustomer cliente (fApiClientes), carga completa.
type AFCustomer struct {
	AltforceID  string
	Name        string
	NameNorm    string
	Email       string
	Phone       string
	CityName    string
	StateName   string
	CountryName string
	Raw         []byte
}
