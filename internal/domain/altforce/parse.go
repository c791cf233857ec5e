// Package altforce traduce los payloads JSON de la API AltForce a entidades del portal.
// Las funciones toleran las variaciones de formato que la API entrega entre versiones.
package altforce

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/pkg/textutil"
)

// Record objeto JSON crudo de la API.
type Record = map[string]any

// ExtractList toma la lista de registros de un array suelto o de las claves
// items, data, <resource>, content, results.
func ExtractList(body []byte, resource string) ([]Record, error) {
	var anyBody any
	if err := json.Unmarshal(body, &anyBody); err != nil {
		return nil, fmt.Errorf("altforce: json inválido: %w", err)
	}
	switch v := anyBody.(type) {
	case []any:
		return toRecords(v), nil
	case map[string]any:
		for _, key := range []string{"items", "data", resource, "content", "results"} {
			if lst, ok := v[key].([]any); ok {
				return toRecords(lst), nil
			}
		}
	}
	return nil, nil
}

func toRecords(lst []any) []Record {
	out := make([]Record, 0, len(lst))
	for _, it := range lst {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// get acceso seguro a r[k1][k2]...
func get(r Record, keys ...string) any {
	var cur any = r
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok || m == nil {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// str convierte escalares a string; "", "null" y "None" cuentan como vacío.
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if s == "null" || s == "None" {
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func firstStr(vals ...any) string {
	for _, v := range vals {
		if s := str(v); s != "" {
			return s
		}
	}
	return ""
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// UpstreamID id del registro: id | uuid | altforceId | externalId.
func UpstreamID(r Record) (string, error) {
	id := firstStr(r["id"], r["uuid"], r["altforceId"], r["externalId"])
	if id == "" {
		return "", fmt.Errorf("registro sem ID identificável")
	}
	return id, nil
}

// ParseDate acepta epoch en ms, ISO-8601 (con Z u offset) y dd/mm/YYYY HH:MM:SS.
func ParseDate(v any) *time.Time {
	switch t := v.(type) {
	case float64:
		d := time.UnixMilli(int64(t)).UTC()
		return &d
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			d := time.UnixMilli(ms).UTC()
			return &d
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if d, err := time.Parse(layout, s); err == nil {
				d = d.UTC()
				return &d
			}
		}
		if d, err := time.ParseInLocation("02/01/2006 15:04:05", s, time.Local); err == nil {
			d = d.UTC()
			return &d
		}
	}
	return nil
}

// ParseDecimal acepta números y strings, incluido el formato brasileño "1.234,56".
func ParseDecimal(v any) decimal.NullDecimal {
	switch t := v.(type) {
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return decimal.NullDecimal{}
		}
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(d)
	}
	return decimal.NullDecimal{}
}

func firstDecimal(vals ...any) decimal.NullDecimal {
	for _, v := range vals {
		if d := ParseDecimal(v); d.Valid {
			return d
		}
	}
	return decimal.NullDecimal{}
}

var statusMap = map[string]string{
	"request":     entity.OrderStatusRequest,
	"registered":  entity.OrderStatusRequest,
	"inprogress":  entity.OrderStatusInProgress,
	"in_progress": entity.OrderStatusInProgress,
	"processing":  entity.OrderStatusInProgress,
	"concluded":   entity.OrderStatusConcluded,
	"finished":    entity.OrderStatusConcluded,
	"completed":   entity.OrderStatusConcluded,
	"canceled":    entity.OrderStatusCanceled,
	"cancelled":   entity.OrderStatusCanceled,
}

// CoerceStatus reduce el status a request|inProgress|concluded|canceled (default request).
func CoerceStatus(v any) string {
	s := str(v)
	key := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(s, " ", ""), "-", "_"))
	if st, ok := statusMap[key]; ok {
		return st
	}
	return entity.OrderStatusRequest
}

func userExternalID(r Record) *string {
	return strPtr(firstStr(
		get(r, "user", "external_id"),
		get(r, "user", "externalId"),
		r["userExternalId"],
		r["user_external_id"],
	))
}

func recordDate(r Record, extra ...string) *time.Time {
	vals := []any{r["date"]}
	for _, k := range extra {
		vals = append(vals, r[k])
	}
	vals = append(vals, r["createdAt"], get(r, "timestamps", "createdAt"))
	for _, v := range vals {
		if d := ParseDate(v); d != nil {
			return d
		}
	}
	return nil
}

func rawJSON(r Record) []byte {
	b, _ := json.Marshal(r)
	return b
}

func hasAny(r Record, keys ...string) bool {
	for _, k := range keys {
		if _, ok := r[k]; ok {
			return true
		}
	}
	return false
}

func listOf(r Record, keys ...string) []Record {
	for _, k := range keys {
		if lst, ok := r[k].([]any); ok {
			return toRecords(lst)
		}
	}
	return nil
}

var tecniconStep = textutil.Normalize("Número do pedido TECNICON")

// ParseOrder convierte un registro de /orders.
func ParseOrder(r Record) (*entity.AFOrder, error) {
	id, err := UpstreamID(r)
	if err != nil {
		return nil, err
	}
	o := &entity.AFOrder{
		AltforceID:        id,
		Status:            CoerceStatus(r["status"]),
		Date:              recordDate(r, "orderDate"),
		UserExternalID:    userExternalID(r),
		BuyerName:         firstStr(get(r, "buyer", "name"), r["buyerName"]),
		FreightName:       firstStr(get(r, "freight", "name"), r["freightName"]),
		PaymentMethodName: firstStr(get(r, "paymentMethod", "name"), r["paymentMethodName"]),
		PaymentTermName:   firstStr(get(r, "paymentTerm", "name"), r["paymentTermName"]),
		PriceListName:     firstStr(get(r, "priceList", "name"), r["priceListName"]),
		Total:             firstDecimal(r["totalPrice"], get(r, "totals", "total"), r["total"]),
		SubTotal:          firstDecimal(r["subTotalPrice"], get(r, "totals", "subTotal"), r["subtotal"]),
		Raw:               rawJSON(r),
	}

	steps, _ := r["steps"].([]any)
	if steps == nil {
		steps, _ = get(r, "flow", "steps").([]any)
	}
	for _, st := range toRecords(steps) {
		name := firstStr(st["name"], get(st, "stepModel", "name"))
		if textutil.Normalize(name) == tecniconStep {
			o.TecniconNumber = strPtr(str(st["content"]))
			break
		}
	}

	if hasAny(r, "budgets_ids", "budgetsIds", "budgets") {
		o.HasBudgetIDs = true
		o.BudgetIDs = budgetIDs(r)
	}

	if hasAny(r, "products", "items", "itens", "orderProducts") {
		o.HasProducts = true
		for _, row := range listOf(r, "products", "items", "itens", "orderProducts") {
			pid := firstStr(row["id"], row["uuid"], row["productId"])
			if pid == "" {
				continue
			}
			o.Products = append(o.Products, entity.AFOrderProduct{
				ProductID:          pid,
				Name:               firstStr(row["name"], row["productName"]),
				Quantity:           ParseDecimal(row["quantity"]),
				TotalPrice:         ParseDecimal(row["totalPrice"]),
				TotalPriceForOrder: ParseDecimal(row["totalPriceForOrder"]),
				PriceLiquid:        firstDecimal(row["priceLiquid"], row["price_liquid"], row["priceNet"]),
				PriceWithOptionals: firstDecimal(row["priceWithOptionals"], row["price_with_optionals"], row["priceWithExtras"]),
				Mask:               str(row["mask"]),
			})
		}
	}
	return o, nil
}

func budgetIDs(r Record) []string {
	var raw any
	for _, k := range []string{"budgets_ids", "budgetsIds", "budgets"} {
		if v, ok := r[k]; ok && v != nil {
			raw = v
			break
		}
	}
	var ids []string
	switch t := raw.(type) {
	case []any:
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				if s := str(m["id"]); s != "" {
					ids = append(ids, s)
				}
				continue
			}
			if s := str(it); s != "" {
				ids = append(ids, s)
			}
		}
	default:
		if s := str(t); s != "" {
			ids = append(ids, s)
		}
	}
	return ids
}

// ParseBudget convierte un registro de /budgets.
func ParseBudget(r Record) (*entity.AFBudget, error) {
	id, err := UpstreamID(r)
	if err != nil {
		return nil, err
	}
	b := &entity.AFBudget{
		AltforceID:     id,
		Status:         str(r["status"]),
		Date:           recordDate(r),
		UserName:       str(get(r, "user", "name")),
		UserExternalID: userExternalID(r),
		BuyerID:        firstStr(get(r, "buyer", "id"), get(r, "buyer", "externalId")),
		BuyerName:      str(get(r, "buyer", "name")),
		BuyerEmail:     str(get(r, "buyer", "email")),
		BuyerPhone:     str(get(r, "buyer", "phone")),
		FreightName:    firstStr(get(r, "freight", "name"), r["freightName"]),
		Total:          firstDecimal(r["totalPrice"], get(r, "totals", "total"), r["total"]),
		SubTotal:       firstDecimal(r["subTotalPrice"], get(r, "totals", "subTotal"), r["subtotal"]),
		Raw:            rawJSON(r),
	}
	if hasAny(r, "products", "items", "itens") {
		b.HasProducts = true
		for idx, row := range listOf(r, "products", "items", "itens") {
			pid := firstStr(row["id"], row["uuid"], row["productId"])
			if pid == "" {
				continue
			}
			item := firstStr(row["item_id"], row["itemId"], row["lineId"], row["line_id"])
			if item == "" {
				item = fmt.Sprintf("%s#%d", pid, idx)
			}
			b.Products = append(b.Products, entity.AFBudgetProduct{
				ItemID:     item,
				ProductID:  pid,
				Name:       firstStr(row["name"], row["productName"]),
				Quantity:   ParseDecimal(row["quantity"]),
				TotalPrice: ParseDecimal(row["totalPrice"]),
			})
		}
	}
	return b, nil
}

var leadInterestKeys = []string{
	"Qual categoria de produto tem interesse",
	"qual_categoria_de_produto_tem_interesse",
	"qualCategoriaDeProdutoTemInteresse",
	"productInterestCategories",
	"product_categories",
	"categorias",
	"categories",
}

// ParseLead convierte un registro de /leads.
func ParseLead(r Record) (*entity.AFLead, error) {
	id, err := UpstreamID(r)
	if err != nil {
		return nil, err
	}
	l := &entity.AFLead{
		AltforceID:     id,
		Status:         str(r["status"]),
		Date:           recordDate(r),
		UserName:       str(get(r, "user", "name")),
		UserExternalID: userExternalID(r),
		ClientID: strPtr(firstStr(
			get(r, "lead", "Cliente", "id"), get(r, "lead", "cliente", "id"), get(r, "lead", "Client", "id"),
			get(r, "Cliente", "id"), get(r, "client", "id"), get(r, "cliente", "id"),
		)),
		InterestLevel: firstStr(
			get(r, "lead", "Nivel de interesse"), get(r, "lead", "Nível de interesse"),
			get(r, "lead", "nivel_de_interesse"), get(r, "lead", "interestLevel"),
			r["Nivel de interesse"], r["Nível de interesse"],
		),
		Raw: rawJSON(r),
	}

	lead, _ := r["lead"].(map[string]any)
	if lead != nil && hasAny(lead, leadInterestKeys...) {
		l.HasInterests = true
		l.Interests = leadInterests(lead)
	}
	return l, nil
}

func leadInterests(lead Record) []entity.AFLeadInterest {
	var raw any
	for _, k := range leadInterestKeys {
		if v, ok := lead[k]; ok && v != nil {
			raw = v
			break
		}
	}
	var items []any
	switch t := raw.(type) {
	case []any:
		items = t
	case string, map[string]any:
		items = []any{t}
	}
	seen := map[string]bool{}
	var out []entity.AFLeadInterest
	for _, it := range items {
		var pid, name string
		switch v := it.(type) {
		case map[string]any:
			pid = firstStr(v["id"], v["uuid"], v["externalId"])
			name = firstStr(v["name"], v["label"], v["categoria"], v["value"], v["title"])
		case string:
			name = strings.TrimSpace(v)
		}
		if name == "" {
			continue
		}
		if pid == "" {
			pid = "name:" + textutil.Normalize(name)
		}
		if seen[pid] {
			continue
		}
		seen[pid] = true
		out = append(out, entity.AFLeadInterest{ProductID: pid, CategoryName: name})
	}
	return out
}

// ParseCustomer convierte un registro de /customers. Acepta "address" y "adress".
func ParseCustomer(r Record) (*entity.AFCustomer, error) {
	id, err := UpstreamID(r)
	if err != nil {
		return nil, err
	}
	addr, _ := r["address"].(map[string]any)
	if addr == nil {
		addr, _ = r["adress"].(map[string]any)
	}
	name := str(r["name"])
	return &entity.AFCustomer{
		AltforceID:  id,
		Name:        name,
		NameNorm:    textutil.Normalize(name),
		Email:       str(r["email"]),
		Phone:       str(r["phone"]),
		CityName:    str(get(addr, "city", "name")),
		StateName:   str(get(addr, "state", "name")),
		CountryName: str(get(addr, "country", "name")),
		Raw:         rawJSON(r),
	}, nil
}
