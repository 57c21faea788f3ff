package idosell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordersync/internal/domain"
)

const (
	searchPathFormat = "https://%s/api/admin/v5/orders/orders/search"

	// resultsLimit — фиксированный размер страницы поискового API.
	resultsLimit = 100

	// dateLayout — формат дат фильтра: секундная точность, без смещения.
	dateLayout = "2006-01-02 15:04:05"

	// faultCodeNoResults — код, которым платформа сообщает "по фильтру
	// ничего не найдено" вместо пустой выдачи.
	faultCodeNoResults = 2

	defaultHTTPTimeout = 30 * time.Second
)

// Client обращается к поисковому API заказов IdoSell: один POST на страницу
// выдачи, авторизация ключом в заголовке X-API-KEY.
type Client struct {
	httpClient *http.Client
	searchURL  string
	apiKey     string
	logger     *log.Entry
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт кастомный http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithSearchURL переопределяет полный URL поискового эндпоинта.
func WithSearchURL(url string) Option {
	return func(c *Client) {
		c.searchURL = url
	}
}

// WithLogger задаёт logger клиента.
func WithLogger(logger *log.Entry) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient создаёт клиент поискового API для домена магазина.
func NewClient(shopDomain, apiKey string, options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		searchURL:  fmt.Sprintf(searchPathFormat, shopDomain),
		apiKey:     apiKey,
		logger:     log.WithField("component", "idosell-client"),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type searchRequest struct {
	Params searchParams `json:"params"`
}

type searchParams struct {
	ResultsPage  int         `json:"resultsPage"`
	ResultsLimit int         `json:"resultsLimit"`
	OrdersRange  ordersRange `json:"ordersRange"`
	OrdersBy     []ordersBy  `json:"ordersBy"`
}

type ordersRange struct {
	OrdersDateRange ordersDateRange `json:"ordersDateRange"`
}

type ordersDateRange struct {
	OrdersDateType  string `json:"ordersDateType"`
	OrdersDateBegin string `json:"ordersDateBegin,omitempty"`
	OrdersDateEnd   string `json:"ordersDateEnd,omitempty"`
}

type ordersBy struct {
	ElementName   string `json:"elementName"`
	SortDirection string `json:"sortDirection"`
}

type searchResponse struct {
	Errors            *apiFault     `json:"errors"`
	Results           []orderResult `json:"Results"`
	ResultsNumberPage int           `json:"resultsNumberPage"`
}

type apiFault struct {
	FaultCode   int    `json:"faultCode"`
	FaultString string `json:"faultString"`
}

type orderResult struct {
	OrderID      string       `json:"orderId"`
	OrderDetails orderDetails `json:"orderDetails"`
}

type orderDetails struct {
	ProductsResults []productResult `json:"productsResults"`
	Payments        orderPayments   `json:"payments"`
}

type productResult struct {
	// ProductID приходит числом; наружу отдаём строку.
	ProductID       json.Number `json:"productId"`
	ProductQuantity int         `json:"productQuantity"`
}

type orderPayments struct {
	OrderBaseCurrency baseCurrencyCosts `json:"orderBaseCurrency"`
}

type baseCurrencyCosts struct {
	OrderProductsCost  float64 `json:"orderProductsCost"`
	OrderDeliveryCost  float64 `json:"orderDeliveryCost"`
	OrderPayformCost   float64 `json:"orderPayformCost"`
	OrderInsuranceCost float64 `json:"orderInsuranceCost"`
}

// FetchPage выполняет один запрос за страницей page в диапазоне дат
// добавления window. Fault "нет результатов" нормализуется в пустую
// страницу; любой другой неуспех — ошибка, фатальная для текущего прохода
// синхронизации (повторов на этом уровне нет).
func (c *Client) FetchPage(ctx context.Context, window domain.DateRange, page int) (domain.OrderPage, error) {
	body := searchRequest{
		Params: searchParams{
			ResultsPage:  page,
			ResultsLimit: resultsLimit,
			OrdersRange: ordersRange{
				OrdersDateRange: ordersDateRange{
					OrdersDateType:  "add",
					OrdersDateBegin: formatRangeDate(window.From),
					OrdersDateEnd:   formatRangeDate(window.To),
				},
			},
			OrdersBy: []ordersBy{
				{ElementName: "adding_time", SortDirection: "ASC"},
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(payload))
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("search orders page %d: %w", page, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domain.OrderPage{}, fmt.Errorf("search orders page %d: unexpected status %d", page, resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.OrderPage{}, fmt.Errorf("decode search response: %w", err)
	}

	if parsed.Errors != nil {
		if parsed.Errors.FaultCode == faultCodeNoResults {
			c.logger.WithField("page", page).Debug("search returned no-results fault")
			return domain.OrderPage{}, nil
		}
		return domain.OrderPage{}, fmt.Errorf("search orders page %d: fault %d: %s",
			page, parsed.Errors.FaultCode, parsed.Errors.FaultString)
	}

	return domain.OrderPage{
		Orders: mapOrders(parsed.Results),
		// Запрошенная страница за пределами resultsNumberPage означает
		// конец выдачи, даже если Results непустой.
		HasMore: page < parsed.ResultsNumberPage,
	}, nil
}

func mapOrders(results []orderResult) []domain.Order {
	orders := make([]domain.Order, 0, len(results))
	for _, result := range results {
		orders = append(orders, domain.Order{
			ID:    result.OrderID,
			Worth: orderWorth(result.OrderDetails.Payments.OrderBaseCurrency),
			Lines: mapLines(result.OrderDetails.ProductsResults),
		})
	}
	return orders
}

func mapLines(products []productResult) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(products))
	for _, product := range products {
		lines = append(lines, domain.OrderLine{
			ProductID: product.ProductID.String(),
			Quantity:  product.ProductQuantity,
		})
	}
	return lines
}

// orderWorth — сумма четырёх стоимостных составляющих заказа в базовой
// валюте; отсутствующая в ответе составляющая считается нулевой.
func orderWorth(costs baseCurrencyCosts) decimal.Decimal {
	worth := decimal.NewFromFloat(costs.OrderProductsCost)
	worth = worth.Add(decimal.NewFromFloat(costs.OrderDeliveryCost))
	worth = worth.Add(decimal.NewFromFloat(costs.OrderPayformCost))
	worth = worth.Add(decimal.NewFromFloat(costs.OrderInsuranceCost))
	return worth
}

func formatRangeDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

var _ domain.OrderSource = (*Client)(nil)
