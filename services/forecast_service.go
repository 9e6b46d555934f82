package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-pos/utils"
	"golang.org/x/sync/errgroup"
)

// NextDayForecast is the forecasting service's sales prediction for tomorrow.
type NextDayForecast struct {
	Success              bool    `json:"basari"`
	Date                 string  `json:"tarih"`
	DayName              string  `json:"gun_adi"`
	PredictedSales       float64 `json:"tahmini_satis"`
	PredictedRevenue     float64 `json:"tahmini_ciro"`
	AvgSales7Days        float64 `json:"ortalama_satis_7gun"`
	AvgRevenue7Days      float64 `json:"ortalama_ciro_7gun"`
	SalesChangePercent   float64 `json:"satis_degisim_yuzde"`
	RevenueChangePercent float64 `json:"ciro_degisim_yuzde"`
	Message              string  `json:"mesaj"`
	Error                string  `json:"hata,omitempty"`
}

type CriticalProduct struct {
	ProductID     uint    `json:"urun_id"`
	ProductName   string  `json:"urun_adi"`
	Category      string  `json:"kategori"`
	CurrentStock  int     `json:"mevcut_stok"`
	DailySalesAvg float64 `json:"gunluk_satis_ortalama"`
	DaysLeft      float64 `json:"tahmini_kalan_gun"`
	StockoutDate  string  `json:"tahmini_tukenme_tarihi"`
	Urgency       string  `json:"aciliyet"`
	UrgencyColor  string  `json:"aciliyet_renk"`
}

// StockForecast is the forecasting service's depletion analysis.
type StockForecast struct {
	Success          bool              `json:"basari"`
	AnalysisDate     string            `json:"analiz_tarihi"`
	TotalProducts    int               `json:"toplam_urun"`
	CriticalCount    int               `json:"kritik_urun_sayisi"`
	DepletedCount    int               `json:"tukenen_urun_sayisi"`
	CriticalProducts []CriticalProduct `json:"kritik_urunler"`
	Message          string            `json:"mesaj"`
	Error            string            `json:"hata,omitempty"`
}

// Forecasts holds whatever the forecasting service answered. Either field is
// nil when that call failed.
type Forecasts struct {
	NextDay *NextDayForecast `json:"next_day"`
	Stock   *StockForecast   `json:"stock"`
}

func (f *Forecasts) Available() bool {
	return f != nil && (f.NextDay != nil || f.Stock != nil)
}

// ForecastClient talks to the external sales forecasting service. A client
// with an empty base URL is disabled and returns no forecasts.
type ForecastClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewForecastClient(baseURL string, timeout time.Duration) *ForecastClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ForecastClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *ForecastClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Fetch queries both forecasts concurrently. Failures are logged and leave the
// corresponding field nil, as does an answer with basari=false. Fetch itself
// never fails.
func (c *ForecastClient) Fetch(ctx context.Context) *Forecasts {
	out := &Forecasts{}
	if !c.Enabled() {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var f NextDayForecast
		if err := c.get(gctx, "/tahmin/yarin", &f); err != nil {
			utils.ErrorLogger.Warnf("next day forecast unavailable: %v", err)
			return nil
		}
		if !f.Success {
			utils.ErrorLogger.WithField("error", f.Error).Warn("next day forecast unsuccessful")
			return nil
		}
		out.NextDay = &f
		return nil
	})
	g.Go(func() error {
		var f StockForecast
		if err := c.get(gctx, "/tahmin/stok", &f); err != nil {
			utils.ErrorLogger.Warnf("stock forecast unavailable: %v", err)
			return nil
		}
		if !f.Success {
			utils.ErrorLogger.WithField("error", f.Error).Warn("stock forecast unsuccessful")
			return nil
		}
		out.Stock = &f
		return nil
	})
	_ = g.Wait()
	return out
}

func (c *ForecastClient) get(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("forecast: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("forecast: service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("forecast: %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("forecast: decode %s: %w", path, err)
	}
	return nil
}
