package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/config"
)

// Reporter posts conversion events to the ads platform's server-side API.
type Reporter struct {
	cfg    config.Conversion
	http   *http.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewReporter(cfg config.Conversion, hc *http.Client, logger *zap.Logger) *Reporter {
	if hc == nil {
		hc = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &Reporter{cfg: cfg, http: hc, logger: logger.Named("conversion"), now: time.Now}
}

// Enabled is false until both the pixel id and the access token are set.
func (r *Reporter) Enabled() bool {
	return r.cfg.PixelID != "" && r.cfg.AccessToken != ""
}

type apiResponse struct {
	EventsReceived  int      `json:"events_received"`
	FbcQualityScore *float64 `json:"fbc_quality_score"`
	Error           *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (r *Reporter) Report(ctx context.Context, ev Event) error {
	if !r.Enabled() {
		r.logger.Warn("pixel id or access token not configured, conversion skipped", zap.String("event", ev.Name))
		return nil
	}
	if ev.Currency == "" {
		ev.Currency = r.cfg.Currency
	}
	if ev.TestCode == "" {
		ev.TestCode = r.cfg.TestCode
	}

	body, err := json.Marshal(r.buildPayload(ev))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/%s/events?%s", r.cfg.BaseURL, r.cfg.APIVersion, url.PathEscape(r.cfg.PixelID),
		url.Values{"access_token": {r.cfg.AccessToken}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("conversion %s: %w", ev.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var out apiResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(raw)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return fmt.Errorf("conversion %s: status %d: %s", ev.Name, resp.StatusCode, msg)
	}

	quality := "n/a"
	if out.FbcQualityScore != nil {
		quality = fmt.Sprint(*out.FbcQualityScore)
	}
	r.logger.Info("conversion sent",
		zap.String("event", ev.Name),
		zap.String("event_id", ev.EventID()),
		zap.Int("events_received", out.EventsReceived),
		zap.String("fbc_quality", quality),
	)
	return nil
}

func (r *Reporter) buildPayload(ev Event) payload {
	p := payload{
		Data: []serverEvent{{
			EventName:    ev.Name,
			EventTime:    r.now().Unix(),
			ActionSource: "website",
			EventID:      ev.EventID(),
			UserData:     buildUserData(ev.Email, ev.Phone),
			CustomData: customData{
				Value:       ev.Value,
				Currency:    ev.Currency,
				ContentIDs:  []string{r.cfg.ProductID},
				ContentType: "product",
				OrderID:     ev.OrderID,
			},
		}},
		TestEventCode: ev.TestCode,
	}
	return p
}
