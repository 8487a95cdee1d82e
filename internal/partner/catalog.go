package partner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/cache"
	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/transport"
)

const (
	PackagesTTL     = time.Hour
	UsageTTL        = 5 * time.Minute
	DevicesTTL      = time.Hour
	InstructionsTTL = time.Hour
)

type PackageQuery struct {
	Type    string `json:"type,omitempty"`
	Country string `json:"country,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Page    int    `json:"page,omitempty"`
	SimOnly bool   `json:"sim_only,omitempty"`
}

func (q PackageQuery) values() url.Values {
	v := url.Values{}
	if !q.SimOnly {
		v.Set("include", "topup")
	}
	if q.Type != "" {
		v.Set("filter[type]", q.Type)
	}
	if q.Country != "" {
		v.Set("filter[country]", q.Country)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

type CatalogEntry struct {
	Slug        string     `json:"slug"`
	CountryCode string     `json:"country_code"`
	Title       string     `json:"title"`
	Operators   []Operator `json:"operators"`
}

type Operator struct {
	ID               int64             `json:"id"`
	Type             string            `json:"type"`
	Title            string            `json:"title"`
	IsRoaming        bool              `json:"is_roaming"`
	Info             []string          `json:"info"`
	PlanType         string            `json:"plan_type"`
	ActivationPolicy string            `json:"activation_policy"`
	OtherInfo        string            `json:"other_info"`
	Image            *Image            `json:"image,omitempty"`
	Countries        []OperatorCountry `json:"countries"`
	Packages         []PartnerPackage  `json:"packages"`
}

type Image struct {
	URL string `json:"url"`
}

type OperatorCountry struct {
	CountryCode string `json:"country_code"`
	Title       string `json:"title"`
}

type PartnerPackage struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	NetPrice    decimal.Decimal `json:"net_price"`
	Amount      int             `json:"amount"`
	Day         int             `json:"day"`
	IsUnlimited bool            `json:"is_unlimited"`
	Data        string          `json:"data"`
	ShortInfo   string          `json:"short_info"`
	Voice       *int            `json:"voice"`
	Text        *int            `json:"text"`
}

type FlatOperator struct {
	Title     string   `json:"title"`
	IsRoaming bool     `json:"is_roaming"`
	Info      []string `json:"info"`
}

// FlatPackage is one sellable package with its operator and coverage inlined.
type FlatPackage struct {
	PackageID        string          `json:"package_id"`
	Slug             string          `json:"slug"`
	Type             string          `json:"type"`
	Price            decimal.Decimal `json:"price"`
	NetPrice         decimal.Decimal `json:"net_price"`
	Amount           int             `json:"amount"`
	Day              int             `json:"day"`
	IsUnlimited      bool            `json:"is_unlimited"`
	Title            string          `json:"title"`
	Data             string          `json:"data"`
	ShortInfo        string          `json:"short_info"`
	Voice            *int            `json:"voice"`
	Text             *int            `json:"text"`
	PlanType         string          `json:"plan_type"`
	ActivationPolicy string          `json:"activation_policy"`
	Operator         FlatOperator    `json:"operator"`
	Countries        []string        `json:"countries"`
	Image            string          `json:"image,omitempty"`
	OtherInfo        string          `json:"other_info"`
}

// Domain maps the flat package onto the local catalog row.
func (p FlatPackage) Domain() domain.Package {
	t := domain.IntentTopup
	if p.Type == string(domain.IntentSim) {
		t = domain.IntentSim
	}
	return domain.Package{
		PackageID: p.PackageID,
		Type:      t,
		Slug:      strings.ToLower(strings.ReplaceAll(p.PackageID, " ", "-")),
		Title:     p.Title,
		NetPrice:  p.NetPrice,
		Markup:    domain.DefaultMarkup,
		Day:       p.Day,
		Amount:    p.Amount,
	}
}

// Flatten expands catalog entries into one row per package.
func Flatten(entries []CatalogEntry) []FlatPackage {
	var out []FlatPackage
	for _, e := range entries {
		for _, op := range e.Operators {
			countries := make([]string, 0, len(op.Countries))
			for _, c := range op.Countries {
				countries = append(countries, c.CountryCode)
			}
			image := ""
			if op.Image != nil {
				image = op.Image.URL
			}
			for _, p := range op.Packages {
				out = append(out, FlatPackage{
					PackageID:        p.ID,
					Slug:             e.Slug,
					Type:             p.Type,
					Price:            p.Price,
					NetPrice:         p.NetPrice,
					Amount:           p.Amount,
					Day:              p.Day,
					IsUnlimited:      p.IsUnlimited,
					Title:            p.Title,
					Data:             p.Data,
					ShortInfo:        p.ShortInfo,
					Voice:            p.Voice,
					Text:             p.Text,
					PlanType:         op.PlanType,
					ActivationPolicy: op.ActivationPolicy,
					Operator:         FlatOperator{Title: op.Title, IsRoaming: op.IsRoaming, Info: op.Info},
					Countries:        countries,
					Image:            image,
					OtherInfo:        op.OtherInfo,
				})
			}
		}
	}
	return out
}

// Packages walks every page of the catalog. Results are memoized for an hour.
func (c *Client) Packages(ctx context.Context, q PackageQuery) ([]CatalogEntry, error) {
	auth, token, err := c.authHeaders(ctx, "application/json")
	if err != nil {
		return nil, err
	}
	base := c.url(slugPackages) + "?" + q.values().Encode()

	return cache.GetOrCompute(ctx, c.memo, c.cacheKey(base, q, token), PackagesTTL, func(ctx context.Context) ([]CatalogEntry, error) {
		page := q.Page
		if page < 1 {
			page = 1
		}
		var all []CatalogEntry
		for {
			resp, err := c.doer.Call(ctx, transport.Request{
				Name:   slugPackages,
				Method: http.MethodGet,
				URL:    base + "&page=" + strconv.Itoa(page),
				Header: auth,
			})
			if err != nil {
				return nil, err
			}
			env, err := decode[[]CatalogEntry]("packages retrieval", resp, http.StatusOK)
			if err != nil {
				return nil, err
			}
			if len(env.Data) == 0 {
				break
			}
			all = append(all, env.Data...)

			if q.Limit > 0 && len(all) >= q.Limit {
				break
			}
			if env.Meta == nil || env.Meta.LastPage <= page {
				break
			}
			page++
		}
		c.logger.Debug("Packages fetched", zap.Int("entries", len(all)), zap.Int("pages", page))
		return all, nil
	})
}

func (c *Client) FlatPackages(ctx context.Context, q PackageQuery) ([]FlatPackage, error) {
	entries, err := c.Packages(ctx, q)
	if err != nil {
		return nil, err
	}
	return Flatten(entries), nil
}

type Usage struct {
	Remaining      int    `json:"remaining"`
	Total          int    `json:"total"`
	ExpiredAt      string `json:"expired_at"`
	IsUnlimited    bool   `json:"is_unlimited"`
	Status         string `json:"status"`
	RemainingVoice int    `json:"remaining_voice"`
	RemainingText  int    `json:"remaining_text"`
	TotalVoice     int    `json:"total_voice"`
	TotalText      int    `json:"total_text"`
}

type UsageResult struct {
	Usage *Usage
	Err   error
}

func (c *Client) usageURL(iccid string) string {
	return c.url(slugSims, url.PathEscape(iccid), slugUsage)
}

func requireICCID(iccid string) error {
	if strings.TrimSpace(iccid) == "" {
		return &domain.ValidationError{Field: "iccid", Reason: "is required"}
	}
	return nil
}

func (c *Client) SimUsage(ctx context.Context, iccid string) (*Usage, error) {
	if err := requireICCID(iccid); err != nil {
		return nil, err
	}
	auth, token, err := c.authHeaders(ctx, "application/json")
	if err != nil {
		return nil, err
	}
	u := c.usageURL(iccid)

	usage, err := cache.GetOrCompute(ctx, c.memo, c.cacheKey(u, map[string]string{"iccid": iccid}, token), UsageTTL, func(ctx context.Context) (Usage, error) {
		resp, err := c.doer.Call(ctx, transport.Request{Name: "sim_usage", Method: http.MethodGet, URL: u, Header: auth})
		if err != nil {
			return Usage{}, err
		}
		env, err := decode[Usage]("sim usage retrieval", resp, http.StatusOK)
		return env.Data, err
	})
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// SimUsageBulk fetches usage for many eSIMs concurrently. Entries already
// cached by SimUsage are served locally; successful legs are cached per iccid.
func (c *Client) SimUsageBulk(ctx context.Context, iccids []string) (map[string]UsageResult, error) {
	for _, iccid := range iccids {
		if err := requireICCID(iccid); err != nil {
			return nil, err
		}
	}
	auth, token, err := c.authHeaders(ctx, "application/json")
	if err != nil {
		return nil, err
	}

	out := make(map[string]UsageResult, len(iccids))
	keys := make(map[string]string, len(iccids))
	batch := transport.NewBatch()
	for _, iccid := range iccids {
		if _, seen := keys[iccid]; seen {
			continue
		}
		u := c.usageURL(iccid)
		key := c.cacheKey(u, map[string]string{"iccid": iccid}, token)
		keys[iccid] = key

		if usage, ok := cache.Lookup[Usage](ctx, c.memo, key); ok {
			out[iccid] = UsageResult{Usage: &usage}
			continue
		}
		if err := batch.Add(iccid, transport.Request{Name: "sim_usage", Method: http.MethodGet, URL: u, Header: auth}); err != nil {
			return nil, err
		}
	}

	for iccid, res := range c.doer.ExecBatch(ctx, batch) {
		if res.Err != nil {
			out[iccid] = UsageResult{Err: res.Err}
			continue
		}
		env, err := decode[Usage]("sim usage retrieval", res.Response, http.StatusOK)
		if err != nil {
			out[iccid] = UsageResult{Err: err}
			continue
		}
		cache.Store(ctx, c.memo, keys[iccid], UsageTTL, env.Data)
		usage := env.Data
		out[iccid] = UsageResult{Usage: &usage}
	}
	return out, nil
}

type Device struct {
	OS    string `json:"os"`
	Brand string `json:"brand"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

func (c *Client) CompatibleDevices(ctx context.Context) ([]Device, error) {
	auth, token, err := c.authHeaders(ctx, "application/json")
	if err != nil {
		return nil, err
	}
	u := c.url(slugDevices)

	return cache.GetOrCompute(ctx, c.memo, c.cacheKey(u, nil, token), DevicesTTL, func(ctx context.Context) ([]Device, error) {
		resp, err := c.doer.Call(ctx, transport.Request{Name: slugDevices, Method: http.MethodGet, URL: u, Header: auth})
		if err != nil {
			return nil, err
		}
		env, err := decode[[]Device]("compatible devices retrieval", resp, http.StatusOK)
		return env.Data, err
	})
}

type Instructions struct {
	Language string          `json:"language"`
	IOS      json.RawMessage `json:"ios,omitempty"`
	Android  json.RawMessage `json:"android,omitempty"`
}

// Instructions returns installation guides for an eSIM in the given language.
func (c *Client) Instructions(ctx context.Context, iccid, language string) (*Instructions, error) {
	if err := requireICCID(iccid); err != nil {
		return nil, err
	}
	auth, token, err := c.authHeaders(ctx, "application/json")
	if err != nil {
		return nil, err
	}
	auth["Accept-Language"] = language
	u := c.url(slugSims, url.PathEscape(iccid), slugInstructions)
	params := map[string]string{"iccid": iccid, "language": language}

	ins, err := cache.GetOrCompute(ctx, c.memo, c.cacheKey(u, params, token), InstructionsTTL, func(ctx context.Context) (Instructions, error) {
		resp, err := c.doer.Call(ctx, transport.Request{Name: slugInstructions, Method: http.MethodGet, URL: u, Header: auth})
		if err != nil {
			return Instructions{}, err
		}
		env, err := decode[struct {
			Instructions Instructions `json:"instructions"`
		}]("installation instructions retrieval", resp, http.StatusOK)
		return env.Data.Instructions, err
	})
	if err != nil {
		return nil, err
	}
	return &ins, nil
}
