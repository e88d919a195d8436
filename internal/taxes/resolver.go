package taxes

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
	pkgerrors "github.com/packaxis/packaxis-backend/pkg/errors"
	"github.com/packaxis/packaxis-backend/pkg/logger"
	"github.com/packaxis/packaxis-backend/pkg/metrics"
)

// Rates are fractions, not percentages. When a province has no configured
// row the resolver falls back to Ontario's HST so checkout keeps working.
var (
	FallbackRate = decimal.RequireFromString("0.13")

	hstThreshold = decimal.RequireFromString("0.13")
)

const FallbackLabel = "HST"

// postalProvinces maps the first letter of a Canadian postal code to its
// province or territory.
var postalProvinces = map[byte]enums.Province{
	'A': enums.ProvinceNL, 'B': enums.ProvinceNS, 'C': enums.ProvincePE, 'E': enums.ProvinceNB,
	'G': enums.ProvinceQC, 'H': enums.ProvinceQC, 'J': enums.ProvinceQC,
	'K': enums.ProvinceON, 'L': enums.ProvinceON, 'M': enums.ProvinceON, 'N': enums.ProvinceON, 'P': enums.ProvinceON,
	'R': enums.ProvinceMB, 'S': enums.ProvinceSK, 'T': enums.ProvinceAB, 'V': enums.ProvinceBC,
	'X': enums.ProvinceNT, 'Y': enums.ProvinceYT, 'Z': enums.ProvinceNU,
}

var postalCodeRe = regexp.MustCompile(`^[A-Z]\d[A-Z]\d[A-Z]\d$`)

type rateStore interface {
	FindActiveByProvince(ctx context.Context, province enums.Province) (*models.ProvinceTaxRate, error)
	ListActive(ctx context.Context) ([]models.ProvinceTaxRate, error)
}

// Rate is the resolved tax picture for one province.
type Rate struct {
	Province enums.Province
	Rate     decimal.Decimal
	GST      decimal.Decimal
	PST      decimal.Decimal
	Label    string
	Fallback bool
}

// Resolver maps postal codes to provinces and provinces to tax rates.
type Resolver struct {
	repo    rateStore
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
}

// NewResolver builds a tax resolver.
func NewResolver(repo rateStore, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("tax rate repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{repo: repo, logg: logg, metrics: m}, nil
}

// ValidatePostalCode checks the Canadian A1A 1A1 format and derives the
// province from the first letter.
func ValidatePostalCode(postalCode string) (enums.Province, error) {
	if strings.TrimSpace(postalCode) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Postal code is required")
	}

	cleaned := strings.ToUpper(strings.ReplaceAll(postalCode, " ", ""))
	if !postalCodeRe.MatchString(cleaned) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Invalid postal code format. Use: A1A 1A1")
	}

	province, ok := postalProvinces[cleaned[0]]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Unable to identify province from postal code")
	}
	return province, nil
}

// ResolveProvince validates the postal code and returns the province,
// honoring an explicit override when supplied. The postal code must be valid
// even when the override wins.
func (r *Resolver) ResolveProvince(postalCode, override string) (enums.Province, error) {
	province, err := ValidatePostalCode(postalCode)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(override) != "" {
		parsed, err := enums.ParseProvince(override)
		if err != nil {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "Unknown province code")
		}
		return parsed, nil
	}
	return province, nil
}

// RateFor returns the tax rate for the province. detailed selects the
// per-component label variant used by quote responses; the listing endpoints
// use the short form.
func (r *Resolver) RateFor(ctx context.Context, province enums.Province, detailed bool) (Rate, error) {
	row, err := r.repo.FindActiveByProvince(ctx, province)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return Rate{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading tax rate")
		}
		logCtx := r.logg.WithField(ctx, "province", string(province))
		r.logg.Warn(logCtx, "tax rate not found, using fallback")
		r.metrics.IncFallback("tax_rate")
		return Rate{
			Province: province,
			Rate:     FallbackRate,
			GST:      FallbackRate,
			Label:    FallbackLabel,
			Fallback: true,
		}, nil
	}

	total := row.TotalRate()
	return Rate{
		Province: province,
		Rate:     total,
		GST:      row.GSTRate,
		PST:      row.PSTRate,
		Label:    labelFor(row.GSTRate, row.PSTRate, total, detailed),
	}, nil
}

// ListRates returns every active province rate with the short label variant.
func (r *Resolver) ListRates(ctx context.Context) ([]Rate, error) {
	rows, err := r.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing tax rates")
	}
	rates := make([]Rate, 0, len(rows))
	for _, row := range rows {
		total := row.TotalRate()
		rates = append(rates, Rate{
			Province: row.Province,
			Rate:     total,
			GST:      row.GSTRate,
			PST:      row.PSTRate,
			Label:    labelFor(row.GSTRate, row.PSTRate, total, false),
		})
	}
	return rates, nil
}

// Amount computes the tax owed on the taxable amount, rounded to cents.
func Amount(taxable, rate decimal.Decimal) decimal.Decimal {
	return taxable.Mul(rate).Round(2)
}

func labelFor(gst, pst, total decimal.Decimal, detailed bool) string {
	switch {
	case pst.IsPositive():
		if detailed {
			return fmt.Sprintf("GST (%s%%) + PST (%s%%)", percent(gst), percent(pst))
		}
		return "GST + PST"
	case total.GreaterThanOrEqual(hstThreshold):
		return "HST"
	default:
		return "GST"
	}
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String()
}
