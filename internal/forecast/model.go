// Package forecast implements the additive decomposition model and the
// holdout evaluator. The model follows the Prophet recipe: a piecewise-linear
// trend over a fixed changepoint grid, yearly and weekly Fourier seasonality,
// and an optional binary demand-shock regressor, fit jointly by ridge-
// penalized least squares. The fit is closed form, so identical input yields
// identical predictions.
package forecast

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/metroflow/metro-forecast/internal/models"
	"github.com/metroflow/metro-forecast/internal/utils"
)

// Config carries the fixed model hyperparameters. These are configuration
// constants, not tuned per request.
type Config struct {
	TrendPrior       float64 // flexibility of trend changepoints
	SeasonalityPrior float64 // flexibility of the Fourier terms
	RegressorPrior   float64 // flexibility of the shock-regressor coefficient
	YearlyOrder      int
	WeeklyOrder      int
	MaxChangepoints  int
	ChangepointRange float64 // fraction of training time eligible for changepoints
	IntervalZ        float64 // residual-sigma multiplier for the uncertainty band
}

// DefaultConfig mirrors the production constants.
func DefaultConfig() Config {
	return Config{
		TrendPrior:       0.05,
		SeasonalityPrior: 10.0,
		RegressorPrior:   10.0,
		YearlyOrder:      10,
		WeeklyOrder:      3,
		MaxChangepoints:  25,
		ChangepointRange: 0.8,
		IntervalZ:        1.645,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TrendPrior <= 0 {
		c.TrendPrior = def.TrendPrior
	}
	if c.SeasonalityPrior <= 0 {
		c.SeasonalityPrior = def.SeasonalityPrior
	}
	if c.RegressorPrior <= 0 {
		c.RegressorPrior = def.RegressorPrior
	}
	if c.YearlyOrder <= 0 {
		c.YearlyOrder = def.YearlyOrder
	}
	if c.WeeklyOrder <= 0 {
		c.WeeklyOrder = def.WeeklyOrder
	}
	if c.MaxChangepoints <= 0 {
		c.MaxChangepoints = def.MaxChangepoints
	}
	if c.ChangepointRange <= 0 || c.ChangepointRange > 1 {
		c.ChangepointRange = def.ChangepointRange
	}
	if c.IntervalZ <= 0 {
		c.IntervalZ = def.IntervalZ
	}
	return c
}

// Prediction is a point/interval forecast for a date set together with the
// decomposition components aligned to it.
type Prediction struct {
	Rows   []models.PredictionRow
	Trend  []float64
	Yearly []float64
	Weekly []float64
}

// Model is the additive forecaster. Each request constructs its own instance
// and owns it exclusively; a Model is not safe for concurrent use.
type Model struct {
	cfg    Config
	logger *slog.Logger
	state  *fitState
}

type fitState struct {
	spec     featureSpec
	beta     []float64
	yMean    float64
	yStd     float64
	sigma    float64
	degraded bool
}

// NewModel creates an unfitted model. Zero config fields fall back to defaults.
func NewModel(cfg Config, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{cfg: cfg.withDefaults(), logger: logger}
}

// Degraded reports whether the training span was too short to identify
// yearly seasonality well. It is informational, not a failure.
func (m *Model) Degraded() bool {
	return m.state != nil && m.state.degraded
}

// Fit estimates all coefficients from the training series. The optional
// regressor must be index-aligned with train; pass nil when no anomaly
// windows were confirmed.
func (m *Model) Fit(train []models.ObservationPoint, regressor []float64) error {
	if len(train) < 2 {
		return utils.FitError("fit", fmt.Sprintf("need at least 2 distinct dates, got %d", len(train)), nil)
	}
	if regressor != nil && len(regressor) != len(train) {
		return utils.FitError("fit", fmt.Sprintf("regressor length %d does not match training length %d", len(regressor), len(train)), nil)
	}

	first := train[0].Date
	last := train[len(train)-1].Date
	spanDays := last.Sub(first).Hours() / 24
	if spanDays <= 0 {
		return utils.FitError("fit", "training dates have no temporal spread", nil)
	}

	degraded := spanDays < yearlyPeriodDays
	if degraded {
		m.logger.Warn("training span shorter than one year, yearly seasonality weakly identified",
			slog.Float64("span_days", spanDays))
	}

	numChangepoints := m.cfg.MaxChangepoints
	if numChangepoints > len(train)-2 {
		numChangepoints = len(train) - 2
	}
	if numChangepoints < 0 {
		numChangepoints = 0
	}

	spec := featureSpec{
		origin:       first,
		spanDays:     spanDays,
		changepoints: changepointGrid(numChangepoints, m.cfg.ChangepointRange),
		yearlyOrder:  m.cfg.YearlyOrder,
		weeklyOrder:  m.cfg.WeeklyOrder,
		hasRegressor: regressor != nil,
	}

	values := make([]float64, len(train))
	for i, o := range train {
		values[i] = o.Value
	}
	yMean, yStd := stat.MeanStdDev(values, nil)
	if yStd == 0 || math.IsNaN(yStd) {
		yStd = 1
	}

	n := len(train)
	cols := spec.columns()
	backing := make([]float64, n*cols)
	scaled := make([]float64, n)
	for i, o := range train {
		reg := 0.0
		if regressor != nil {
			reg = regressor[i]
		}
		spec.row(o.Date, reg, backing[i*cols:(i+1)*cols])
		scaled[i] = (o.Value - yMean) / yStd
	}
	x := mat.NewDense(n, cols, backing)
	y := mat.NewVecDense(n, scaled)

	var ata mat.Dense
	ata.Mul(x.T(), x)
	for i, lam := range spec.penalties(m.cfg.TrendPrior, m.cfg.SeasonalityPrior, m.cfg.RegressorPrior) {
		ata.Set(i, i, ata.At(i, i)+lam)
	}
	var atb mat.VecDense
	atb.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&ata, &atb); err != nil {
		return utils.FitError("fit", "normal equations are singular", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	residuals := make([]float64, n)
	for i := range residuals {
		residuals[i] = (scaled[i] - fitted.AtVec(i)) * yStd
	}
	sigma := stat.StdDev(residuals, nil)
	if math.IsNaN(sigma) {
		sigma = 0
	}

	m.state = &fitState{
		spec:     spec,
		beta:     append([]float64(nil), beta.RawVector().Data...),
		yMean:    yMean,
		yStd:     yStd,
		sigma:    sigma,
		degraded: degraded,
	}
	return nil
}

// Predict produces point estimates, uncertainty bounds and decomposition
// components for exactly the given dates. When the model was fit with a
// regressor, the caller must supply an aligned regressor series.
func (m *Model) Predict(dates []time.Time, regressor []float64) (*Prediction, error) {
	if m.state == nil {
		return nil, utils.InternalError("predict", "model has not been fitted", nil)
	}
	st := m.state
	if st.spec.hasRegressor {
		if regressor == nil {
			return nil, utils.InternalError("predict", "model was fit with a regressor but none was supplied", nil)
		}
		if len(regressor) != len(dates) {
			return nil, utils.InternalError("predict", fmt.Sprintf("regressor length %d does not match %d target dates", len(regressor), len(dates)), nil)
		}
	}

	n := len(dates)
	pred := &Prediction{
		Rows:   make([]models.PredictionRow, n),
		Trend:  make([]float64, n),
		Yearly: make([]float64, n),
		Weekly: make([]float64, n),
	}
	if n == 0 {
		return pred, nil
	}

	cols := st.spec.columns()
	row := make([]float64, cols)
	points := make([]float64, n)

	trendEnd := 2 + len(st.spec.changepoints)
	yearlyEnd := trendEnd + 2*st.spec.yearlyOrder
	weeklyEnd := yearlyEnd + 2*st.spec.weeklyOrder

	for i, d := range dates {
		reg := 0.0
		if st.spec.hasRegressor {
			reg = regressor[i]
		}
		st.spec.row(d, reg, row)

		trend := floats.Dot(row[:trendEnd], st.beta[:trendEnd])
		yearly := floats.Dot(row[trendEnd:yearlyEnd], st.beta[trendEnd:yearlyEnd])
		weekly := floats.Dot(row[yearlyEnd:weeklyEnd], st.beta[yearlyEnd:weeklyEnd])
		shock := floats.Dot(row[weeklyEnd:], st.beta[weeklyEnd:])

		pred.Trend[i] = st.yMean + st.yStd*trend
		pred.Yearly[i] = st.yStd * yearly
		pred.Weekly[i] = st.yStd * weekly
		points[i] = pred.Trend[i] + pred.Yearly[i] + pred.Weekly[i] + st.yStd*shock
	}

	band := m.cfg.IntervalZ * st.sigma
	for i, d := range dates {
		pred.Rows[i] = models.PredictionRow{
			Date:  d,
			Point: points[i],
			Lower: points[i] - band,
			Upper: points[i] + band,
		}
	}
	return pred, nil
}
