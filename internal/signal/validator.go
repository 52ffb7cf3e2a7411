package signal

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// Limits are the sizing and reward:risk thresholds a signal must meet.
type Limits struct {
	MaxPositionSize    float64 `json:"max_position_size"`
	MinRiskRewardRatio float64 `json:"min_risk_reward_ratio"`
}

// DefaultLimits returns a 10,000 position cap and a 2:1 minimum reward:risk.
func DefaultLimits() Limits {
	return Limits{MaxPositionSize: 10000, MinRiskRewardRatio: 2.0}
}

// Decision is the outcome of validating one signal. Reason is nil when approved.
type Decision struct {
	Approved     bool    `json:"approved"`
	Reason       error   `json:"-"`
	PositionSize float64 `json:"position_size"`
	RiskReward   float64 `json:"risk_reward_ratio"`
}

// Message returns the rejection reason as text, or "" when approved.
func (d Decision) Message() string {
	if d.Reason == nil {
		return ""
	}
	return d.Reason.Error()
}

// Rule is an extra check run after the built-in rules pass. A non-nil error
// rejects the signal.
type Rule func(TradeSignal) error

// optionParams carries the option fields through struct validation.
type optionParams struct {
	Strike     float64    `validate:"required"`
	Expiry     string     `validate:"required,len=8,numeric,datetime=20060102"`
	OptionType OptionType `validate:"required,oneof=C P"`
}

// Validator approves or rejects trade signals. It is stateless apart from its
// configuration and safe for concurrent use.
type Validator struct {
	limits   Limits
	rules    []Rule
	validate *validator.Validate
	logger   *slog.Logger

	// OnDecision, if set, is called with every decision.
	OnDecision func(TradeSignal, Decision)
}

// NewValidator creates a validator. A nil logger uses slog.Default().
func NewValidator(limits Limits, logger *slog.Logger, rules ...Rule) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		limits:   limits,
		rules:    rules,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "signal")),
	}
}

// Limits returns the configured limits.
func (v *Validator) Limits() Limits { return v.limits }

// Validate reports whether sig may proceed to position admission.
func (v *Validator) Validate(sig TradeSignal) bool {
	return v.Evaluate(sig).Approved
}

// Evaluate validates sig and returns the full decision. It never panics;
// an internal fault is logged and reported as ErrValidationFault.
func (v *Validator) Evaluate(sig TradeSignal) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("error validating trade signal",
				slog.String("symbol", sig.Symbol),
				slog.Any("panic", r))
			d = Decision{Reason: fmt.Errorf("%w: %v", ErrValidationFault, r)}
		}
		if d.Reason != nil {
			v.logger.Warn("trade signal rejected",
				slog.String("symbol", sig.Symbol),
				slog.String("reason", d.Reason.Error()))
		}
		if v.OnDecision != nil {
			v.OnDecision(sig, d)
		}
	}()

	return v.evaluate(sig)
}

func (v *Validator) evaluate(sig TradeSignal) Decision {
	if !sig.finite() {
		return Decision{Reason: fmt.Errorf("%w: non-finite price", ErrMalformedSignal)}
	}

	// Fail closed before dividing.
	if sig.RiskPerUnit() == 0 {
		return Decision{Reason: ErrZeroRisk}
	}

	d := Decision{
		PositionSize: sig.PositionSize(),
		RiskReward:   sig.RiskReward(),
	}

	if d.PositionSize > v.limits.MaxPositionSize {
		d.Reason = fmt.Errorf("%w: %.2f > %.2f", ErrPositionTooLarge, d.PositionSize, v.limits.MaxPositionSize)
		return d
	}
	if d.RiskReward < v.limits.MinRiskRewardRatio {
		d.Reason = fmt.Errorf("%w: %.2f < %.2f", ErrRiskRewardTooLow, d.RiskReward, v.limits.MinRiskRewardRatio)
		return d
	}

	if sig.IsOption {
		if err := v.checkOption(sig); err != nil {
			d.Reason = err
			return d
		}
	}

	for _, rule := range v.rules {
		if err := rule(sig); err != nil {
			d.Reason = err
			return d
		}
	}

	d.Approved = true
	return d
}

// checkOption checks presence first, then expiry, then type.
func (v *Validator) checkOption(sig TradeSignal) error {
	err := v.validate.Struct(optionParams{
		Strike:     sig.Strike,
		Expiry:     sig.Expiry,
		OptionType: sig.OptionType,
	})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidationFault, err)
	}

	var expiryErr, typeErr bool
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return ErrMissingOptionParams
		}
		switch fe.Field() {
		case "Expiry":
			expiryErr = true
		case "OptionType":
			typeErr = true
		}
	}
	switch {
	case expiryErr:
		return fmt.Errorf("%w: %q", ErrInvalidExpiry, sig.Expiry)
	case typeErr:
		return fmt.Errorf("%w: %q", ErrInvalidOptionType, sig.OptionType)
	}
	return fmt.Errorf("%w: %v", ErrValidationFault, err)
}
