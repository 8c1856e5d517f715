package kpi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
)

// OrderDelivery is one work order's delivery outcome as seen by the OTD
// calculator. Promised is pre-resolved through the delivery-date inference
// chain when the order carried no explicit date.
type OrderDelivery struct {
	Promised         time.Time
	PromisedInferred bool
	Confidence       float64
	DeliveredAt      *time.Time
	Status           string
}

// OnTime reports whether the order was delivered on or before its promised
// date. Undelivered orders are not on time.
func (o OrderDelivery) OnTime() bool {
	return o.DeliveredAt != nil && !o.DeliveredAt.After(o.Promised)
}

// OTD computes (orders delivered on or before promised date / total
// measured orders) × 100. The true variant restricts the denominator to
// orders that have reached a terminal completed state; partially shipped is
// not terminal and is excluded from that denominator. Zero measured orders
// yields 0.
//
// The result carries inference metadata: it is flagged inferred when any
// measured order's promised date came from the inference chain, with the
// lowest such confidence attached.
func OTD(orders []OrderDelivery, trueVariant bool) Value {
	metric := MetricOTD
	if trueVariant {
		metric = MetricTrueOTD
	}

	var (
		measured      int64
		onTime        int64
		anyInferred   bool
		minConfidence = 1.0
	)
	for _, o := range orders {
		if trueVariant && !models.IsTerminalOrderStatus(o.Status) {
			continue
		}
		measured++
		if o.OnTime() {
			onTime++
		}
		if o.PromisedInferred {
			anyInferred = true
			if o.Confidence < minConfidence {
				minConfidence = o.Confidence
			}
		}
	}

	if measured == 0 {
		return NewValue(metric, decimal.Zero)
	}

	pct := round2(decimal.NewFromInt(onTime).Div(decimal.NewFromInt(measured)).Mul(hundred))
	if anyInferred {
		return NewInferredValue(metric, pct, minConfidence)
	}
	return NewValue(metric, pct)
}
